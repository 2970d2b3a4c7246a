/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"drawboard/internal/engine"
)

func TestSerializeRestoreRoundTrip(t *testing.T) {
	s := New()
	r := NewRect(10, 20, 100, 50, "#ff0000")
	r.SetLocked(true)
	s.Add(r)
	s.Add(NewText(5, 5, "hello"))

	data, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	s2 := New()
	if err := s2.Restore(context.Background(), data); err != nil {
		t.Fatalf("restore: %v", err)
	}
	objs := s2.SceneObjects()
	if len(objs) != 2 {
		t.Fatalf("restored %d objects, want 2", len(objs))
	}
	if objs[0].ID() != r.ID() || !objs[0].Locked() {
		t.Fatalf("rect did not survive round trip: id=%q locked=%v", objs[0].ID(), objs[0].Locked())
	}
	if left, top := objs[0].Position(); left != 10 || top != 20 {
		t.Fatalf("rect position (%v, %v), want (10, 20)", left, top)
	}
	if objs[1].Kind() != KindText || objs[1].Text() != "hello" {
		t.Fatalf("text did not survive round trip: kind=%q text=%q", objs[1].Kind(), objs[1].Text())
	}
}

func TestSerializeExcludesViewport(t *testing.T) {
	s := New()
	s.SetViewport(engine.Identity().Translated(40, 40))
	s.Add(NewRect(0, 0, 10, 10, "#000"))

	data, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if strings.Contains(string(data), "viewport") {
		t.Fatalf("snapshot carries viewport state: %s", data)
	}
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing version", `{"objects": []}`},
		{"missing objects", `{"version": 1}`},
		{"bad object type", `{"version": 1, "objects": [{"id": "a", "type": "blob", "left": 0, "top": 0}]}`},
		{"object without id", `{"version": 1, "objects": [{"type": "rect", "left": 0, "top": 0}]}`},
		{"negative width", `{"version": 1, "objects": [{"id": "a", "type": "rect", "left": 0, "top": 0, "width": -5}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			s.Add(NewRect(0, 0, 10, 10, "#000"))
			if err := s.Restore(context.Background(), []byte(tc.data)); err == nil {
				t.Fatalf("restore accepted malformed snapshot")
			}
			if len(s.SceneObjects()) != 1 {
				t.Fatalf("failed restore destroyed the live scene")
			}
		})
	}
}

func TestRestoreEmitsObjectAdded(t *testing.T) {
	s := New()
	s.Add(NewRect(0, 0, 10, 10, "#000"))
	data, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	s2 := New()
	var mu sync.Mutex
	var kinds []engine.EventKind
	s2.Observe(func(ev engine.Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})
	if err := s2.Restore(context.Background(), data); err != nil {
		t.Fatalf("restore: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != 1 || kinds[0] != engine.ObjectAdded {
		t.Fatalf("observed %v, want one object-added", kinds)
	}
}

func TestRestoreHonorsContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Restore(ctx, []byte(`{"version": 1, "objects": []}`)); err == nil {
		t.Fatalf("restore ignored cancelled context")
	}
}

func TestCloneGetsFreshIdentity(t *testing.T) {
	s := New()
	src := NewEllipse(10, 10, 30, 30, "#00ff00")
	src.SetLocked(true)
	s.Add(src)

	dup, err := s.Clone(context.Background(), src)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if dup.ID() == src.ID() || dup.ID() == "" {
		t.Fatalf("clone id %q not fresh (src %q)", dup.ID(), src.ID())
	}
	d := dup.(*Object)
	if d.Kind() != KindEllipse || d.Fill() != "#00ff00" || !d.Locked() {
		t.Fatalf("clone lost properties: kind=%q fill=%q locked=%v", d.Kind(), d.Fill(), d.Locked())
	}
	if left, top := d.Position(); left != 10 || top != 10 {
		t.Fatalf("clone position (%v, %v), want (10, 10)", left, top)
	}
}

func TestSelectionDisabledBlocksSetSelection(t *testing.T) {
	s := New()
	o := NewRect(0, 0, 10, 10, "#000")
	s.Add(o)

	s.SetSelectionEnabled(false)
	s.SetSelection([]engine.Object{o})
	if s.ActiveObject() != nil {
		t.Fatalf("selection applied while disabled")
	}

	s.SetSelectionEnabled(true)
	s.SetSelection([]engine.Object{o})
	if s.ActiveObject() != o {
		t.Fatalf("selection not applied after re-enable")
	}

	// ClearSelection works regardless of the enabled flag.
	s.SetSelectionEnabled(false)
	s.ClearSelection()
	if len(s.Selection()) != 0 {
		t.Fatalf("clear selection blocked while disabled")
	}
}

func TestRemoveDropsSelection(t *testing.T) {
	s := New()
	a := NewRect(0, 0, 10, 10, "#000")
	b := NewRect(20, 0, 10, 10, "#000")
	s.Add(a)
	s.Add(b)
	s.SetSelection([]engine.Object{a, b})

	s.Remove(a)
	sel := s.Selection()
	if len(sel) != 1 || sel[0] != b {
		t.Fatalf("selection after remove: %v", sel)
	}
	if len(s.SceneObjects()) != 1 {
		t.Fatalf("object not removed")
	}
}

func TestRequestRenderCoalesces(t *testing.T) {
	s := New()
	var mu sync.Mutex
	renders := 0
	s.OnRender(func() {
		mu.Lock()
		renders++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		s.RequestRender()
	}
	time.Sleep(4 * renderDelay)

	mu.Lock()
	got := renders
	mu.Unlock()
	if got != 1 {
		t.Fatalf("burst produced %d renders, want 1", got)
	}
}

func TestRenderNowBypassesDelay(t *testing.T) {
	s := New()
	renders := 0
	s.OnRender(func() { renders++ })
	s.RenderNow()
	if renders != 1 {
		t.Fatalf("RenderNow did not redraw")
	}
}

type foreignObject struct{}

func (foreignObject) ID() string                   { return "foreign" }
func (foreignObject) Position() (float64, float64) { return 0, 0 }
func (foreignObject) SetPosition(_, _ float64)     {}
func (foreignObject) SetCoords()                   {}
func (foreignObject) Locked() bool                 { return false }
func (foreignObject) SetLocked(bool)               {}

func TestAddRejectsForeignObject(t *testing.T) {
	s := New()
	s.Add(foreignObject{})
	if len(s.SceneObjects()) != 0 {
		t.Fatalf("foreign object accepted")
	}
}

func TestSetTextNotifies(t *testing.T) {
	s := New()
	o := NewText(0, 0, "before")
	s.Add(o)
	var got engine.EventKind
	s.Observe(func(ev engine.Event) { got = ev.Kind })
	s.SetText(o, "after")
	if o.Text() != "after" {
		t.Fatalf("text not updated")
	}
	if got != engine.TextChanged {
		t.Fatalf("observed %v, want text-changed", got)
	}
}

func TestZoomReadsViewportScale(t *testing.T) {
	s := New()
	if z := s.Zoom(); z != 1 {
		t.Fatalf("fresh scene zoom %v, want 1", z)
	}
	s.SetViewport(engine.Identity().Scaled(2.5))
	if z := s.Zoom(); z != 2.5 {
		t.Fatalf("zoom %v, want 2.5", z)
	}
}
