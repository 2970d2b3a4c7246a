/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package event

import (
	"testing"
	"time"

	"drawboard/internal/engine"
)

// stubObject is a minimal engine.Object for bus tests.
type stubObject struct {
	id     string
	left   float64
	top    float64
	locked bool
}

func (o *stubObject) ID() string                  { return o.id }
func (o *stubObject) Position() (float64, float64) { return o.left, o.top }
func (o *stubObject) SetPosition(l, t float64)    { o.left, o.top = l, t }
func (o *stubObject) SetCoords()                  {}
func (o *stubObject) Locked() bool                { return o.locked }
func (o *stubObject) SetLocked(v bool)            { o.locked = v }

func TestPublishFIFOPerChannel(t *testing.T) {
	b := New(Config{Debounce: time.Hour})
	defer b.Destroy()

	var order []int
	b.OnObjectAdded(func(engine.Object) { order = append(order, 1) })
	b.OnObjectAdded(func(engine.Object) { order = append(order, 2) })
	b.OnObjectAdded(func(engine.Object) { order = append(order, 3) })

	b.EngineEvent(engine.Event{Kind: engine.ObjectAdded, Object: &stubObject{id: "a"}})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("delivery order: %v", order)
	}
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	b := New(Config{Debounce: time.Hour})
	defer b.Destroy()

	b.EngineEvent(engine.Event{Kind: engine.ObjectModified, Object: &stubObject{id: "a"}})
	got := 0
	b.OnObjectModified(func(engine.Object) { got++ })
	if got != 0 {
		t.Fatalf("late subscriber received past event")
	}
	b.EngineEvent(engine.Event{Kind: engine.ObjectModified, Object: &stubObject{id: "a"}})
	if got != 1 {
		t.Fatalf("subscriber missed live event: %d", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New(Config{Debounce: time.Hour})
	defer b.Destroy()

	got := 0
	sub := b.OnObjectRemoved(func(engine.Object) { got++ })
	b.EngineEvent(engine.Event{Kind: engine.ObjectRemoved, Object: &stubObject{id: "a"}})
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	b.EngineEvent(engine.Event{Kind: engine.ObjectRemoved, Object: &stubObject{id: "a"}})
	if got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	b := New(Config{Debounce: time.Hour})
	defer b.Destroy()

	var after bool
	b.OnObjectAdded(func(engine.Object) { panic("boom") })
	b.OnObjectAdded(func(engine.Object) { after = true })
	b.EngineEvent(engine.Event{Kind: engine.ObjectAdded, Object: &stubObject{id: "a"}})
	if !after {
		t.Fatalf("subscriber after a panicking one was not invoked")
	}
}

// TestAggregateDebounceCollapse: a burst of qualifying events spaced inside
// the window yields exactly one aggregate fire, after the last event.
func TestAggregateDebounceCollapse(t *testing.T) {
	b := New(Config{Debounce: 60 * time.Millisecond})
	defer b.Destroy()

	fired := make(chan struct{}, 8)
	b.OnAggregateChange(func() { fired <- struct{}{} })

	obj := &stubObject{id: "a"}
	for i := 0; i < 5; i++ {
		b.EngineEvent(engine.Event{Kind: engine.ObjectModified, Object: obj})
		time.Sleep(15 * time.Millisecond)
	}
	// No fire may happen while the burst is ongoing (spacing < window).
	select {
	case <-fired:
		t.Fatalf("aggregate fired during burst")
	default:
	}

	select {
	case <-fired:
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("aggregate did not fire after burst")
	}
	// Exactly once.
	select {
	case <-fired:
		t.Fatalf("aggregate fired more than once")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestLockEventsQualifyForAggregate(t *testing.T) {
	b := New(Config{Debounce: 30 * time.Millisecond})
	defer b.Destroy()

	fired := make(chan struct{}, 1)
	b.OnAggregateChange(func() { fired <- struct{}{} })

	locked := 0
	b.OnObjectLocked(func(engine.Object) { locked++ })
	b.EmitObjectLocked(&stubObject{id: "a"})
	if locked != 1 {
		t.Fatalf("lock channel deliveries: %d", locked)
	}
	select {
	case <-fired:
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("lock did not arm aggregate debounce")
	}
}

func TestEmitEntryPoints(t *testing.T) {
	b := New(Config{})
	defer b.Destroy()

	var st HistoryState
	b.OnHistoryChanged(func(s HistoryState) { st = s })
	b.EmitHistoryChanged(HistoryState{CanUndo: true})
	if !st.CanUndo || st.CanRedo {
		t.Fatalf("history state: %+v", st)
	}

	var zoom float64
	b.OnZoomChanged(func(z float64) { zoom = z })
	b.EmitZoomChanged(2.5)
	if zoom != 2.5 {
		t.Fatalf("zoom: %v", zoom)
	}

	pre := 0
	b.OnPreRender(func() { pre++ })
	b.EmitPreRender()
	if pre != 1 {
		t.Fatalf("pre-render: %d", pre)
	}
}

func TestDestroyMakesBusInert(t *testing.T) {
	b := New(Config{Debounce: 20 * time.Millisecond})

	got := 0
	b.OnObjectAdded(func(engine.Object) { got++ })
	agg := 0
	b.OnAggregateChange(func() { agg++ })

	b.EngineEvent(engine.Event{Kind: engine.ObjectAdded, Object: &stubObject{id: "a"}})
	b.Destroy()
	b.Destroy() // idempotent

	b.EngineEvent(engine.Event{Kind: engine.ObjectAdded, Object: &stubObject{id: "a"}})
	b.EmitHistoryChanged(HistoryState{})
	if got != 1 {
		t.Fatalf("publish after destroy delivered: %d", got)
	}
	// Pending debounce from before destroy must never fire.
	time.Sleep(60 * time.Millisecond)
	if agg != 0 {
		t.Fatalf("aggregate fired after destroy")
	}
	if sub := b.OnObjectAdded(func(engine.Object) {}); sub == nil {
		t.Fatalf("subscribe after destroy returned nil handle")
	}
}
