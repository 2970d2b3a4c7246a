/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene is the reference implementation of the engine contract: an
// in-memory object graph with JSON serialization, schema-validated restore,
// coalescing render scheduling and synchronous mutation notifications. Real
// deployments swap in a hardware-accelerated engine; this one keeps the
// module runnable and testable on its own.
package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"drawboard/internal/engine"
	applog "drawboard/internal/log"
)

// snapshotVersion is bumped on incompatible snapshot layout changes.
const snapshotVersion = 1

// renderDelay coalesces deferred render requests into one redraw.
const renderDelay = 16 * time.Millisecond

type snapshotJSON struct {
	Version int       `json:"version"`
	Objects []*Object `json:"objects"`
}

// Scene is an in-memory engine.Engine.
type Scene struct {
	log *slog.Logger

	mu               sync.Mutex
	objects          []*Object
	selection        []*Object
	selectionEnabled bool
	viewport         engine.Transform
	observers        []func(engine.Event)

	renderFn      func()
	renderPending bool
}

// New creates an empty scene with an identity viewport.
func New() *Scene {
	return &Scene{
		log:              applog.WithComponent("scene"),
		selectionEnabled: true,
		viewport:         engine.Identity(),
	}
}

// OnRender installs the redraw hook invoked by RenderNow and by deferred
// render requests once they coalesce.
func (s *Scene) OnRender(fn func()) {
	s.mu.Lock()
	s.renderFn = fn
	s.mu.Unlock()
}

// Observe registers a mutation observer, invoked synchronously in
// registration order.
func (s *Scene) Observe(fn func(engine.Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Scene) emit(ev engine.Event) {
	s.mu.Lock()
	obs := make([]func(engine.Event), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(ev)
	}
}

// Add inserts an object and notifies observers. Non-scene objects are
// rejected with a log entry; the engine owns its object model.
func (s *Scene) Add(o engine.Object) {
	obj, ok := o.(*Object)
	if !ok {
		s.log.Warn("add rejected: foreign object", slog.String("id", o.ID()))
		return
	}
	s.mu.Lock()
	s.objects = append(s.objects, obj)
	s.mu.Unlock()
	s.emit(engine.Event{Kind: engine.ObjectAdded, Object: obj})
}

// Remove deletes an object and notifies observers. Unknown objects are
// ignored.
func (s *Scene) Remove(o engine.Object) {
	s.mu.Lock()
	found := false
	for i, x := range s.objects {
		if x == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			found = true
			break
		}
	}
	if found {
		for i, x := range s.selection {
			if x == o {
				s.selection = append(s.selection[:i], s.selection[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if found {
		s.emit(engine.Event{Kind: engine.ObjectRemoved, Object: o})
	}
}

// Objects returns the scene objects in z-order.
func (s *Scene) Objects() []engine.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o
	}
	return out
}

// SceneObjects returns the concrete objects, for hosts that render them.
func (s *Scene) SceneObjects() []*Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Object(nil), s.objects...)
}

// ActiveObject returns the primary selected object, or nil.
func (s *Scene) ActiveObject() engine.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selection) == 0 {
		return nil
	}
	return s.selection[0]
}

// Selection returns all selected objects.
func (s *Scene) Selection() []engine.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Object, len(s.selection))
	for i, o := range s.selection {
		out[i] = o
	}
	return out
}

// SetSelection replaces the selection. A no-op while selection is
// disabled (e.g. during a touch pan gesture).
func (s *Scene) SetSelection(objs []engine.Object) {
	s.mu.Lock()
	if !s.selectionEnabled {
		s.mu.Unlock()
		return
	}
	sel := make([]*Object, 0, len(objs))
	for _, o := range objs {
		if obj, ok := o.(*Object); ok {
			sel = append(sel, obj)
		}
	}
	s.selection = sel
	s.mu.Unlock()
}

// ClearSelection drops the selection. Always allowed.
func (s *Scene) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// SetSelectionEnabled toggles selection availability.
func (s *Scene) SetSelectionEnabled(v bool) {
	s.mu.Lock()
	s.selectionEnabled = v
	s.mu.Unlock()
}

// Viewport returns the current viewport transform.
func (s *Scene) Viewport() engine.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// SetViewport replaces the viewport transform.
func (s *Scene) SetViewport(t engine.Transform) {
	s.mu.Lock()
	s.viewport = t
	s.mu.Unlock()
}

// Zoom returns the viewport scale factor.
func (s *Scene) Zoom() float64 {
	return s.Viewport().ScaleX()
}

// RequestRender schedules a deferred redraw; bursts of requests coalesce
// into one.
func (s *Scene) RequestRender() {
	s.mu.Lock()
	if s.renderPending {
		s.mu.Unlock()
		return
	}
	s.renderPending = true
	s.mu.Unlock()
	time.AfterFunc(renderDelay, func() {
		s.mu.Lock()
		s.renderPending = false
		fn := s.renderFn
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// RenderNow redraws immediately, bypassing the coalescing delay.
func (s *Scene) RenderNow() {
	s.mu.Lock()
	fn := s.renderFn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Serialize returns the scene's object graph as JSON. The viewport
// transform is excluded: snapshots never carry camera state.
func (s *Scene) Serialize() (json.RawMessage, error) {
	s.mu.Lock()
	snap := snapshotJSON{Version: snapshotVersion, Objects: append([]*Object(nil), s.objects...)}
	s.mu.Unlock()
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize scene: %w", err)
	}
	return data, nil
}

// Restore replaces the object graph from a snapshot. The snapshot is
// schema-validated first so a malformed blob never destroys the live
// scene. Observers receive an object-added event per loaded object, as
// real engines emit while loading.
func (s *Scene) Restore(ctx context.Context, snapshot json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	var snap snapshotJSON
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	s.mu.Lock()
	s.objects = snap.Objects
	s.selection = nil
	s.mu.Unlock()

	for _, o := range snap.Objects {
		s.emit(engine.Event{Kind: engine.ObjectAdded, Object: o})
	}
	return nil
}

// Clone duplicates an object under a fresh identity.
func (s *Scene) Clone(ctx context.Context, o engine.Object) (engine.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, ok := o.(*Object)
	if !ok {
		return nil, fmt.Errorf("clone: foreign object %q", o.ID())
	}
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("clone %q: %w", src.ID(), err)
	}
	dup := &Object{}
	if err := json.Unmarshal(data, dup); err != nil {
		return nil, fmt.Errorf("clone %q: %w", src.ID(), err)
	}
	dup.id = newObjectID()
	return dup, nil
}

// FireModified emits a synthetic object-modified notification after a
// programmatic property change.
func (s *Scene) FireModified(o engine.Object) {
	s.emit(engine.Event{Kind: engine.ObjectModified, Object: o})
}

// SetText updates a text object's content and notifies observers.
func (s *Scene) SetText(o *Object, text string) {
	o.text = text
	s.emit(engine.Event{Kind: engine.TextChanged, Object: o})
}
