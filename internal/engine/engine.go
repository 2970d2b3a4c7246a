/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package engine defines the contract between the interaction-coordination
// layer and the underlying rendering engine. The engine owns the object
// model, hit-testing, redraw scheduling and serialization; the rest of this
// module only drives it through these interfaces.
package engine

import (
	"context"
	"encoding/json"
)

// Object is an opaque handle to a drawable owned by the engine.
type Object interface {
	// ID is stable for the object's lifetime and unique within a scene.
	ID() string
	// Position returns the object's left/top in scene coordinates.
	Position() (left, top float64)
	SetPosition(left, top float64)
	// SetCoords recomputes the object's cached corner coordinates after a
	// programmatic position change.
	SetCoords()
	Locked() bool
	SetLocked(bool)
}

// EventKind enumerates the raw mutation notifications an engine emits.
type EventKind int

const (
	ObjectAdded EventKind = iota
	ObjectRemoved
	ObjectModified
	TextChanged
)

func (k EventKind) String() string {
	switch k {
	case ObjectAdded:
		return "object-added"
	case ObjectRemoved:
		return "object-removed"
	case ObjectModified:
		return "object-modified"
	case TextChanged:
		return "text-changed"
	}
	return "unknown"
}

// Event is a raw scene mutation notification.
type Event struct {
	Kind   EventKind
	Object Object
}

// Engine is the rendering-engine contract consumed by the coordination
// layer. Serialize must exclude the viewport transform; Restore and Clone
// are suspending operations and take a context.
type Engine interface {
	Add(Object)
	Remove(Object)
	Objects() []Object

	// ActiveObject returns the primary selected object, or nil.
	ActiveObject() Object
	// Selection returns all selected objects, a multi-selection expanded
	// into its members.
	Selection() []Object
	SetSelection([]Object)
	ClearSelection()
	// SetSelectionEnabled toggles whether the user can select objects.
	// Used by touch panning for the duration of a gesture.
	SetSelectionEnabled(bool)

	Viewport() Transform
	SetViewport(Transform)
	// Zoom is the current scale factor of the viewport transform.
	Zoom() float64

	// RequestRender schedules a deferred, coalescing redraw.
	RequestRender()
	// RenderNow forces an immediate redraw.
	RenderNow()

	Serialize() (json.RawMessage, error)
	Restore(ctx context.Context, snapshot json.RawMessage) error
	Clone(ctx context.Context, o Object) (Object, error)

	// FireModified emits a synthetic object-modified event after a
	// programmatic property change.
	FireModified(Object)

	// Observe registers a mutation observer. Observers are invoked
	// synchronously, in registration order.
	Observe(func(Event))
}
