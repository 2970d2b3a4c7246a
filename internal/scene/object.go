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
	"encoding/json"

	"github.com/google/uuid"
)

// Object kinds understood by the reference engine.
const (
	KindRect    = "rect"
	KindEllipse = "ellipse"
	KindText    = "text"
)

func newObjectID() string { return uuid.NewString() }

// Object is a drawable of the reference engine. It satisfies
// engine.Object. Objects are not safe for concurrent mutation; the scene
// serializes access on its own goroutine, like the engines this package
// stands in for.
type Object struct {
	id     string
	kind   string
	left   float64
	top    float64
	width  float64
	height float64
	fill   string
	locked bool
	text   string

	// cached corner coordinates, recomputed by SetCoords
	coords [4][2]float64
}

// NewRect creates a rectangle object.
func NewRect(left, top, width, height float64, fill string) *Object {
	o := &Object{id: newObjectID(), kind: KindRect, left: left, top: top, width: width, height: height, fill: fill}
	o.SetCoords()
	return o
}

// NewEllipse creates an ellipse object with the given bounding box.
func NewEllipse(left, top, width, height float64, fill string) *Object {
	o := &Object{id: newObjectID(), kind: KindEllipse, left: left, top: top, width: width, height: height, fill: fill}
	o.SetCoords()
	return o
}

// NewText creates a text object.
func NewText(left, top float64, text string) *Object {
	o := &Object{id: newObjectID(), kind: KindText, left: left, top: top, text: text}
	o.SetCoords()
	return o
}

func (o *Object) ID() string   { return o.id }
func (o *Object) Kind() string { return o.kind }
func (o *Object) Text() string { return o.text }
func (o *Object) Fill() string { return o.fill }

func (o *Object) Position() (float64, float64) { return o.left, o.top }

func (o *Object) SetPosition(left, top float64) { o.left, o.top = left, top }

func (o *Object) Size() (float64, float64) { return o.width, o.height }

func (o *Object) Locked() bool { return o.locked }

func (o *Object) SetLocked(v bool) { o.locked = v }

// SetCoords recomputes the cached corner coordinates from the bounding
// box. Callers must invoke it after programmatic position changes.
func (o *Object) SetCoords() {
	o.coords = [4][2]float64{
		{o.left, o.top},
		{o.left + o.width, o.top},
		{o.left + o.width, o.top + o.height},
		{o.left, o.top + o.height},
	}
}

// Coords returns the cached corner coordinates, clockwise from top-left.
func (o *Object) Coords() [4][2]float64 { return o.coords }

type objectJSON struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Fill   string  `json:"fill,omitempty"`
	Locked bool    `json:"locked,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// MarshalJSON serializes the object's persistent properties. Cached
// coordinates are derived state and stay out of snapshots.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(objectJSON{
		ID:     o.id,
		Type:   o.kind,
		Left:   o.left,
		Top:    o.top,
		Width:  o.width,
		Height: o.height,
		Fill:   o.fill,
		Locked: o.locked,
		Text:   o.text,
	})
}

// UnmarshalJSON restores an object from its snapshot form.
func (o *Object) UnmarshalJSON(data []byte) error {
	var j objectJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.id = j.ID
	o.kind = j.Type
	o.left = j.Left
	o.top = j.Top
	o.width = j.Width
	o.height = j.Height
	o.fill = j.Fill
	o.locked = j.Locked
	o.text = j.Text
	o.SetCoords()
	return nil
}
