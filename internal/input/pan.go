/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package input

import (
	"log/slog"
	"math"

	"drawboard/internal/engine"
)

// panSession is the per-source accumulation state. The three pan sources
// each own an independent instance, but all apply their deltas to the one
// shared viewport transform through the same primitive.
type panSession struct {
	lastDX float64
	lastDY float64
}

// apply shifts the viewport translation by (dx, dy) and requests a render.
func (s *panSession) apply(eng engine.Engine, dx, dy float64) {
	if eng == nil {
		return
	}
	eng.SetViewport(eng.Viewport().Translated(dx, dy))
	s.lastDX, s.lastDY = dx, dy
	eng.RequestRender()
}

func (s *panSession) reset() { *s = panSession{} }

// TouchPoint is one active touch contact in screen coordinates.
type TouchPoint struct {
	X float64
	Y float64
}

func centroid(pts []TouchPoint) (float64, float64) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	return cx / n, cy / n
}

// HandlePointerDown records a primary-pointer press for spacebar panning.
func (d *Dispatcher) HandlePointerDown() {
	d.mu.Lock()
	if d.spacebarOn {
		d.pointerDown = true
	}
	d.mu.Unlock()
}

// HandlePointerUp ends a spacebar drag session.
func (d *Dispatcher) HandlePointerUp() {
	d.mu.Lock()
	d.pointerDown = false
	d.spaceSession.reset()
	d.mu.Unlock()
}

// HandlePointerMove accumulates pointer movement into the viewport while
// the spacebar and the pointer are both down.
func (d *Dispatcher) HandlePointerMove(movementX, movementY float64) {
	d.mu.Lock()
	active := d.spacebarOn && d.spaceHeld && d.pointerDown
	d.mu.Unlock()
	if !active {
		return
	}
	d.spaceSession.apply(d.eng, movementX, movementY)
}

// HandleWheel adds a wheel/trackpad delta into the viewport translation.
func (d *Dispatcher) HandleWheel(deltaX, deltaY float64) {
	d.mu.Lock()
	active := d.wheelOn
	d.mu.Unlock()
	if !active {
		return
	}
	d.wheelSession.apply(d.eng, deltaX, deltaY)
}

// HandleTouchStart begins a two-finger pan session. Selection is disabled
// for the duration of the gesture.
func (d *Dispatcher) HandleTouchStart(pts []TouchPoint) {
	d.mu.Lock()
	if !d.touchOn || len(pts) < 2 {
		d.mu.Unlock()
		return
	}
	d.gestureActive = true
	d.lastCX, d.lastCY = centroid(pts)
	d.mu.Unlock()
	if d.eng != nil {
		d.eng.SetSelectionEnabled(false)
	}
}

// HandleTouchMove pans by the centroid delta since the previous move.
// Noisy touch data is bounded per axis: a delta beyond TouchPanMaxJump on
// either axis suppresses the whole update, so the viewport cannot
// teleport. The delta is also skipped while an object is selected.
func (d *Dispatcher) HandleTouchMove(pts []TouchPoint) {
	d.mu.Lock()
	if !d.touchOn || !d.gestureActive || len(pts) < 2 {
		d.mu.Unlock()
		return
	}
	cx, cy := centroid(pts)
	dx, dy := cx-d.lastCX, cy-d.lastCY
	d.lastCX, d.lastCY = cx, cy
	maxJump := d.cfg.TouchPanMaxJump
	d.mu.Unlock()

	if d.eng == nil || d.eng.ActiveObject() != nil {
		return
	}
	if math.Abs(dx) > maxJump || math.Abs(dy) > maxJump {
		d.log.Debug("touch pan jump suppressed", slog.Float64("dx", dx), slog.Float64("dy", dy))
		return
	}
	d.touchSession.apply(d.eng, dx, dy)
}

// HandleTouchEnd finishes the gesture and re-enables selection.
func (d *Dispatcher) HandleTouchEnd() {
	d.mu.Lock()
	wasActive := d.gestureActive
	d.gestureActive = false
	d.lastCX, d.lastCY = 0, 0
	d.touchSession.reset()
	d.mu.Unlock()
	if wasActive && d.eng != nil {
		d.eng.SetSelectionEnabled(true)
	}
}
