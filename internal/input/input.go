/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package input is the single source of truth for keyboard shortcuts and
// the three panning modes (spacebar+drag, wheel, two-finger touch). The
// host platform adapter feeds raw device events into the Handle* methods;
// the dispatcher turns them into scene mutations, viewport pans or
// delegated undo/redo commands. Each input source is independently
// toggleable, and disabling a source fully resets its session state.
package input

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"drawboard/internal/engine"
	applog "drawboard/internal/log"
)

// ErrPasteInFlight is returned when Paste is called while a previous paste
// has not finished cloning. Object cloning suspends, so overlapping pastes
// are rejected rather than interleaved.
var ErrPasteInFlight = errors.New("input: paste already in flight")

// pasteOffset is the x/y displacement of pasted duplicates from their
// source object.
const pasteOffset = 10

// Config holds the dispatcher tunables.
type Config struct {
	// ArrowKeyDistance is the on-screen distance of one arrow-key nudge,
	// in screen pixels; the scene-space distance is divided by the zoom.
	ArrowKeyDistance float64
	// TouchPanMaxJump bounds per-axis centroid deltas of a touch gesture;
	// a spike beyond it on either axis suppresses that entire update.
	TouchPanMaxJump float64
	// SystemClipboard mirrors copied objects to the OS clipboard as JSON.
	SystemClipboard bool
}

// DefaultConfig returns the fully-specified defaults.
func DefaultConfig() Config {
	return Config{ArrowKeyDistance: 5, TouchPanMaxJump: 200}
}

// Dispatcher coordinates all device input for one canvas instance.
type Dispatcher struct {
	eng engine.Engine
	cfg Config
	log *slog.Logger

	mu sync.Mutex

	keyboardOn bool

	// spacebar+drag pan
	spacebarOn   bool
	spaceHeld    bool
	pointerDown  bool
	spaceSession panSession

	// wheel/trackpad pan
	wheelOn      bool
	wheelSession panSession

	// two-finger touch pan
	touchOn       bool
	gestureActive bool
	lastCX        float64
	lastCY        float64
	touchSession  panSession

	clipboard []engine.Object
	pasting   bool

	undoFn func()
	redoFn func()
}

// New constructs a dispatcher for eng. All input sources start disabled.
func New(eng engine.Engine, cfg Config) *Dispatcher {
	if cfg.ArrowKeyDistance <= 0 {
		cfg.ArrowKeyDistance = DefaultConfig().ArrowKeyDistance
	}
	if cfg.TouchPanMaxJump <= 0 {
		cfg.TouchPanMaxJump = DefaultConfig().TouchPanMaxJump
	}
	return &Dispatcher{eng: eng, cfg: cfg, log: applog.WithComponent("input")}
}

// EnableKeyboard turns the shortcut surface on. Idempotent.
func (d *Dispatcher) EnableKeyboard() {
	d.mu.Lock()
	d.keyboardOn = true
	d.mu.Unlock()
}

// DisableKeyboard turns the shortcut surface off. Idempotent.
func (d *Dispatcher) DisableKeyboard() {
	d.mu.Lock()
	d.keyboardOn = false
	d.mu.Unlock()
}

// EnableSpacebarPan enables spacebar+drag panning. Idempotent.
func (d *Dispatcher) EnableSpacebarPan() {
	d.mu.Lock()
	d.spacebarOn = true
	d.mu.Unlock()
}

// DisableSpacebarPan disables spacebar+drag panning and resets its session
// state so no residual deltas survive a re-enable.
func (d *Dispatcher) DisableSpacebarPan() {
	d.mu.Lock()
	d.spacebarOn = false
	d.spaceHeld = false
	d.pointerDown = false
	d.spaceSession.reset()
	d.mu.Unlock()
}

// EnableWheelPan enables wheel/trackpad panning. Idempotent.
func (d *Dispatcher) EnableWheelPan() {
	d.mu.Lock()
	d.wheelOn = true
	d.mu.Unlock()
}

// DisableWheelPan disables wheel/trackpad panning and resets its session.
func (d *Dispatcher) DisableWheelPan() {
	d.mu.Lock()
	d.wheelOn = false
	d.wheelSession.reset()
	d.mu.Unlock()
}

// EnableTouchPan enables two-finger touch panning. Idempotent.
func (d *Dispatcher) EnableTouchPan() {
	d.mu.Lock()
	d.touchOn = true
	d.mu.Unlock()
}

// DisableTouchPan disables touch panning, re-enables selection if a
// gesture was in progress, and resets the session.
func (d *Dispatcher) DisableTouchPan() {
	d.mu.Lock()
	wasActive := d.gestureActive
	d.touchOn = false
	d.gestureActive = false
	d.lastCX, d.lastCY = 0, 0
	d.touchSession.reset()
	d.mu.Unlock()
	if wasActive && d.eng != nil {
		d.eng.SetSelectionEnabled(true)
	}
}

// OnUndo registers the undo callback. Single slot: the last registration
// wins, matching the 1:1 binding to the history engine.
func (d *Dispatcher) OnUndo(fn func()) {
	d.mu.Lock()
	d.undoFn = fn
	d.mu.Unlock()
}

// OnRedo registers the redo callback. Single slot, last registration wins.
func (d *Dispatcher) OnRedo(fn func()) {
	d.mu.Lock()
	d.redoFn = fn
	d.mu.Unlock()
}

// Clipboard returns a copy of the current clipboard buffer.
func (d *Dispatcher) Clipboard() []engine.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]engine.Object(nil), d.clipboard...)
}

// Destroy disables every input source and clears the clipboard buffer and
// the callback slots.
func (d *Dispatcher) Destroy() {
	d.DisableKeyboard()
	d.DisableSpacebarPan()
	d.DisableWheelPan()
	d.DisableTouchPan()
	d.mu.Lock()
	d.clipboard = nil
	d.pasting = false
	d.undoFn = nil
	d.redoFn = nil
	d.mu.Unlock()
	d.log.Debug("dispatcher destroyed")
}

// Paste duplicates every buffered object with a +10/+10 offset and adds it
// to the scene. Cloning suspends, so exactly one render request is issued
// after all duplicates resolve, not per item. Clone failures propagate.
func (d *Dispatcher) Paste(ctx context.Context) error {
	d.mu.Lock()
	if d.pasting {
		d.mu.Unlock()
		return ErrPasteInFlight
	}
	if len(d.clipboard) == 0 {
		d.mu.Unlock()
		d.log.Debug("paste ignored: clipboard empty")
		return nil
	}
	buf := append([]engine.Object(nil), d.clipboard...)
	d.pasting = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.pasting = false
		d.mu.Unlock()
	}()

	for _, src := range buf {
		dup, err := d.eng.Clone(ctx, src)
		if err != nil {
			return err
		}
		left, top := dup.Position()
		dup.SetPosition(left+pasteOffset, top+pasteOffset)
		dup.SetCoords()
		d.eng.Add(dup)
	}
	d.eng.RequestRender()
	return nil
}

func (d *Dispatcher) copySelection() {
	if d.eng == nil {
		return
	}
	var unlocked []engine.Object
	for _, o := range d.eng.Selection() {
		if !o.Locked() {
			unlocked = append(unlocked, o)
		}
	}
	if len(unlocked) == 0 {
		d.log.Debug("copy ignored: no unlocked selection")
		return
	}
	d.mu.Lock()
	d.clipboard = unlocked
	mirror := d.cfg.SystemClipboard
	d.mu.Unlock()
	if mirror {
		d.mirrorToSystemClipboard(unlocked)
	}
}

func (d *Dispatcher) deleteSelection() bool {
	if d.eng == nil {
		return false
	}
	sel := d.eng.Selection()
	if len(sel) == 0 {
		d.log.Debug("delete ignored: empty selection")
		return true
	}
	for _, o := range sel {
		d.eng.Remove(o)
	}
	d.eng.ClearSelection()
	d.eng.RequestRender()
	return true
}

// moveActive nudges the active object by (dx, dy) steps of the
// zoom-compensated arrow distance, so on-screen movement speed stays
// constant at any zoom. Locked or absent selections are non-consuming
// no-ops.
func (d *Dispatcher) moveActive(dx, dy float64) bool {
	if d.eng == nil {
		return false
	}
	obj := d.eng.ActiveObject()
	if obj == nil || obj.Locked() {
		return false
	}
	zoom := d.eng.Zoom()
	if zoom == 0 {
		zoom = 1
	}
	dist := d.cfg.ArrowKeyDistance / zoom
	left, top := obj.Position()
	obj.SetPosition(left+dx*dist, top+dy*dist)
	obj.SetCoords()
	d.eng.FireModified(obj)
	d.eng.RequestRender()
	return true
}
