/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history maintains bounded undo/redo stacks of serialized scene
// snapshots. It subscribes to the engine's mutation notifications on the
// bus, guards against recording its own restores, and invalidates redo on
// every genuine new action. Viewport changes never enter history: snapshots
// exclude the transform and undo/redo reinstate the live camera.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"drawboard/internal/engine"
	"drawboard/internal/event"
	applog "drawboard/internal/log"
)

// ErrRestoreInFlight is returned when Undo or Redo is called while a prior
// restore has not completed. The stacks are mutated around a suspending
// engine call, so overlapping restores must be rejected.
var ErrRestoreInFlight = errors.New("history: restore already in flight")

// Entry is one history record. Immutable once created.
type Entry struct {
	Snapshot json.RawMessage
	TS       time.Time
}

// Config bounds the undo stack depth.
type Config struct {
	// MaxSize caps the undo stack; the oldest entries are evicted first.
	MaxSize int
}

// DefaultConfig returns the fully-specified defaults.
func DefaultConfig() Config { return Config{MaxSize: 50} }

// phase makes Idle/Undoing/Redoing mutually exclusive by construction.
type phase int

const (
	phaseIdle phase = iota
	phaseUndoing
	phaseRedoing
)

// Engine records and restores scene state. Construct with New, then call
// Initialize to seed the baseline snapshot and start tracking.
type Engine struct {
	eng engine.Engine
	bus *event.Bus
	cfg Config
	log *slog.Logger

	mu        sync.Mutex
	undo      []Entry // most-recent-last; top mirrors the current state
	redo      []Entry // most-recent-last
	st        phase
	enabled   bool
	restoring bool
	subs      []*event.Subscription
}

// New constructs the history engine. It does nothing until Initialize.
func New(eng engine.Engine, bus *event.Bus, cfg Config) *Engine {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	return &Engine{
		eng: eng,
		bus: bus,
		cfg: cfg,
		log: applog.WithComponent("history"),
	}
}

// Initialize takes the baseline snapshot and subscribes to the qualifying
// mutation channels. Each qualifying event auto-saves while tracking is
// enabled and no restore is running.
func (h *Engine) Initialize() error {
	snap, err := h.eng.Serialize()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.undo = []Entry{{Snapshot: snap, TS: time.Now()}}
	h.redo = nil
	h.enabled = true
	h.mu.Unlock()

	onMutation := func(engine.Object) { h.autoSave() }
	h.subs = append(h.subs,
		h.bus.OnObjectAdded(onMutation),
		h.bus.OnObjectRemoved(onMutation),
		h.bus.OnObjectModified(onMutation),
	)
	return nil
}

func (h *Engine) autoSave() {
	h.mu.Lock()
	skip := !h.enabled || h.st != phaseIdle || h.restoring
	h.mu.Unlock()
	if skip {
		return
	}
	if err := h.SaveState(); err != nil {
		h.log.Error("auto-save failed", slog.Any("err", err))
	}
}

// SaveState serializes the live scene and pushes it as the new current
// entry. Any redo entries become unreachable and are dropped.
func (h *Engine) SaveState() error {
	snap, err := h.eng.Serialize()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.redo = nil
	h.undo = append(h.undo, Entry{Snapshot: snap, TS: time.Now()})
	if len(h.undo) > h.cfg.MaxSize {
		h.undo = append([]Entry(nil), h.undo[len(h.undo)-h.cfg.MaxSize:]...)
	}
	st := h.stateLocked()
	h.mu.Unlock()

	h.bus.EmitHistoryChanged(st)
	return nil
}

// Undo moves one step back. With nothing to undo it is a silent no-op; with
// a restore still in flight it returns ErrRestoreInFlight. A failed engine
// restore propagates to the caller untouched.
func (h *Engine) Undo(ctx context.Context) error {
	h.mu.Lock()
	if h.restoring {
		h.mu.Unlock()
		return ErrRestoreInFlight
	}
	if len(h.undo) <= 1 {
		h.mu.Unlock()
		h.log.Debug("undo ignored: nothing to undo")
		return nil
	}
	h.mu.Unlock()

	// Serialize outside the lock; the engine may be slow here.
	current, err := h.eng.Serialize()
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.restoring || len(h.undo) <= 1 {
		h.mu.Unlock()
		if h.restoring {
			return ErrRestoreInFlight
		}
		return nil
	}
	h.redo = append(h.redo, Entry{Snapshot: current, TS: time.Now()})
	h.undo = h.undo[:len(h.undo)-1]
	target := h.undo[len(h.undo)-1]
	h.st = phaseUndoing
	h.restoring = true
	h.mu.Unlock()

	return h.finishRestore(ctx, target)
}

// Redo reapplies the most recently undone state. A no-op when the redo
// stack is empty.
func (h *Engine) Redo(ctx context.Context) error {
	h.mu.Lock()
	if h.restoring {
		h.mu.Unlock()
		return ErrRestoreInFlight
	}
	if len(h.redo) == 0 {
		h.mu.Unlock()
		h.log.Debug("redo ignored: nothing to redo")
		return nil
	}
	target := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	// The restored entry becomes the current state, so it goes on top of
	// the undo stack, keeping the top==current invariant intact.
	h.undo = append(h.undo, target)
	if len(h.undo) > h.cfg.MaxSize {
		h.undo = append([]Entry(nil), h.undo[len(h.undo)-h.cfg.MaxSize:]...)
	}
	h.st = phaseRedoing
	h.restoring = true
	h.mu.Unlock()

	return h.finishRestore(ctx, target)
}

// finishRestore loads the target snapshot into the live scene while
// preserving the camera, then returns the engine to idle and notifies.
func (h *Engine) finishRestore(ctx context.Context, target Entry) error {
	viewport := h.eng.Viewport()
	restoreErr := h.eng.Restore(ctx, target.Snapshot)
	h.eng.SetViewport(viewport)

	h.mu.Lock()
	h.st = phaseIdle
	h.restoring = false
	st := h.stateLocked()
	h.mu.Unlock()

	h.bus.EmitHistoryChanged(st)
	if restoreErr != nil {
		return restoreErr
	}
	h.eng.RequestRender()
	return nil
}

// CanUndo reports whether a step back exists. The stack always holds the
// current entry, so at least two entries are required.
func (h *Engine) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 1
}

// CanRedo reports whether an undone step can be reapplied.
func (h *Engine) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// UndoStackSize returns the number of undo entries, the current one
// included.
func (h *Engine) UndoStackSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoStackSize returns the number of redo entries.
func (h *Engine) RedoStackSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// ClearHistory empties both stacks and reseeds with a fresh snapshot of the
// live scene.
func (h *Engine) ClearHistory() error {
	snap, err := h.eng.Serialize()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.undo = []Entry{{Snapshot: snap, TS: time.Now()}}
	h.redo = nil
	h.mu.Unlock()

	h.bus.EmitHistoryChanged(event.HistoryState{})
	return nil
}

// Enable resumes mutation-triggered auto-saves.
func (h *Engine) Enable() {
	h.mu.Lock()
	h.enabled = true
	h.mu.Unlock()
}

// Disable pauses mutation-triggered auto-saves. Manual Undo/Redo stay
// available.
func (h *Engine) Disable() {
	h.mu.Lock()
	h.enabled = false
	h.mu.Unlock()
}

// IsEnabled reports whether auto-save is active.
func (h *Engine) IsEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// Destroy clears history, disables tracking and detaches from the bus.
func (h *Engine) Destroy() {
	for _, s := range h.subs {
		s.Unsubscribe()
	}
	h.subs = nil
	h.mu.Lock()
	h.undo = nil
	h.redo = nil
	h.enabled = false
	h.mu.Unlock()
}

func (h *Engine) stateLocked() event.HistoryState {
	return event.HistoryState{CanUndo: len(h.undo) > 1, CanRedo: len(h.redo) > 0}
}
