/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package board is the composition root of the interaction layer. It wires
// an engine to the notification bus, the history engine and the input
// dispatcher, and exposes the few board-level operations (lock, zoom,
// autosave) that cut across all three.
package board

import (
	"context"
	"log/slog"
	"math"
	"time"

	"drawboard/internal/config"
	"drawboard/internal/engine"
	"drawboard/internal/event"
	"drawboard/internal/history"
	"drawboard/internal/input"
	applog "drawboard/internal/log"
	"drawboard/internal/store"
)

// Board owns the wiring between one engine instance and the interaction
// subsystems. Close tears everything down in reverse dependency order.
type Board struct {
	log *slog.Logger
	eng engine.Engine

	Bus     *event.Bus
	History *history.Engine
	Input   *input.Dispatcher

	st *store.Store
}

// New assembles the interaction layer around eng. History is initialized
// with a baseline snapshot; keyboard shortcuts and all three pan modes are
// enabled; undo/redo shortcuts are bound to the history engine.
func New(eng engine.Engine, cfg config.AppConfig) (*Board, error) {
	bus := event.New(event.Config{Debounce: cfg.Events.Debounce()})
	eng.Observe(bus.EngineEvent)

	hist := history.New(eng, bus, history.Config{MaxSize: cfg.History.MaxSize})
	if err := hist.Initialize(); err != nil {
		bus.Destroy()
		return nil, err
	}

	disp := input.New(eng, input.Config{
		ArrowKeyDistance: cfg.Input.ArrowKeyDistance,
		TouchPanMaxJump:  cfg.Input.TouchPanMaxJump,
		SystemClipboard:  cfg.Input.SystemClipboard,
	})
	disp.EnableKeyboard()
	disp.EnableSpacebarPan()
	disp.EnableWheelPan()
	disp.EnableTouchPan()

	b := &Board{
		log:     applog.WithComponent("board"),
		eng:     eng,
		Bus:     bus,
		History: hist,
		Input:   disp,
	}
	disp.OnUndo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hist.Undo(ctx); err != nil {
			b.log.Warn("undo failed", slog.Any("error", err))
		}
	})
	disp.OnRedo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hist.Redo(ctx); err != nil {
			b.log.Warn("redo failed", slog.Any("error", err))
		}
	})
	return b, nil
}

// Engine returns the wired engine.
func (b *Board) Engine() engine.Engine { return b.eng }

// EnableAutosave attaches a snapshot store to the debounced aggregate
// channel. The board takes ownership and closes the store on Close.
func (b *Board) EnableAutosave(st *store.Store) {
	b.st = st
	st.Attach(b.Bus, b.eng)
}

// Autosave returns the attached store, or nil.
func (b *Board) Autosave() *store.Store { return b.st }

// Lock marks an object immovable and announces it. Locked objects are
// excluded from keyboard movement and copy.
func (b *Board) Lock(o engine.Object) {
	if o == nil || o.Locked() {
		return
	}
	o.SetLocked(true)
	b.eng.FireModified(o)
	b.Bus.EmitObjectLocked(o)
}

// Unlock reverses Lock.
func (b *Board) Unlock(o engine.Object) {
	if o == nil || !o.Locked() {
		return
	}
	o.SetLocked(false)
	b.eng.FireModified(o)
	b.Bus.EmitObjectUnlocked(o)
}

// SetZoom scales the viewport around the origin and announces the new zoom
// level. Non-positive factors are ignored.
func (b *Board) SetZoom(level float64) {
	if level <= 0 {
		b.log.Warn("zoom rejected", slog.Float64("level", level))
		return
	}
	b.eng.SetViewport(b.eng.Viewport().Scaled(level))
	b.eng.RequestRender()
	b.Bus.EmitZoomChanged(level)
}

// FitToScreen scales and translates the viewport so every object is
// visible inside a w by h screen area, with a small margin. An empty board
// resets to the identity viewport.
func (b *Board) FitToScreen(w, h float64) {
	objs := b.eng.Objects()
	if len(objs) == 0 || w <= 0 || h <= 0 {
		b.ResetView()
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, o := range objs {
		left, top := o.Position()
		minX = math.Min(minX, left)
		minY = math.Min(minY, top)
		maxX = math.Max(maxX, left)
		maxY = math.Max(maxY, top)
	}
	const margin = 40
	spanX := maxX - minX + 2*margin
	spanY := maxY - minY + 2*margin
	level := math.Min(w/spanX, h/spanY)
	if level <= 0 || math.IsInf(level, 0) {
		level = 1
	}
	vp := engine.Identity().Scaled(level)
	vp = vp.Translated(-(minX-margin)*level, -(minY-margin)*level)
	b.eng.SetViewport(vp)
	b.eng.RequestRender()
	b.Bus.EmitZoomChanged(level)
}

// ResetView restores the identity viewport.
func (b *Board) ResetView() {
	b.eng.SetViewport(engine.Identity())
	b.eng.RequestRender()
	b.Bus.EmitZoomChanged(1)
}

// Select replaces the selection and announces it.
func (b *Board) Select(objs []engine.Object) {
	b.eng.SetSelection(objs)
	b.Bus.EmitSelectionChanged(b.eng.Selection())
}

// Close tears down the interaction layer: input first so no new shortcuts
// land, then history, then the bus, finally the autosave store.
func (b *Board) Close() error {
	b.Input.Destroy()
	b.History.Destroy()
	b.Bus.Destroy()
	if b.st != nil {
		return b.st.Close()
	}
	return nil
}
