/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package event implements the notification bus that decouples scene
// mutation sources from their consumers (history engine, autosave,
// application observers). Channels are typed; delivery is synchronous and
// FIFO per channel; a panicking subscriber never blocks later subscribers.
package event

import (
	"log/slog"
	"sync"
	"time"

	"drawboard/internal/engine"
	applog "drawboard/internal/log"
)

// Config controls bus construction.
type Config struct {
	// Debounce is the trailing-edge window of the aggregate-change channel.
	Debounce time.Duration
}

// DefaultConfig returns the fully-specified defaults.
func DefaultConfig() Config {
	return Config{Debounce: time.Second}
}

// HistoryState is the payload of the history-changed channel.
type HistoryState struct {
	CanUndo bool
	CanRedo bool
}

// Bus is the notification hub. The zero value is not usable; construct with
// New. After Destroy every publish and subscribe is a no-op.
type Bus struct {
	log      *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	closed bool
	timer  *time.Timer

	objectAdded      *channel[engine.Object]
	objectRemoved    *channel[engine.Object]
	objectModified   *channel[engine.Object]
	objectLocked     *channel[engine.Object]
	objectUnlocked   *channel[engine.Object]
	textChanged      *channel[engine.Object]
	selectionChanged *channel[[]engine.Object]
	historyChanged   *channel[HistoryState]
	zoomChanged      *channel[float64]
	preRender        *channel[struct{}]
	aggregate        *channel[struct{}]
}

// New constructs a bus. A non-positive debounce falls back to the default
// window.
func New(cfg Config) *Bus {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	l := applog.WithComponent("event")
	return &Bus{
		log:              l,
		debounce:         cfg.Debounce,
		objectAdded:      newChannel[engine.Object](l, "object-added"),
		objectRemoved:    newChannel[engine.Object](l, "object-removed"),
		objectModified:   newChannel[engine.Object](l, "object-modified"),
		objectLocked:     newChannel[engine.Object](l, "object-locked"),
		objectUnlocked:   newChannel[engine.Object](l, "object-unlocked"),
		textChanged:      newChannel[engine.Object](l, "text-changed"),
		selectionChanged: newChannel[[]engine.Object](l, "selection-changed"),
		historyChanged:   newChannel[HistoryState](l, "history-changed"),
		zoomChanged:      newChannel[float64](l, "zoom-changed"),
		preRender:        newChannel[struct{}](l, "pre-render"),
		aggregate:        newChannel[struct{}](l, "aggregate-change"),
	}
}

// EngineEvent is the inbound sink for raw engine mutation notifications.
// Qualifying kinds also arm the aggregate-change debounce.
func (b *Bus) EngineEvent(ev engine.Event) {
	if b.isClosed() {
		return
	}
	switch ev.Kind {
	case engine.ObjectAdded:
		b.objectAdded.publish(ev.Object)
	case engine.ObjectRemoved:
		b.objectRemoved.publish(ev.Object)
	case engine.ObjectModified:
		b.objectModified.publish(ev.Object)
	case engine.TextChanged:
		b.textChanged.publish(ev.Object)
	default:
		return
	}
	b.touchAggregate()
}

// Subscribe methods, one per channel. Handlers run synchronously on the
// publishing goroutine, in subscription order.

func (b *Bus) OnObjectAdded(fn func(engine.Object)) *Subscription {
	return b.objectAdded.subscribe(fn)
}

func (b *Bus) OnObjectRemoved(fn func(engine.Object)) *Subscription {
	return b.objectRemoved.subscribe(fn)
}

func (b *Bus) OnObjectModified(fn func(engine.Object)) *Subscription {
	return b.objectModified.subscribe(fn)
}

func (b *Bus) OnObjectLocked(fn func(engine.Object)) *Subscription {
	return b.objectLocked.subscribe(fn)
}

func (b *Bus) OnObjectUnlocked(fn func(engine.Object)) *Subscription {
	return b.objectUnlocked.subscribe(fn)
}

func (b *Bus) OnTextChanged(fn func(engine.Object)) *Subscription {
	return b.textChanged.subscribe(fn)
}

func (b *Bus) OnSelectionChanged(fn func([]engine.Object)) *Subscription {
	return b.selectionChanged.subscribe(fn)
}

func (b *Bus) OnHistoryChanged(fn func(HistoryState)) *Subscription {
	return b.historyChanged.subscribe(fn)
}

func (b *Bus) OnZoomChanged(fn func(float64)) *Subscription {
	return b.zoomChanged.subscribe(fn)
}

func (b *Bus) OnPreRender(fn func()) *Subscription {
	return b.preRender.subscribe(func(struct{}) { fn() })
}

// OnAggregateChange subscribes to the debounced aggregate channel: it fires
// at most once per debounce window, after the last qualifying event of a
// burst (trailing edge). Signal-only, no payload.
func (b *Bus) OnAggregateChange(fn func()) *Subscription {
	return b.aggregate.subscribe(func(struct{}) { fn() })
}

// Emission entry points used by collaborating components (these are not raw
// scene events; those arrive through EngineEvent).

func (b *Bus) EmitHistoryChanged(st HistoryState) {
	if b.isClosed() {
		return
	}
	b.historyChanged.publish(st)
}

func (b *Bus) EmitZoomChanged(level float64) {
	if b.isClosed() {
		return
	}
	b.zoomChanged.publish(level)
}

func (b *Bus) EmitSelectionChanged(sel []engine.Object) {
	if b.isClosed() {
		return
	}
	b.selectionChanged.publish(sel)
}

func (b *Bus) EmitPreRender() {
	if b.isClosed() {
		return
	}
	b.preRender.publish(struct{}{})
}

// EmitObjectLocked publishes a lock notification. Locking qualifies for the
// aggregate-change debounce.
func (b *Bus) EmitObjectLocked(o engine.Object) {
	if b.isClosed() {
		return
	}
	b.objectLocked.publish(o)
	b.touchAggregate()
}

func (b *Bus) EmitObjectUnlocked(o engine.Object) {
	if b.isClosed() {
		return
	}
	b.objectUnlocked.publish(o)
	b.touchAggregate()
}

// Destroy stops the debounce timer, drops all subscribers and closes the
// bus. Subsequent publishes and subscriptions are no-ops.
func (b *Bus) Destroy() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	for _, ch := range []interface{ close() }{
		b.objectAdded, b.objectRemoved, b.objectModified,
		b.objectLocked, b.objectUnlocked, b.textChanged,
		b.selectionChanged, b.historyChanged, b.zoomChanged,
		b.preRender, b.aggregate,
	} {
		ch.close()
	}
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// touchAggregate arms or re-arms the trailing-edge debounce timer. A
// continuous burst of qualifying events keeps pushing the deadline out, so
// the aggregate channel fires only after the burst pauses.
func (b *Bus) touchAggregate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.fireAggregate)
		return
	}
	b.timer.Reset(b.debounce)
}

func (b *Bus) fireAggregate() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.mu.Unlock()
	b.aggregate.publish(struct{}{})
}
