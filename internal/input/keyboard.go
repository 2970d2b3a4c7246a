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
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	sysclip "github.com/atotto/clipboard"

	"drawboard/internal/engine"
)

// Key identifies a keyboard key. Named keys use the constants below; letter
// keys are their character, matched case-insensitively.
type Key string

const (
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyDelete     Key = "Delete"
	KeyBackspace  Key = "Backspace"
	KeySpace      Key = "Space"
)

// KeyEvent is a platform-neutral key press. Ctrl and Meta are both
// accepted as the platform command modifier.
type KeyEvent struct {
	Key   Key
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (ev KeyEvent) commandModifier() bool { return ev.Ctrl || ev.Meta }

// HandleKeyDown dispatches one key press. The return value reports whether
// the event was consumed; the host adapter maps it to prevent-default.
// Non-matching keys, and arrow keys with a locked or absent selection, are
// not consumed.
func (d *Dispatcher) HandleKeyDown(ev KeyEvent) bool {
	d.mu.Lock()
	if ev.Key == KeySpace && d.spacebarOn {
		d.spaceHeld = true
	}
	enabled := d.keyboardOn
	d.mu.Unlock()
	if !enabled {
		return false
	}

	switch ev.Key {
	case KeyArrowUp:
		return d.moveActive(0, -1)
	case KeyArrowDown:
		return d.moveActive(0, 1)
	case KeyArrowLeft:
		return d.moveActive(-1, 0)
	case KeyArrowRight:
		return d.moveActive(1, 0)
	case KeyDelete, KeyBackspace:
		return d.deleteSelection()
	}

	if !ev.commandModifier() {
		return false
	}
	switch strings.ToLower(string(ev.Key)) {
	case "c":
		d.copySelection()
		return true
	case "v":
		if err := d.Paste(context.Background()); err != nil {
			d.log.Error("paste failed", slog.Any("err", err))
		}
		return true
	case "z":
		d.mu.Lock()
		fn := d.undoFn
		if ev.Shift {
			fn = d.redoFn
		}
		d.mu.Unlock()
		if fn == nil {
			d.log.Debug("undo/redo ignored: no callback registered", slog.Bool("shift", ev.Shift))
			return true
		}
		fn()
		return true
	}
	return false
}

// HandleKeyUp tracks spacebar release, ending a spacebar pan session.
func (d *Dispatcher) HandleKeyUp(ev KeyEvent) {
	if ev.Key != KeySpace {
		return
	}
	d.mu.Lock()
	d.spaceHeld = false
	d.spaceSession.reset()
	d.mu.Unlock()
}

// mirrorToSystemClipboard writes the copied objects to the OS clipboard as
// a JSON payload. Best effort: failures are logged, never surfaced.
func (d *Dispatcher) mirrorToSystemClipboard(objs []engine.Object) {
	payload, err := json.Marshal(objs)
	if err != nil {
		d.log.Debug("clipboard mirror marshal failed", slog.Any("err", err))
		return
	}
	if err := sysclip.WriteAll(string(payload)); err != nil {
		d.log.Debug("clipboard mirror write failed", slog.Any("err", err))
	}
}
