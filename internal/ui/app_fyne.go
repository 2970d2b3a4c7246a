//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"drawboard/internal/board"
	"drawboard/internal/config"
	"drawboard/internal/crash"
	"drawboard/internal/engine"
	"drawboard/internal/event"
	"drawboard/internal/input"
	applog "drawboard/internal/log"
	"drawboard/internal/scene"
	"drawboard/internal/store"
)

// Run starts the Fyne-based desktop board.
func Run() error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("error", err))
		cfg = config.Defaults()
	}

	eng := scene.New()
	b, err := board.New(eng, cfg)
	if err != nil {
		return fmt.Errorf("assemble board: %w", err)
	}
	defer func() { _ = b.Close() }()
	defer crash.Recover(eng, b.Autosave())

	if cfg.Autosave.Enabled {
		path, err := cfg.Autosave.AutosavePath()
		if err == nil {
			if st, serr := store.Open(path, cfg.Autosave.Keep); serr == nil {
				b.EnableAutosave(st)
				restoreLatest(l, eng, st)
			} else {
				l.Warn("autosave unavailable", slog.Any("error", serr))
			}
		}
	}

	fyneApp := app.NewWithID("drawboard")
	w := fyneApp.NewWindow("DrawBoard")
	w.Resize(fyne.NewSize(1200, 800))

	status := widget.NewLabel("Ready")
	bc := newBoardCanvas(eng, b.Input)
	eng.OnRender(func() { fyne.Do(bc.Refresh) })

	b.Bus.OnHistoryChanged(func(st event.HistoryState) {
		fyne.Do(func() {
			status.SetText(fmt.Sprintf("undo: %v  redo: %v", st.CanUndo, st.CanRedo))
		})
	})
	b.Bus.OnZoomChanged(func(level float64) {
		fyne.Do(func() {
			status.SetText(fmt.Sprintf("zoom %.0f%%", level*100))
		})
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			eng.Add(scene.NewRect(60, 60, 120, 80, "#4a90d9"))
		}),
		widget.NewToolbarAction(theme.RadioButtonIcon(), func() {
			eng.Add(scene.NewEllipse(120, 120, 90, 90, "#d94a4a"))
		}),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			eng.Add(scene.NewText(80, 200, "text"))
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() {
			undoRedo(l, b.History.Undo)
		}),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() {
			undoRedo(l, b.History.Redo)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.VisibilityOffIcon(), func() {
			if o := eng.ActiveObject(); o != nil {
				if o.Locked() {
					b.Unlock(o)
				} else {
					b.Lock(o)
				}
			}
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { b.SetZoom(eng.Zoom() * 1.25) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { b.SetZoom(eng.Zoom() / 1.25) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() {
			sz := bc.Size()
			b.FitToScreen(float64(sz.Width), float64(sz.Height))
		}),
	)

	bindKeys(w, b.Input)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, bc))
	w.ShowAndRun()
	return nil
}

func undoRedo(l *slog.Logger, op func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := op(ctx); err != nil {
		l.Warn("history operation failed", slog.Any("error", err))
	}
}

func restoreLatest(l *slog.Logger, eng engine.Engine, st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := st.Latest(ctx)
	if errors.Is(err, store.ErrNoSnapshots) {
		return
	}
	if err != nil {
		l.Warn("autosave read failed", slog.Any("error", err))
		return
	}
	if err := eng.Restore(ctx, snap); err != nil {
		l.Warn("autosave restore failed", slog.Any("error", err))
	}
}

// bindKeys routes fyne key events into the input dispatcher. Plain keys go
// through the canvas hooks; modifier combinations are registered as
// shortcuts because fyne key events carry no modifier state.
func bindKeys(w fyne.Window, disp *input.Dispatcher) {
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		if k, ok := plainKey(e.Name); ok {
			disp.HandleKeyDown(input.KeyEvent{Key: k})
			if k == input.KeySpace {
				// fyne has no key-up hook on the generic canvas; treat a
				// typed space as a short hold
				disp.HandleKeyUp(input.KeyEvent{Key: k})
			}
		}
	})
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) {
			if e.Name == fyne.KeySpace {
				disp.HandleKeyDown(input.KeyEvent{Key: input.KeySpace})
			}
		})
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) {
			if e.Name == fyne.KeySpace {
				disp.HandleKeyUp(input.KeyEvent{Key: input.KeySpace})
			}
		})
	}
	for key, ch := range map[fyne.KeyName]string{
		fyne.KeyC: "c",
		fyne.KeyV: "v",
		fyne.KeyZ: "z",
	} {
		ch := ch
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
			disp.HandleKeyDown(input.KeyEvent{Key: input.Key(ch), Ctrl: true})
		})
	}
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}, func(fyne.Shortcut) {
		disp.HandleKeyDown(input.KeyEvent{Key: "z", Ctrl: true, Shift: true})
	})
}

func plainKey(name fyne.KeyName) (input.Key, bool) {
	switch name {
	case fyne.KeyUp:
		return input.KeyArrowUp, true
	case fyne.KeyDown:
		return input.KeyArrowDown, true
	case fyne.KeyLeft:
		return input.KeyArrowLeft, true
	case fyne.KeyRight:
		return input.KeyArrowRight, true
	case fyne.KeyDelete:
		return input.KeyDelete, true
	case fyne.KeyBackspace:
		return input.KeyBackspace, true
	case fyne.KeySpace:
		return input.KeySpace, true
	}
	return "", false
}

// boardCanvas paints the scene and feeds pointer gestures to the input
// dispatcher.
type boardCanvas struct {
	widget.BaseWidget
	eng  *scene.Scene
	disp *input.Dispatcher
}

func newBoardCanvas(eng *scene.Scene, disp *input.Dispatcher) *boardCanvas {
	bc := &boardCanvas{eng: eng, disp: disp}
	bc.ExtendBaseWidget(bc)
	return bc
}

func (bc *boardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	return &boardRenderer{bc: bc, bg: bg}
}

func (bc *boardCanvas) MouseDown(*desktop.MouseEvent) { bc.disp.HandlePointerDown() }
func (bc *boardCanvas) MouseUp(*desktop.MouseEvent)   { bc.disp.HandlePointerUp() }

func (bc *boardCanvas) Dragged(e *fyne.DragEvent) {
	bc.disp.HandlePointerMove(float64(e.Dragged.DX), float64(e.Dragged.DY))
}

func (bc *boardCanvas) DragEnd() { bc.disp.HandlePointerUp() }

func (bc *boardCanvas) Scrolled(e *fyne.ScrollEvent) {
	bc.disp.HandleWheel(float64(e.Scrolled.DX), float64(e.Scrolled.DY))
}

func (bc *boardCanvas) Tapped(e *fyne.PointEvent) {
	vp := bc.eng.Viewport()
	x := (float64(e.Position.X) - vp.TranslateX()) / nonZero(vp.ScaleX())
	y := (float64(e.Position.Y) - vp.TranslateY()) / nonZero(vp.ScaleY())
	for _, o := range bc.eng.SceneObjects() {
		left, top := o.Position()
		wd, ht := o.Size()
		if x >= left && x <= left+wd && y >= top && y <= top+ht {
			bc.eng.SetSelection([]engine.Object{o})
			bc.Refresh()
			return
		}
	}
	bc.eng.ClearSelection()
	bc.Refresh()
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

type boardRenderer struct {
	bc   *boardCanvas
	bg   *canvas.Rectangle
	objs []fyne.CanvasObject
}

func (r *boardRenderer) Layout(size fyne.Size) { r.bg.Resize(size) }

func (r *boardRenderer) MinSize() fyne.Size { return fyne.NewSize(800, 600) }

func (r *boardRenderer) Refresh() {
	vp := r.bc.eng.Viewport()
	sx, sy := nonZero(vp.ScaleX()), nonZero(vp.ScaleY())
	active := r.bc.eng.ActiveObject()

	r.objs = r.objs[:0]
	for _, o := range r.bc.eng.SceneObjects() {
		left, top := o.Position()
		wd, ht := o.Size()
		pos := fyne.NewPos(float32(left*sx+vp.TranslateX()), float32(top*sy+vp.TranslateY()))

		var co fyne.CanvasObject
		switch o.Kind() {
		case scene.KindEllipse:
			c := canvas.NewCircle(fillColor(o, active))
			c.Resize(fyne.NewSize(float32(wd*sx), float32(ht*sy)))
			co = c
		case scene.KindText:
			t := canvas.NewText(o.Text(), color.White)
			t.TextSize = float32(16 * sy)
			co = t
		default:
			rect := canvas.NewRectangle(fillColor(o, active))
			rect.Resize(fyne.NewSize(float32(wd*sx), float32(ht*sy)))
			co = rect
		}
		co.Move(pos)
		r.objs = append(r.objs, co)
	}
	canvas.Refresh(r.bc)
}

func fillColor(o, active engine.Object) color.Color {
	if o == active {
		return color.RGBA{R: 0, G: 170, B: 255, A: 255}
	}
	if o.Locked() {
		return color.RGBA{R: 120, G: 120, B: 120, A: 255}
	}
	return color.RGBA{R: 220, G: 220, B: 220, A: 255}
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return append([]fyne.CanvasObject{r.bg}, r.objs...)
}

func (r *boardRenderer) Destroy() {}
