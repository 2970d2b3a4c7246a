/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"drawboard/internal/board"
	"drawboard/internal/config"
	"drawboard/internal/crash"
	"drawboard/internal/engine"
	"drawboard/internal/input"
	applog "drawboard/internal/log"
	"drawboard/internal/scene"
	"drawboard/internal/store"
	"drawboard/internal/ui"
	"drawboard/internal/version"
)

func usage() {
	fmt.Println("DrawBoard — canvas interaction layer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  drawboard version|-v|--version   Show version")
	fmt.Println("  drawboard config                 Print the effective configuration")
	fmt.Println("  drawboard demo                   Run a scripted headless editing session")
	fmt.Println("  drawboard restore <db>           Print the newest autosave snapshot from <db>")
	fmt.Println("  drawboard ui                     Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(nil, nil)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("DrawBoard — canvas interaction layer")
		fmt.Println(version.String())
	case "config":
		cfg, err := config.Load()
		if err != nil {
			l.Error("config load failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		path, _ := config.ConfigPath()
		fmt.Println("Config file:", path)
		fmt.Printf("%+v\n", cfg)
	case "demo":
		if err := runDemo(l); err != nil {
			l.Error("demo failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	case "restore":
		if len(args) < 3 {
			fmt.Println("restore requires <db>")
			usage()
			os.Exit(2)
		}
		if err := printLatest(args[2]); err != nil {
			l.Error("restore failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	case "ui":
		if err := ui.Run(); err != nil {
			l.Error("ui failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

// runDemo exercises the interaction layer without a display: a few
// mutations, keyboard movement, copy/paste and an undo/redo round trip,
// with the resulting snapshots printed along the way.
func runDemo(l *slog.Logger) error {
	cfg := config.Defaults()
	cfg.Events.DebounceMs = 100

	eng := scene.New()
	b, err := board.New(eng, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	r := scene.NewRect(10, 10, 100, 60, "#4a90d9")
	eng.Add(r)
	eng.Add(scene.NewEllipse(200, 40, 80, 80, "#d94a4a"))
	b.Select([]engine.Object{r})

	// nudge the rect right twice, then duplicate it
	b.Input.HandleKeyDown(input.KeyEvent{Key: input.KeyArrowRight})
	b.Input.HandleKeyDown(input.KeyEvent{Key: input.KeyArrowRight})
	b.Input.HandleKeyDown(input.KeyEvent{Key: "c", Ctrl: true})
	b.Input.HandleKeyDown(input.KeyEvent{Key: "v", Ctrl: true})

	snap, err := eng.Serialize()
	if err != nil {
		return err
	}
	fmt.Println("after editing:", string(snap))
	l.Info("demo state", slog.Int("undo-depth", b.History.UndoStackSize()))

	// undo back to the two-object board, then redo once
	b.Input.HandleKeyDown(input.KeyEvent{Key: "z", Ctrl: true})
	b.Input.HandleKeyDown(input.KeyEvent{Key: "z", Ctrl: true, Shift: true})

	snap, err = eng.Serialize()
	if err != nil {
		return err
	}
	fmt.Println("after undo/redo:", string(snap))
	fmt.Printf("canUndo=%v canRedo=%v\n", b.History.CanUndo(), b.History.CanRedo())
	return nil
}

// printLatest opens an autosave database read-only and dumps the newest
// snapshot to stdout.
func printLatest(path string) error {
	st, err := store.Open(path, 0)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := st.Latest(ctx)
	if err != nil {
		return err
	}
	fmt.Println(string(snap))
	return nil
}
