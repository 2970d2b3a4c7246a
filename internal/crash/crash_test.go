/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drawboard/internal/scene"
	"drawboard/internal/store"
)

func TestWriteReportCreatesFile(t *testing.T) {
	oldDir := reportDir
	reportDir = t.TempDir()
	defer func() { reportDir = oldDir }()

	path, err := writeReport("boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "DrawBoard Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
	if !strings.Contains(s, "stacktrace") {
		t.Fatalf("stack content missing: %s", s)
	}
}

// TestRecoverPanicWritesReportAndSnapshot ensures Recover handles a panic,
// writes a report, snapshots the board, and does not terminate the test
// process due to the injected exitFn.
func TestRecoverPanicWritesReportAndSnapshot(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r) // drain pipe
	}()

	// Override exitFn to avoid os.Exit during test and to assert it was called
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	oldDir := reportDir
	reportDir = t.TempDir()
	defer func() { reportDir = oldDir }()

	eng := scene.New()
	eng.Add(scene.NewRect(1, 1, 10, 10, "#abc"))
	st, err := store.Open(filepath.Join(t.TempDir(), "autosave.db"), 3)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	func() {
		defer Recover(eng, st)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("exitFn called with %d, want 2", called)
	}
	snap, err := st.Latest(context.Background())
	if err != nil {
		t.Fatalf("crash snapshot missing: %v", err)
	}
	want, err := eng.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(snap) != string(want) {
		t.Fatalf("crash snapshot differs from live scene")
	}
}

func TestRecoverNoPanicIsNoOp(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil, nil)
	}()
	if called {
		t.Fatalf("Recover exited without a panic")
	}
}
