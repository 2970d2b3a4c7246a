/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.History.MaxSize != 50 {
		t.Fatalf("History.MaxSize = %d, want 50", cfg.History.MaxSize)
	}
	if cfg.Input.ArrowKeyDistance != 5 || cfg.Input.TouchPanMaxJump != 200 {
		t.Fatalf("input defaults wrong: %#v", cfg.Input)
	}
	if cfg.Events.Debounce() != time.Second {
		t.Fatalf("Events.Debounce() = %v, want 1s", cfg.Events.Debounce())
	}
}

func TestEnvOverridesHistoryMaxSize(t *testing.T) {
	old := os.Getenv(EnvHistoryMaxSize)
	_ = os.Setenv(EnvHistoryMaxSize, "7")
	t.Cleanup(func() { _ = os.Setenv(EnvHistoryMaxSize, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.History.MaxSize, 7; got != want {
		t.Fatalf("History.MaxSize = %d, want %d", got, want)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	old := os.Getenv(EnvHistoryMaxSize)
	_ = os.Setenv(EnvHistoryMaxSize, "not-a-number")
	t.Cleanup(func() { _ = os.Setenv(EnvHistoryMaxSize, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.History.MaxSize, Defaults().History.MaxSize; got != want {
		t.Fatalf("History.MaxSize = %d, want default %d", got, want)
	}
}

func TestEnvOverridesSystemClipboard(t *testing.T) {
	old := os.Getenv(EnvSystemClipboard)
	_ = os.Setenv(EnvSystemClipboard, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvSystemClipboard, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Input.SystemClipboard {
		t.Fatalf("Input.SystemClipboard expected true from env override")
	}
}

func TestMergeIncludesAutosave(t *testing.T) {
	// Given a file config that enables autosave, mergeInto should carry it through
	dst := Defaults()
	src := Defaults()
	src.Autosave.Enabled = true
	src.Autosave.Path = "/tmp/dwb/autosave.db"
	src.Autosave.Keep = 5
	mergeInto(&dst, &src)
	if !dst.Autosave.Enabled || dst.Autosave.Path != "/tmp/dwb/autosave.db" || dst.Autosave.Keep != 5 {
		t.Fatalf("autosave fields not merged correctly: %#v", dst.Autosave)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.File = "/tmp/dwb.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || dst.Logging.File != "/tmp/dwb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{}
	mergeInto(&dst, &src)
	if dst.History.MaxSize != 50 || dst.Input.ArrowKeyDistance != 5 || dst.Events.DebounceMs != 1000 {
		t.Fatalf("zero-value file config clobbered defaults: %#v", dst)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogFile, "/tmp/dwb.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/dwb.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	old := os.Getenv(EnvDebounceMs)
	_ = os.Setenv(EnvDebounceMs, "250")
	t.Cleanup(func() { _ = os.Setenv(EnvDebounceMs, old) })
	name, ok := EnvOverrideFor("events.debounce_ms")
	if !ok || name != EnvDebounceMs {
		t.Fatalf("EnvOverrideFor = (%q, %v), want (%q, true)", name, ok, EnvDebounceMs)
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}
