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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal, which keeps old binaries tolerant of newer files.

type HistoryConfig struct {
	MaxSize int `yaml:"max_size"`
}

type InputConfig struct {
	ArrowKeyDistance float64 `yaml:"arrow_key_distance"`
	TouchPanMaxJump  float64 `yaml:"touch_pan_max_jump"`
	SystemClipboard  bool    `yaml:"system_clipboard"`
}

type EventsConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type AutosaveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means a file next to the config
	Keep    int    `yaml:"keep"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	History       HistoryConfig  `yaml:"history"`
	Input         InputConfig    `yaml:"input"`
	Events        EventsConfig   `yaml:"events"`
	Autosave      AutosaveConfig `yaml:"autosave"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		History:       HistoryConfig{MaxSize: 50},
		Input:         InputConfig{ArrowKeyDistance: 5, TouchPanMaxJump: 200, SystemClipboard: false},
		Events:        EventsConfig{DebounceMs: 1000},
		Autosave:      AutosaveConfig{Enabled: false, Path: "", Keep: 20},
		Logging:       LoggingConfig{Level: "info", Format: "console", File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvHistoryMaxSize  = "DWB_HISTORY_MAX_SIZE"
	EnvArrowDistance   = "DWB_ARROW_KEY_DISTANCE"
	EnvTouchMaxJump    = "DWB_TOUCH_PAN_MAX_JUMP"
	EnvSystemClipboard = "DWB_SYSTEM_CLIPBOARD"
	EnvDebounceMs      = "DWB_DEBOUNCE_MS"
	EnvAutosaveEnabled = "DWB_AUTOSAVE"
	EnvAutosavePath    = "DWB_AUTOSAVE_PATH"
	EnvAutosaveKeep    = "DWB_AUTOSAVE_KEEP"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "DWB_LOG_LEVEL"
	EnvLogFormat = "DWB_LOG_FORMAT"
	EnvLogFile   = "DWB_LOG_FILE"
)

// Debounce returns the aggregate-change quiet window as a duration.
func (e EventsConfig) Debounce() time.Duration {
	if e.DebounceMs <= 0 {
		return time.Duration(Defaults().Events.DebounceMs) * time.Millisecond
	}
	return time.Duration(e.DebounceMs) * time.Millisecond
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DrawBoard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DrawBoard")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "drawboard")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// AutosavePath resolves the autosave database location: the configured
// path when set, otherwise autosave.db next to the config file.
func (a AutosaveConfig) AutosavePath() (string, error) {
	if strings.TrimSpace(a.Path) != "" {
		return a.Path, nil
	}
	cfgPath, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cfgPath), "autosave.db"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.History.MaxSize != 0 {
		dst.History.MaxSize = src.History.MaxSize
	}
	if src.Input.ArrowKeyDistance != 0 {
		dst.Input.ArrowKeyDistance = src.Input.ArrowKeyDistance
	}
	if src.Input.TouchPanMaxJump != 0 {
		dst.Input.TouchPanMaxJump = src.Input.TouchPanMaxJump
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Input.SystemClipboard = src.Input.SystemClipboard
	if src.Events.DebounceMs != 0 {
		dst.Events.DebounceMs = src.Events.DebounceMs
	}
	dst.Autosave.Enabled = src.Autosave.Enabled
	if strings.TrimSpace(src.Autosave.Path) != "" {
		dst.Autosave.Path = strings.TrimSpace(src.Autosave.Path)
	}
	if src.Autosave.Keep != 0 {
		dst.Autosave.Keep = src.Autosave.Keep
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxSize)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.MaxSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvArrowDistance)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Input.ArrowKeyDistance = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTouchMaxJump)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Input.TouchPanMaxJump = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSystemClipboard)); v != "" {
		cfg.Input.SystemClipboard = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Events.DebounceMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveEnabled)); v != "" {
		cfg.Autosave.Enabled = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosavePath)); v != "" {
		cfg.Autosave.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Autosave.Keep = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func isTruthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "history.max_size":
		name = EnvHistoryMaxSize
	case "input.arrow_key_distance":
		name = EnvArrowDistance
	case "input.touch_pan_max_jump":
		name = EnvTouchMaxJump
	case "input.system_clipboard":
		name = EnvSystemClipboard
	case "events.debounce_ms":
		name = EnvDebounceMs
	case "autosave.enabled":
		name = EnvAutosaveEnabled
	case "autosave.path":
		name = EnvAutosavePath
	case "autosave.keep":
		name = EnvAutosaveKeep
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.file":
		name = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}
