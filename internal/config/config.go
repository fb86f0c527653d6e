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
// It covers how the app runs (refresh cadence, logging, where settings.txt lives);
// what is tracked is described by settings.txt and the tasks file.
// Environment variables are read-only overrides applied at load time.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	SettingsFile   string `yaml:"settings_file"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	BarMaxLength   int    `yaml:"bar_max_length"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	WatchLog       bool   `yaml:"watch_log"`
	// ReportFont is a TTF used for PDF reports; task names outside cp1252 need one.
	ReportFont string `yaml:"report_font"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General: GeneralConfig{
			SettingsFile:   "settings.txt",
			RefreshSeconds: 5,
			BarMaxLength:   200,
			Theme:          "system",
			WatchLog:       true,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// RefreshInterval returns the periodic refresh interval, never below one second.
func (g GeneralConfig) RefreshInterval() time.Duration {
	if g.RefreshSeconds < 1 {
		return time.Second
	}
	return time.Duration(g.RefreshSeconds) * time.Second
}

// Env var names used as overrides.
const (
	EnvConfigDir      = "DAYTRACK_CONFIG_DIR"
	EnvSettingsFile   = "DAYTRACK_SETTINGS"
	EnvRefreshSeconds = "DAYTRACK_REFRESH_SECONDS"
	EnvBarMaxLength   = "DAYTRACK_BAR_MAX_LENGTH"
	EnvTheme          = "DAYTRACK_THEME"
	EnvWatchLog       = "DAYTRACK_WATCH_LOG"
	EnvReportFont     = "DAYTRACK_REPORT_FONT"
	EnvLogLevel       = "DAYTRACK_LOG_LEVEL"
	EnvLogFormat      = "DAYTRACK_LOG_FORMAT"
	EnvLogSource      = "DAYTRACK_LOG_SOURCE"
	EnvLogFile        = "DAYTRACK_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Daytrack")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Daytrack")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "daytrack")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "daytrack")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A config file that fails to parse is reported as an error together with the defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Fields missing from the file keep their defaults; WatchLog defaults to true.
		fileCfg := Defaults()
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			applyEnvOverrides(&cfg)
			return cfg, &ParseError{Path: path, Err: uerr}
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, err
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

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return e.Path + ":" + strconv.Itoa(e.Line) + ": " + e.Err.Error()
	}
	return e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.General.SettingsFile); v != "" {
		dst.General.SettingsFile = v
	}
	if src.General.RefreshSeconds > 0 {
		dst.General.RefreshSeconds = src.General.RefreshSeconds
	}
	if src.General.BarMaxLength > 0 {
		dst.General.BarMaxLength = src.General.BarMaxLength
	}
	if v := strings.TrimSpace(src.General.Theme); v != "" {
		dst.General.Theme = strings.ToLower(v)
	}
	dst.General.WatchLog = src.General.WatchLog
	if v := strings.TrimSpace(src.General.ReportFont); v != "" {
		dst.General.ReportFont = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSettingsFile)); v != "" {
		cfg.General.SettingsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRefreshSeconds)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.RefreshSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBarMaxLength)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.BarMaxLength = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := os.Getenv(EnvWatchLog); v != "" {
		cfg.General.WatchLog = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvReportFont)); v != "" {
		cfg.General.ReportFont = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogSource); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "general.settings_file":
		name = EnvSettingsFile
	case "general.refresh_seconds":
		name = EnvRefreshSeconds
	case "general.bar_max_length":
		name = EnvBarMaxLength
	case "general.theme":
		name = EnvTheme
	case "general.watch_log":
		name = EnvWatchLog
	case "general.report_font":
		name = EnvReportFont
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.source":
		name = EnvLogSource
	case "logging.file":
		name = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
