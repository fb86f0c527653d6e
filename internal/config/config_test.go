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
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	for _, k := range []string{EnvSettingsFile, EnvRefreshSeconds, EnvBarMaxLength, EnvTheme, EnvWatchLog, EnvReportFont, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.RefreshSeconds != 5 || cfg.General.BarMaxLength != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg.General)
	}
	if cfg.General.RefreshInterval() != 5*time.Second {
		t.Fatalf("RefreshInterval = %v", cfg.General.RefreshInterval())
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.General.RefreshSeconds = 11
	cfg.General.Theme = "dark"
	cfg.Logging.Level = "debug"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.General.RefreshSeconds != 11 || got.General.Theme != "dark" || got.Logging.Level != "debug" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadReportsMalformedYAML(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("general: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if cfg.General.RefreshSeconds != 5 {
		t.Fatalf("defaults should still be returned: %+v", cfg.General)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRefreshSeconds, "2")
	t.Setenv(EnvBarMaxLength, "not-a-number")
	t.Setenv(EnvWatchLog, "off")
	t.Setenv(EnvLogFormat, "JSON")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.RefreshSeconds != 2 {
		t.Fatalf("RefreshSeconds = %d, want 2", cfg.General.RefreshSeconds)
	}
	if cfg.General.BarMaxLength != 200 {
		t.Fatalf("invalid override should be ignored, got %d", cfg.General.BarMaxLength)
	}
	if cfg.General.WatchLog {
		t.Fatalf("WatchLog should be disabled by env")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("Logging.Format = %q", cfg.Logging.Format)
	}
	if name, ok := EnvOverrideFor("general.refresh_seconds"); !ok || name != EnvRefreshSeconds {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("general.theme"); ok {
		t.Fatalf("theme is not overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Logging: LoggingConfig{Level: "DEBUG", Format: "json", Source: true, File: "/tmp/daytrack.log"}}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/daytrack.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	if dst.General.SettingsFile != "settings.txt" {
		t.Fatalf("empty fields must keep defaults: %#v", dst.General)
	}
}

func TestRefreshIntervalFloor(t *testing.T) {
	if got := (GeneralConfig{}).RefreshInterval(); got != time.Second {
		t.Fatalf("RefreshInterval = %v, want 1s", got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("general:\n  theme: dark\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.Theme != "dark" {
		t.Fatalf("theme = %q", cfg.General.Theme)
	}
	if !cfg.General.WatchLog {
		t.Fatalf("watch_log should stay on when the file omits it")
	}
	if cfg.General.RefreshSeconds != 5 || cfg.General.BarMaxLength != 200 {
		t.Fatalf("defaults lost: %+v", cfg.General)
	}
}

func TestLoadExplicitWatchLogFalse(t *testing.T) {
	dir := isolate(t)
	body := "general:\n  watch_log: false\n  report_font: /fonts/noto.ttf\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.WatchLog {
		t.Fatalf("watch_log: false was ignored")
	}
	if cfg.General.ReportFont != "/fonts/noto.ttf" {
		t.Fatalf("report_font = %q", cfg.General.ReportFont)
	}
}

func TestReportFontEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv(EnvReportFont, "/usr/share/fonts/wqy.ttf")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.ReportFont != "/usr/share/fonts/wqy.ttf" {
		t.Fatalf("report_font = %q", cfg.General.ReportFont)
	}
	if name, ok := EnvOverrideFor("general.report_font"); !ok || name != EnvReportFont {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
}
