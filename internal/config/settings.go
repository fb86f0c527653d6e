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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings describes where the tracker keeps its files and how long day logs live.
// It is read from a plain "key: value" settings.txt next to the data.
type Settings struct {
	TasksFile  string
	DayDir     string
	LockFile   string
	HistoryDir string
	// HistoryCopyDays copies a day log to HistoryDir once it is older than this many days.
	// Negative disables copying.
	HistoryCopyDays int
	// HistoryDeleteDays removes a day log from DayDir once it is older than this many days.
	// Negative disables deletion.
	HistoryDeleteDays int
}

// Keys recognised in settings.txt.
const (
	KeyTasks         = "tasksdir"
	KeyDay           = "daydir"
	KeyLock          = "lockdir"
	KeyHistory       = "historydir"
	KeyHistoryCopy   = "historycopy"
	KeyHistoryDelete = "historydelete"
)

// DefaultSettings mirrors an empty settings.txt.
func DefaultSettings() Settings {
	return Settings{
		TasksFile:         "tasks.txt",
		DayDir:            "day",
		LockFile:          "lock.txt",
		HistoryDir:        "history",
		HistoryCopyDays:   0,
		HistoryDeleteDays: 3,
	}
}

// LoadSettings parses the settings file at path. A missing file yields the
// defaults. Relative paths are resolved against the directory of path.
// Blank lines, lines without a colon and unknown keys are ignored.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	base := filepath.Dir(path)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.Resolve(base), nil
		}
		return s, fmt.Errorf("open settings: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case KeyTasks:
			s.TasksFile = normalizePath(value)
		case KeyDay:
			s.DayDir = normalizePath(value)
		case KeyLock:
			s.LockFile = normalizePath(value)
		case KeyHistory:
			s.HistoryDir = normalizePath(value)
		case KeyHistoryCopy, KeyHistoryDelete:
			n, err := strconv.Atoi(value)
			if err != nil {
				return s, &ParseError{Path: path, Line: line, Err: fmt.Errorf("%s must be an integer, got %q", key, value)}
			}
			if key == KeyHistoryCopy {
				s.HistoryCopyDays = n
			} else {
				s.HistoryDeleteDays = n
			}
		}
	}
	if err := sc.Err(); err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	return s.Resolve(base), nil
}

// Resolve makes every relative path absolute against base.
func (s Settings) Resolve(base string) Settings {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	s.TasksFile = abs(s.TasksFile)
	s.DayDir = abs(s.DayDir)
	s.LockFile = abs(s.LockFile)
	s.HistoryDir = abs(s.HistoryDir)
	return s
}

// normalizePath accepts Windows-style separators written in settings files.
func normalizePath(p string) string {
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))
}
