/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package daylog reads and appends the per-day event logs.
//
// Each day has its own file named YYYY_MM_DD.txt holding lines of the form
//
//	task,YYYY_MM_DD-HH:MM,action
//
// Files are append-only. Reading is tolerant: malformed lines are skipped and
// repeated starts or unmatched stops are dropped so that every task's events
// alternate start, stop, start, ...
package daylog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"daytrack/internal/domain"
)

const (
	// DayLayout names day files and prefixes archived copies.
	DayLayout = "2006_01_02"
	// StampLayout is the minute-resolution event timestamp.
	StampLayout = "2006_01_02-15:04"
	// FileExt is the extension of day files.
	FileExt = ".txt"
)

// Log holds the normalized events of one day, keyed by task name.
type Log map[string][]domain.Event

// Last returns the most recent kept event for task.
func (l Log) Last(task string) (domain.Event, bool) {
	ev := l[task]
	if len(ev) == 0 {
		return domain.Event{}, false
	}
	return ev[len(ev)-1], true
}

// Running reports whether task has an open start.
func (l Log) Running(task string) bool {
	last, ok := l.Last(task)
	return ok && last.Action == domain.ActionStart
}

// PathFor returns the day file for the calendar day of t.
func PathFor(dayDir string, t time.Time) string {
	return filepath.Join(dayDir, t.Format(DayLayout)+FileExt)
}

// ParseDay extracts the date prefix of a day file name.
func ParseDay(name string, loc *time.Location) (time.Time, bool) {
	if len(name) < len(DayLayout) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DayLayout, name[:len(DayLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Read loads and normalizes the day file at path. A missing file is an empty log.
func Read(path string) (Log, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Log{}, nil
		}
		return nil, fmt.Errorf("open day log: %w", err)
	}
	defer func() { _ = f.Close() }()
	log, _, err := Parse(f, time.Local)
	if err != nil {
		return nil, fmt.Errorf("read day log %s: %w", path, err)
	}
	return log, nil
}

// Parse reads events from r. It returns the normalized log and the number of
// lines that were skipped, either because they were malformed or because they
// broke the start/stop alternation.
func Parse(r io.Reader, loc *time.Location) (Log, int, error) {
	log := Log{}
	skipped := 0
	// A Reader rather than a Scanner: an overlong line is skipped, not fatal.
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")); line != "" {
			if ev, ok := parseLine(line, loc); !ok || !log.accept(ev) {
				skipped++
			}
		}
		if errors.Is(err, io.EOF) {
			return log, skipped, nil
		}
		if err != nil {
			return log, skipped, err
		}
	}
}

func parseLine(line string, loc *time.Location) (domain.Event, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return domain.Event{}, false
	}
	task := strings.TrimSpace(parts[0])
	stamp := strings.TrimSpace(parts[1])
	if task == "" {
		return domain.Event{}, false
	}
	// Seconds, if present, are ignored.
	if len(stamp) > len(StampLayout) {
		stamp = stamp[:len(StampLayout)]
	}
	at, err := time.ParseInLocation(StampLayout, stamp, loc)
	if err != nil {
		return domain.Event{}, false
	}
	action, ok := domain.ParseAction(strings.TrimSpace(parts[2]))
	if !ok {
		return domain.Event{}, false
	}
	return domain.Event{Task: task, At: at, Action: action}, true
}

// accept appends ev when it keeps the task's events alternating.
func (l Log) accept(ev domain.Event) bool {
	running := l.Running(ev.Task)
	switch ev.Action {
	case domain.ActionStart:
		if running {
			return false
		}
	case domain.ActionStop:
		if !running {
			return false
		}
	}
	l[ev.Task] = append(l[ev.Task], ev)
	return true
}

// Format renders ev as a day log line without the trailing newline.
func Format(ev domain.Event) string {
	return ev.Task + "," + ev.At.Format(StampLayout) + "," + string(ev.Action)
}

// Append writes one event line to the day file at path, creating the file and
// its directory if needed. at is truncated to the minute.
func Append(path, task string, action domain.Action, at time.Time) (err error) {
	if strings.TrimSpace(task) == "" || strings.ContainsAny(task, ",\r\n") {
		return fmt.Errorf("invalid task name %q", task)
	}
	if action != domain.ActionStart && action != domain.ActionStop {
		return fmt.Errorf("invalid action %q", action)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create day dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open day log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	ev := domain.Event{Task: task, At: at.Truncate(time.Minute), Action: action}
	if _, err := io.WriteString(f, Format(ev)+"\n"); err != nil {
		return fmt.Errorf("append day log: %w", err)
	}
	return f.Sync()
}
