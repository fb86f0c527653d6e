/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history archives and prunes old day logs.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"daytrack/internal/daylog"
	applog "daytrack/internal/log"
	"daytrack/internal/storage"
)

// Policy says when a day log is copied to the history directory and when it
// is removed from the day directory. Ages are in whole days; a negative value
// disables that step.
type Policy struct {
	CopyAfterDays   int
	DeleteAfterDays int
}

// Result lists the files touched by one Manage run.
type Result struct {
	Copied  []string
	Deleted []string
	Skipped []string // names that do not start with a date
}

// Age returns the number of calendar days from day to now. Both dates are
// taken as wall-clock dates, so a DST change does not shift the result.
func Age(day, now time.Time) int {
	return int(dateOnly(now).Sub(dateOnly(day)).Hours()) / 24
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Manage applies p to every day log in dayDir. Both directories are created
// if missing. A file is copied (when not already archived) before it is
// considered for deletion. Errors on individual files are collected and the
// remaining files are still processed.
func Manage(dayDir, historyDir string, p Policy, now time.Time) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("history"), "manage")
	var res Result
	for _, d := range []string{dayDir, historyDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", d, err)
		}
	}
	ents, err := os.ReadDir(dayDir)
	if err != nil {
		return res, fmt.Errorf("read day dir: %w", err)
	}

	var errs []error
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		day, ok := daylog.ParseDay(name, now.Location())
		if !ok {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		age := Age(day, now)
		src := filepath.Join(dayDir, name)

		if p.CopyAfterDays >= 0 && age > p.CopyAfterDays {
			err := storage.CopyFile(src, filepath.Join(historyDir, name), false)
			switch {
			case err == nil:
				res.Copied = append(res.Copied, name)
				l.Info("archived day log", slog.String("file", name), slog.Int("age_days", age))
			case errors.Is(err, storage.ErrExists):
			default:
				errs = append(errs, fmt.Errorf("copy %s: %w", name, err))
				// Keep the only copy when archiving failed.
				continue
			}
		}
		if p.DeleteAfterDays >= 0 && age > p.DeleteAfterDays {
			if err := os.Remove(src); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
				continue
			}
			res.Deleted = append(res.Deleted, name)
			l.Info("removed day log", slog.String("file", name), slog.Int("age_days", age))
		}
	}
	return res, errors.Join(errs...)
}
