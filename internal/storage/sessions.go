/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"daytrack/internal/daylog"
	"daytrack/internal/domain"
	applog "daytrack/internal/log"
)

// Session is one completed start/stop interval.
type Session struct {
	Day     string
	Task    string
	Start   time.Time
	Stop    time.Time
	Minutes float64
}

// ImportResult describes one imported day file.
type ImportResult struct {
	ID       string
	Day      string
	Sessions int
	Skipped  int
}

// DayTotal is the minutes spent on a task during a day.
type DayTotal struct {
	Day     string
	Task    string
	Minutes float64
}

// SessionsFromLog pairs starts with stops. Intervals still open are left out.
func SessionsFromLog(day string, log daylog.Log) []Session {
	var out []Session
	names := make([]string, 0, len(log))
	for name := range log {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var start *domain.Event
		for i := range log[name] {
			ev := log[name][i]
			switch ev.Action {
			case domain.ActionStart:
				start = &log[name][i]
			case domain.ActionStop:
				if start == nil {
					continue
				}
				mins := ev.At.Sub(start.At).Minutes()
				if mins < 0 {
					mins = 0
				}
				out = append(out, Session{Day: day, Task: name, Start: start.At, Stop: ev.At, Minutes: mins})
				start = nil
			}
		}
	}
	return out
}

const (
	insertImportSQL  = `INSERT INTO imports(id, day, source, imported_at, events, skipped) VALUES (?, ?, ?, ?, ?, ?)`
	deleteDaySQL     = `DELETE FROM imports WHERE day = ?`
	deleteSessionSQL = `DELETE FROM sessions WHERE day = ?`
	insertSessionSQL = `INSERT INTO sessions(day, task, start, stop, minutes, import_id) VALUES (?, ?, ?, ?, ?, ?)`
	dailyTotalsSQL   = `SELECT day, task, SUM(minutes) FROM sessions WHERE day >= ? AND day <= ? GROUP BY day, task ORDER BY day, task`
)

// ImportDay replaces everything indexed for the day of the file at path with
// the sessions it currently contains.
func ImportDay(ctx context.Context, db *sql.DB, path string) (ImportResult, error) {
	name := filepath.Base(path)
	d, ok := daylog.ParseDay(name, time.Local)
	if !ok {
		return ImportResult{}, fmt.Errorf("not a day file: %s", name)
	}
	day := d.Format(daylog.DayLayout)

	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open day log: %w", err)
	}
	log, skipped, perr := daylog.Parse(f, time.Local)
	_ = f.Close()
	if perr != nil {
		return ImportResult{}, fmt.Errorf("parse %s: %w", name, perr)
	}
	sessions := SessionsFromLog(day, log)
	events := 0
	for _, evs := range log {
		events += len(evs)
	}

	res := ImportResult{ID: uuid.NewString(), Day: day, Sessions: len(sessions), Skipped: skipped}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	rollback := func(err error) (ImportResult, error) {
		_ = tx.Rollback()
		return res, err
	}
	if _, err := tx.ExecContext(ctx, deleteSessionSQL, day); err != nil {
		return rollback(fmt.Errorf("clear sessions: %w", err))
	}
	if _, err := tx.ExecContext(ctx, deleteDaySQL, day); err != nil {
		return rollback(fmt.Errorf("clear imports: %w", err))
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, insertImportSQL, res.ID, day, path, now, events, skipped); err != nil {
		return rollback(fmt.Errorf("record import: %w", err))
	}
	for _, s := range sessions {
		if _, err := tx.ExecContext(ctx, insertSessionSQL, s.Day, s.Task, s.Start.Format(daylog.StampLayout), s.Stop.Format(daylog.StampLayout), s.Minutes, res.ID); err != nil {
			return rollback(fmt.Errorf("insert session: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

// Rebuild imports every day file found in dirs. When the same day appears in
// more than one directory the most recently modified file wins.
func Rebuild(ctx context.Context, db *sql.DB, dirs ...string) ([]ImportResult, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "rebuild")
	type candidate struct {
		path string
		mod  time.Time
	}
	best := map[string]candidate{}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		ents, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range ents {
			if e.IsDir() || !strings.HasSuffix(e.Name(), daylog.FileExt) {
				continue
			}
			d, ok := daylog.ParseDay(e.Name(), time.Local)
			if !ok {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			key := d.Format(daylog.DayLayout)
			if c, ok := best[key]; !ok || info.ModTime().After(c.mod) {
				best[key] = candidate{path: filepath.Join(dir, e.Name()), mod: info.ModTime()}
			}
		}
	}
	days := make([]string, 0, len(best))
	for d := range best {
		days = append(days, d)
	}
	sort.Strings(days)

	var out []ImportResult
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := ImportDay(ctx, db, best[d].path)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	l.Info("index rebuilt", slog.Int("days", len(out)))
	return out, nil
}

// DailyTotals returns per-day, per-task minutes for days in [from, to]
// (inclusive, YYYY_MM_DD).
func DailyTotals(ctx context.Context, db *sql.DB, from, to string) ([]DayTotal, error) {
	rows, err := db.QueryContext(ctx, dailyTotalsSQL, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []DayTotal
	for rows.Next() {
		var t DayTotal
		if err := rows.Scan(&t.Day, &t.Task, &t.Minutes); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
