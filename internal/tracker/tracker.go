/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tracker is the application service behind the window and the CLI.
// It owns the single-instance lock, the task plan and the current day's log,
// and turns button presses into appended start/stop events.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"daytrack/internal/config"
	"daytrack/internal/daylog"
	"daytrack/internal/domain"
	"daytrack/internal/history"
	"daytrack/internal/lock"
	applog "daytrack/internal/log"
	"daytrack/internal/progress"
	"daytrack/internal/tasks"
)

var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrAlreadyRunning = errors.New("task already running")
	ErrNotRunning     = errors.New("task not running")
	ErrReadOnly       = errors.New("tracker opened read-only")
)

// Options tunes Open.
type Options struct {
	BarMaxLength int
	// ReadOnly skips the lock and housekeeping; Start, Stop and Toggle fail.
	ReadOnly bool
	// SkipHousekeeping leaves old day logs untouched on open.
	SkipHousekeeping bool
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// Snapshot is the state rendered by the UI and the status command.
type Snapshot struct {
	At           time.Time
	Day          string
	Tasks        []domain.TaskProgress
	Total        float64
	TotalMinutes int
	Bars         map[string]int
}

// Tracker is safe for concurrent use.
type Tracker struct {
	settings config.Settings
	opts     Options
	plan     domain.Plan
	bars     map[string]int
	lk       *lock.Lock
	l        *slog.Logger

	mu  sync.Mutex
	log daylog.Log
	day time.Time
}

// Open takes the lock, loads the plan, archives old day logs and reads today's log.
// With another instance running it fails with lock.ErrLocked.
func Open(s config.Settings, opts Options) (*Tracker, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &Tracker{settings: s, opts: opts, l: applog.WithComponent("tracker")}

	if !opts.ReadOnly {
		lk, err := lock.Acquire(s.LockFile)
		if err != nil {
			return nil, err
		}
		t.lk = lk
	}
	plan, err := tasks.Load(s.TasksFile)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	t.plan = plan
	t.bars = progress.BarLengths(plan, opts.BarMaxLength)

	if !opts.ReadOnly && !opts.SkipHousekeeping {
		if _, err := t.Housekeep(); err != nil {
			t.l.Warn("history housekeeping incomplete", slog.Any("err", err))
		}
	}
	if err := t.Refresh(); err != nil {
		_ = t.Close()
		return nil, err
	}
	t.l.Info("tracker open",
		slog.Int("tasks", len(plan.Tasks)),
		slog.Int("budget_min", plan.TotalMinutes),
		slog.Bool("read_only", opts.ReadOnly),
	)
	return t, nil
}

// Plan returns the loaded task plan.
func (t *Tracker) Plan() domain.Plan { return t.plan }

// Settings returns the settings the tracker was opened with.
func (t *Tracker) Settings() config.Settings { return t.settings }

// LogPath returns today's day log path.
func (t *Tracker) LogPath() string { return daylog.PathFor(t.settings.DayDir, t.opts.Now()) }

// Refresh rereads the day log for the current date. Crossing midnight switches to the new day's file.
func (t *Tracker) Refresh() error {
	now := t.opts.Now()
	log, err := daylog.Read(daylog.PathFor(t.settings.DayDir, now))
	if err != nil {
		return err
	}
	t.mu.Lock()
	if !sameDay(t.day, now) && !t.day.IsZero() {
		t.l.Info("day rolled over", slog.String("day", now.Format(daylog.DayLayout)))
	}
	t.log = log
	t.day = now
	t.mu.Unlock()
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Snapshot computes progress as of now from the last read log.
func (t *Tracker) Snapshot() Snapshot {
	now := t.opts.Now()
	t.mu.Lock()
	log := t.log
	t.mu.Unlock()
	tps := progress.Compute(t.plan, log, now)
	return Snapshot{
		At:           now,
		Day:          now.Format(daylog.DayLayout),
		Tasks:        tps,
		Total:        progress.Total(tps, t.plan.TotalMinutes),
		TotalMinutes: t.plan.TotalMinutes,
		Bars:         t.bars,
	}
}

// Start appends a start event for name.
func (t *Tracker) Start(name string) error { return t.set(name, domain.ActionStart) }

// Stop appends a stop event for name.
func (t *Tracker) Stop(name string) error { return t.set(name, domain.ActionStop) }

// Toggle stops a running task or starts an idle one, returning the appended action.
func (t *Tracker) Toggle(name string) (domain.Action, error) {
	if err := t.Refresh(); err != nil {
		return "", err
	}
	t.mu.Lock()
	running := t.log.Running(name)
	t.mu.Unlock()
	action := domain.ActionStart
	if running {
		action = domain.ActionStop
	}
	return action, t.set(name, action)
}

func (t *Tracker) set(name string, action domain.Action) error {
	if t.opts.ReadOnly {
		return ErrReadOnly
	}
	if _, ok := t.plan.Find(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	if err := t.Refresh(); err != nil {
		return err
	}
	t.mu.Lock()
	running := t.log.Running(name)
	t.mu.Unlock()
	switch {
	case action == domain.ActionStart && running:
		return fmt.Errorf("%w: %q", ErrAlreadyRunning, name)
	case action == domain.ActionStop && !running:
		return fmt.Errorf("%w: %q", ErrNotRunning, name)
	}

	now := t.opts.Now()
	path := daylog.PathFor(t.settings.DayDir, now)
	if err := daylog.Append(path, name, action, now); err != nil {
		return err
	}
	ctx := applog.WithDay(context.Background(), now.Format(daylog.DayLayout))
	t.l.InfoContext(ctx, "task "+action.String(), slog.String("task", name))
	return t.Refresh()
}

// Housekeep archives and prunes old day logs according to the settings.
func (t *Tracker) Housekeep() (history.Result, error) {
	return history.Manage(t.settings.DayDir, t.settings.HistoryDir, history.Policy{
		CopyAfterDays:   t.settings.HistoryCopyDays,
		DeleteAfterDays: t.settings.HistoryDeleteDays,
	}, t.opts.Now())
}

// Close releases the lock. It is safe to call more than once.
func (t *Tracker) Close() error {
	if t.lk == nil {
		return nil
	}
	return t.lk.Release()
}
