/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package progress turns a day's events into per-task elapsed time.
package progress

import (
	"fmt"
	"time"

	"daytrack/internal/daylog"
	"daytrack/internal/domain"
)

const (
	// DefaultBarLength is the width of the bar for the task with the largest budget.
	DefaultBarLength = 200
	// MinBarLength keeps small budgets visible.
	MinBarLength = 50
)

// Compute returns one TaskProgress per task in plan order. Closed start/stop
// pairs contribute stop-start (never negative); an open start contributes
// now-start and marks the task running. Elapsed is clamped to the budget.
// Events for tasks not in the plan are ignored.
func Compute(plan domain.Plan, log daylog.Log, now time.Time) []domain.TaskProgress {
	out := make([]domain.TaskProgress, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		out = append(out, computeTask(t, log[t.Name], now))
	}
	return out
}

func computeTask(t domain.Task, events []domain.Event, now time.Time) domain.TaskProgress {
	tp := domain.TaskProgress{Task: t}
	var total time.Duration
	var start time.Time
	open := false
	for _, ev := range events {
		switch ev.Action {
		case domain.ActionStart:
			start, open = ev.At, true
		case domain.ActionStop:
			if !open {
				continue
			}
			if d := ev.At.Sub(start); d > 0 {
				total += d
			}
			open = false
		}
	}
	if open {
		if d := now.Sub(start); d > 0 {
			total += d
		}
		tp.Running = true
		tp.Since = start
	}
	if budget := t.Budget(); total > budget {
		total = budget
	}
	tp.Elapsed = total
	return tp
}

// Total returns the share of the day's budget that has been spent, in [0, 1].
// It is 0 when the plan has no budget.
func Total(progress []domain.TaskProgress, totalMinutes int) float64 {
	if totalMinutes <= 0 {
		return 0
	}
	var sum time.Duration
	for _, tp := range progress {
		sum += tp.Elapsed
	}
	f := sum.Minutes() / float64(totalMinutes)
	if f > 1 {
		return 1
	}
	return f
}

// BarLengths scales bar widths so the largest budget gets maxLen and no bar is
// shorter than MinBarLength. An empty plan yields an empty map.
func BarLengths(plan domain.Plan, maxLen int) map[string]int {
	out := make(map[string]int, len(plan.Tasks))
	if len(plan.Tasks) == 0 {
		return out
	}
	if maxLen <= 0 {
		maxLen = DefaultBarLength
	}
	largest := 0
	for _, t := range plan.Tasks {
		if t.Minutes > largest {
			largest = t.Minutes
		}
	}
	for _, t := range plan.Tasks {
		n := MinBarLength
		if largest > 0 {
			if v := int(float64(maxLen) * float64(t.Minutes) / float64(largest)); v > n {
				n = v
			}
		}
		out[t.Name] = n
	}
	return out
}

// Label renders "<elapsed>/<budget> min" with whole minutes.
func Label(tp domain.TaskProgress) string {
	return fmt.Sprintf("%d/%d min", int(tp.Elapsed.Minutes()), tp.Task.Minutes)
}

// TotalLabel renders the overall share as a whole percentage.
func TotalLabel(fraction float64) string {
	return fmt.Sprintf("Total progress: %d%%", int(fraction*100))
}
