/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes time reports as PDF or CSV.
package export

import (
	"sort"
	"time"

	"daytrack/internal/domain"
	"daytrack/internal/storage"
	"daytrack/internal/tracker"
)

// Row is one task on one day.
type Row struct {
	Day     string
	Task    string
	Minutes float64
	Budget  int // 0 when the task is no longer in the plan
}

// Fraction returns Minutes/Budget capped at 1, or 0 without a budget.
func (r Row) Fraction() float64 {
	if r.Budget <= 0 {
		return 0
	}
	f := r.Minutes / float64(r.Budget)
	if f > 1 {
		return 1
	}
	return f
}

// Report is a titled list of rows.
type Report struct {
	Title     string
	Generated time.Time
	Rows      []Row
}

// TotalMinutes sums all rows.
func (r Report) TotalMinutes() float64 {
	var sum float64
	for _, row := range r.Rows {
		sum += row.Minutes
	}
	return sum
}

// FromTotals builds a report from indexed totals, attaching budgets from plan.
func FromTotals(title string, totals []storage.DayTotal, plan domain.Plan, now time.Time) Report {
	rows := make([]Row, 0, len(totals))
	for _, t := range totals {
		row := Row{Day: t.Day, Task: t.Task, Minutes: t.Minutes}
		if task, ok := plan.Find(t.Task); ok {
			row.Budget = task.Minutes
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return rows[i].Task < rows[j].Task
	})
	return Report{Title: title, Generated: now, Rows: rows}
}

// FromSnapshot builds a one-day report from the live tracker state, in plan order.
func FromSnapshot(title string, snap tracker.Snapshot) Report {
	rows := make([]Row, 0, len(snap.Tasks))
	for _, tp := range snap.Tasks {
		rows = append(rows, Row{
			Day:     snap.Day,
			Task:    tp.Task.Name,
			Minutes: tp.Elapsed.Minutes(),
			Budget:  tp.Task.Minutes,
		})
	}
	return Report{Title: title, Generated: snap.At, Rows: rows}
}
