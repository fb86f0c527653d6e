/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package domain holds the data model shared by the tracker, the log reader
// and the UI: tasks with daily budgets, start/stop events and computed progress.
package domain

import "time"

// Action is the kind of a day log event.
type Action string

// The on-disk tokens are kept for compatibility with existing day logs.
const (
	ActionStart Action = "开始"
	ActionStop  Action = "结束"
)

// ParseAction maps an on-disk token (or its English alias) to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case string(ActionStart), "start":
		return ActionStart, true
	case string(ActionStop), "stop":
		return ActionStop, true
	}
	return "", false
}

// String returns the English name of the action, for display and logs.
func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	}
	return string(a)
}

// Task is a named daily activity with a budget in minutes.
type Task struct {
	Name    string `json:"name" yaml:"name"`
	Minutes int    `json:"minutes" yaml:"minutes"`
}

// Budget returns the task budget as a duration.
func (t Task) Budget() time.Duration { return time.Duration(t.Minutes) * time.Minute }

// Plan is the ordered list of tasks for a day.
type Plan struct {
	Tasks        []Task
	TotalMinutes int
}

// NewPlan builds a plan and sums its budgets.
func NewPlan(tasks []Task) Plan {
	p := Plan{Tasks: tasks}
	for _, t := range tasks {
		p.TotalMinutes += t.Minutes
	}
	return p
}

// Find returns the task with the given name.
func (p Plan) Find(name string) (Task, bool) {
	for _, t := range p.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// Event is one line of a day log.
type Event struct {
	Task   string
	At     time.Time
	Action Action
}

// TaskProgress is the computed state of one task at a point in time.
type TaskProgress struct {
	Task    Task
	Elapsed time.Duration // clamped to [0, budget]
	Running bool
	Since   time.Time // start of the open interval when Running
}

// Fraction returns elapsed/budget in [0, 1].
func (tp TaskProgress) Fraction() float64 {
	if tp.Task.Minutes <= 0 {
		return 0
	}
	f := tp.Elapsed.Minutes() / float64(tp.Task.Minutes)
	if f > 1 {
		return 1
	}
	return f
}

// Done reports whether the budget has been fully spent.
func (tp TaskProgress) Done() bool { return tp.Task.Minutes > 0 && tp.Elapsed >= tp.Task.Budget() }
