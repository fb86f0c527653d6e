/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui renders the day window. The Fyne implementation is compiled with
// -tags fyne; other builds get a stub so CI stays headless.
package ui

import (
	"time"

	"daytrack/internal/config"
	"daytrack/internal/export"
	"daytrack/internal/progress"
	"daytrack/internal/tracker"
)

// Options configures Run.
type Options struct {
	Settings config.Settings
	Config   config.AppConfig
}

// RowView is the rendered state of one task row.
type RowView struct {
	Name    string
	Value   float64 // elapsed minutes
	Max     float64 // budget minutes
	Width   float32 // bar width in pixels
	Label   string
	Button  string
	Running bool
}

// View is the whole window content for one snapshot.
type View struct {
	TotalLabel string
	Total      float64
	Rows       []RowView
}

// BuildView turns a snapshot into widget values.
func BuildView(snap tracker.Snapshot) View {
	v := View{
		TotalLabel: progress.TotalLabel(snap.Total),
		Total:      snap.Total,
		Rows:       make([]RowView, 0, len(snap.Tasks)),
	}
	for _, tp := range snap.Tasks {
		w := snap.Bars[tp.Task.Name]
		if w == 0 {
			w = progress.MinBarLength
		}
		btn := "Start"
		if tp.Running {
			btn = "Stop"
		}
		v.Rows = append(v.Rows, RowView{
			Name:    tp.Task.Name,
			Value:   tp.Elapsed.Minutes(),
			Max:     float64(tp.Task.Minutes),
			Width:   float32(w),
			Label:   progress.Label(tp),
			Button:  btn,
			Running: tp.Running,
		})
	}
	return v
}

// reportName is the default file name for an exported day report.
func reportName(day, ext string) string {
	return "daytrack-" + day + ext
}

// tickEvery never ticks faster than once a second.
func tickEvery(cfg config.AppConfig) time.Duration {
	return cfg.General.RefreshInterval()
}

// pdfOptions uses the configured report font so non-Latin task names render.
func pdfOptions(cfg config.AppConfig) export.PDFOptions {
	return export.PDFOptions{FontFile: cfg.General.ReportFont}
}
