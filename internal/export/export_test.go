/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daytrack/internal/domain"
	"daytrack/internal/storage"
	"daytrack/internal/tracker"
)

func sampleReport() Report {
	plan := domain.NewPlan([]domain.Task{{Name: "read", Minutes: 60}, {Name: "code", Minutes: 120}})
	totals := []storage.DayTotal{
		{Day: "2025_03_05", Task: "read", Minutes: 30},
		{Day: "2025_03_04", Task: "read", Minutes: 75},
		{Day: "2025_03_04", Task: "code", Minutes: 90.5},
		{Day: "2025_03_04", Task: "retired", Minutes: 10},
	}
	return FromTotals("Week 10", totals, plan, time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC))
}

func TestFromTotalsSortsAndAttachesBudgets(t *testing.T) {
	r := sampleReport()
	if len(r.Rows) != 4 {
		t.Fatalf("rows = %d", len(r.Rows))
	}
	first := r.Rows[0]
	if first.Day != "2025_03_04" || first.Task != "code" || first.Budget != 120 {
		t.Fatalf("first row = %+v", first)
	}
	if r.Rows[1].Fraction() != 1 {
		t.Fatalf("read on 03_04 should be capped at 1, got %v", r.Rows[1].Fraction())
	}
	if r.Rows[2].Task != "retired" || r.Rows[2].Budget != 0 || r.Rows[2].Fraction() != 0 {
		t.Fatalf("retired row = %+v", r.Rows[2])
	}
	if r.TotalMinutes() != 205.5 {
		t.Fatalf("TotalMinutes = %v", r.TotalMinutes())
	}
}

func TestFromSnapshot(t *testing.T) {
	snap := tracker.Snapshot{
		At:  time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
		Day: "2025_03_04",
		Tasks: []domain.TaskProgress{
			{Task: domain.Task{Name: "read", Minutes: 60}, Elapsed: 20 * time.Minute},
		},
	}
	r := FromSnapshot("Today", snap)
	if len(r.Rows) != 1 || r.Rows[0].Minutes != 20 || r.Rows[0].Budget != 60 || r.Rows[0].Day != "2025_03_04" {
		t.Fatalf("rows = %+v", r.Rows)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d: %q", len(lines), buf.String())
	}
	if lines[0] != "day,task,minutes,budget" || lines[1] != "2025_03_04,code,90,120" {
		t.Fatalf("unexpected csv: %q", buf.String())
	}
}

func TestWritePDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "week.pdf")
	if err := WritePDF(out, sampleReport(), PDFOptions{}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a PDF, starts with %q", b[:8])
	}
}

func TestWritePDFMissingFont(t *testing.T) {
	out := filepath.Join(t.TempDir(), "week.pdf")
	err := WritePDF(out, sampleReport(), PDFOptions{FontFile: filepath.Join(t.TempDir(), "missing.ttf")})
	if err == nil {
		t.Fatalf("expected error for missing font")
	}
}
