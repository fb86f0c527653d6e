/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func TestAge(t *testing.T) {
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.Local)
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 3, 4, 23, 59, 0, 0, time.Local), 0},
		{time.Date(2025, 3, 5, 12, 0, 0, 0, time.Local), 1},
		{time.Date(2025, 3, 8, 0, 30, 0, 0, time.Local), 4},
		{time.Date(2025, 3, 3, 12, 0, 0, 0, time.Local), -1},
	}
	for _, c := range cases {
		if got := Age(day, c.now); got != c.want {
			t.Errorf("Age(%v) = %d, want %d", c.now, got, c.want)
		}
	}
}

func TestAgeAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}
	cases := []struct {
		name     string
		day, now time.Time
		want     int
	}{
		{"fall back, same evening", time.Date(2025, 11, 2, 0, 0, 0, 0, ny), time.Date(2025, 11, 2, 23, 30, 0, 0, ny), 0},
		{"fall back, next morning", time.Date(2025, 11, 2, 0, 0, 0, 0, ny), time.Date(2025, 11, 3, 0, 10, 0, 0, ny), 1},
		{"spring forward, just after midnight", time.Date(2025, 3, 9, 0, 0, 0, 0, ny), time.Date(2025, 3, 10, 0, 30, 0, 0, ny), 1},
		{"spring forward, same day", time.Date(2025, 3, 9, 0, 0, 0, 0, ny), time.Date(2025, 3, 9, 23, 59, 0, 0, ny), 0},
	}
	for _, c := range cases {
		if got := Age(c.day, c.now); got != c.want {
			t.Errorf("%s: Age = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestManageKeepsTodayOnFallBackEvening(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}
	root := t.TempDir()
	dayDir := filepath.Join(root, "day")
	histDir := filepath.Join(root, "history")
	touch(t, dayDir, "2025_11_02.txt", "today")

	res, err := Manage(dayDir, histDir, Policy{CopyAfterDays: 0, DeleteAfterDays: 3}, time.Date(2025, 11, 2, 23, 30, 0, 0, ny))
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if len(res.Copied) != 0 || exists(filepath.Join(histDir, "2025_11_02.txt")) {
		t.Fatalf("today's log archived early: %+v", res)
	}
}

func TestManageCopiesThenDeletes(t *testing.T) {
	root := t.TempDir()
	dayDir := filepath.Join(root, "day")
	histDir := filepath.Join(root, "history")
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

	touch(t, dayDir, "2025_03_10.txt", "today")
	touch(t, dayDir, "2025_03_09.txt", "yesterday")
	touch(t, dayDir, "2025_03_06.txt", "four days ago")
	touch(t, dayDir, "notes.txt", "keep me")
	touch(t, histDir, "2025_03_06.txt", "already archived")

	res, err := Manage(dayDir, histDir, Policy{CopyAfterDays: 0, DeleteAfterDays: 3}, now)
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if !slices.Equal(res.Copied, []string{"2025_03_09.txt"}) {
		t.Fatalf("Copied = %v", res.Copied)
	}
	if !slices.Equal(res.Deleted, []string{"2025_03_06.txt"}) {
		t.Fatalf("Deleted = %v", res.Deleted)
	}
	if !slices.Equal(res.Skipped, []string{"notes.txt"}) {
		t.Fatalf("Skipped = %v", res.Skipped)
	}
	if exists(filepath.Join(histDir, "2025_03_10.txt")) {
		t.Fatalf("today's log must not be archived")
	}
	if b, _ := os.ReadFile(filepath.Join(histDir, "2025_03_06.txt")); string(b) != "already archived" {
		t.Fatalf("existing archive overwritten: %q", b)
	}
	if exists(filepath.Join(dayDir, "2025_03_06.txt")) || !exists(filepath.Join(dayDir, "2025_03_09.txt")) {
		t.Fatalf("unexpected day dir contents")
	}
}

func TestManageNegativeDisables(t *testing.T) {
	root := t.TempDir()
	dayDir := filepath.Join(root, "day")
	histDir := filepath.Join(root, "history")
	touch(t, dayDir, "2020_01_01.txt", "ancient")

	res, err := Manage(dayDir, histDir, Policy{CopyAfterDays: -1, DeleteAfterDays: -1}, time.Now())
	if err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if len(res.Copied) != 0 || len(res.Deleted) != 0 {
		t.Fatalf("nothing should happen: %+v", res)
	}
	if !exists(filepath.Join(dayDir, "2020_01_01.txt")) {
		t.Fatalf("file removed despite disabled deletion")
	}
}

func TestManageCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	dayDir := filepath.Join(root, "a", "day")
	histDir := filepath.Join(root, "b", "history")
	if _, err := Manage(dayDir, histDir, Policy{CopyAfterDays: 0, DeleteAfterDays: 3}, time.Now()); err != nil {
		t.Fatalf("Manage: %v", err)
	}
	if !exists(dayDir) || !exists(histDir) {
		t.Fatalf("directories not created")
	}
}
