/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadText(t *testing.T) {
	p := write(t, "tasks.txt", "\xef\xbb\xbfread,30\n\n 写作 , 90 \ncode,120\n")
	plan, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(plan.Tasks) != 3 || plan.TotalMinutes != 240 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if plan.Tasks[1].Name != "写作" || plan.Tasks[1].Minutes != 90 {
		t.Fatalf("unexpected second task: %+v", plan.Tasks[1])
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	plan, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(plan.Tasks) != 0 || plan.TotalMinutes != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestLoadTextErrors(t *testing.T) {
	cases := map[string]string{
		"missing minutes": "read\n",
		"not a number":    "read,lots\n",
		"zero":            "read,0\n",
		"too many fields": "read,30,extra\n",
		"empty name":      " ,30\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, "tasks.txt", "ok,10\n"+content))
			var le *LineError
			if !errors.As(err, &le) {
				t.Fatalf("expected LineError, got %v", err)
			}
			if le.Line != 2 {
				t.Fatalf("Line = %d, want 2", le.Line)
			}
		})
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	_, err := Load(write(t, "tasks.txt", "read,10\nread,20\n"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	p := write(t, "tasks.yaml", "- name: read\n  minutes: 30\n- name: code\n  minutes: 60\n")
	plan, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if plan.TotalMinutes != 90 || plan.Tasks[1].Name != "code" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if _, err := Load(write(t, "bad.yml", "- name: a,b\n  minutes: 5\n")); err == nil {
		t.Fatalf("expected error for comma in name")
	}
}

func TestLoadJSONValidatesSchema(t *testing.T) {
	p := write(t, "tasks.json", `[{"name":"read","minutes":25},{"name":"walk","minutes":35}]`)
	plan, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if plan.TotalMinutes != 60 {
		t.Fatalf("TotalMinutes = %d", plan.TotalMinutes)
	}

	_, err = Load(write(t, "bad.json", `[{"name":"read","minutes":0,"colour":"gold"}]`))
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got %v", err)
	}
}
