/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tasks loads the fixed list of daily tasks and their minute budgets.
//
// The canonical format is a text file with one "name,minutes" pair per line.
// Plans may also be written as YAML or JSON lists of {name, minutes}; JSON
// plans are validated against an embedded schema before use.
package tasks

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"daytrack/internal/domain"
)

//go:embed tasks.schema.json
var schemaJSON []byte

// LineError reports a malformed line in a text plan.
type LineError struct {
	Path string
	Line int
	Msg  string
}

func (e *LineError) Error() string { return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg) }

// ErrDuplicate is returned when two tasks share a name.
var ErrDuplicate = errors.New("duplicate task name")

// Load reads the plan at path. A missing file yields an empty plan.
func Load(path string) (domain.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewPlan(nil), nil
		}
		return domain.Plan{}, fmt.Errorf("read tasks: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var list []domain.Task
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		list, err = parseJSON(data)
	case ".yaml", ".yml":
		list, err = parseYAML(data)
	default:
		list, err = parseText(path, data)
	}
	if err != nil {
		return domain.Plan{}, err
	}
	if err := validate(list); err != nil {
		return domain.Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return domain.NewPlan(list), nil
}

func parseText(path string, data []byte) ([]domain.Task, error) {
	var out []domain.Task
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, &LineError{Path: path, Line: n, Msg: fmt.Sprintf("want \"name,minutes\", got %q", line)}
		}
		name := strings.TrimSpace(parts[0])
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, &LineError{Path: path, Line: n, Msg: fmt.Sprintf("minutes must be an integer, got %q", parts[1])}
		}
		if name == "" {
			return nil, &LineError{Path: path, Line: n, Msg: "empty task name"}
		}
		if minutes <= 0 {
			return nil, &LineError{Path: path, Line: n, Msg: fmt.Sprintf("minutes must be positive, got %d", minutes)}
		}
		out = append(out, domain.Task{Name: name, Minutes: minutes})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return out, nil
}

func parseYAML(data []byte) ([]domain.Task, error) {
	var out []domain.Task
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse yaml tasks: %w", err)
	}
	for i, t := range out {
		if strings.TrimSpace(t.Name) == "" || strings.ContainsAny(t.Name, ",\r\n") {
			return nil, fmt.Errorf("task %d: invalid name %q", i+1, t.Name)
		}
		if t.Minutes <= 0 {
			return nil, fmt.Errorf("task %q: minutes must be positive", t.Name)
		}
	}
	return out, nil
}

func parseJSON(data []byte) ([]domain.Task, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate json tasks: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("json tasks do not match schema: %s", strings.Join(msgs, "; "))
	}
	var out []domain.Task
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse json tasks: %w", err)
	}
	return out, nil
}

func validate(list []domain.Task) error {
	seen := make(map[string]struct{}, len(list))
	for _, t := range list {
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicate, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
