/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report and a clean shutdown.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "daytrack/internal/log"
	"daytrack/internal/storage"
	"daytrack/internal/tracker"
	"daytrack/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Guard remembers the open tracker so a panic can release its lock and place
// the report next to the user's data.
//
// Usage:
//
//	var g crash.Guard
//	defer g.Recover()
//	g.Attach(tr)
type Guard struct {
	mu sync.Mutex
	tr *tracker.Tracker
}

// Attach registers the tracker to close on panic.
func (g *Guard) Attach(tr *tracker.Tracker) {
	g.mu.Lock()
	g.tr = tr
	g.mu.Unlock()
}

func (g *Guard) current() *tracker.Tracker {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tr
}

// Recover must be deferred directly. It logs the panic with its stack, writes
// a crash report, releases the tracker lock and exits with status 2.
func (g *Guard) Recover() {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	tr := g.current()
	reportPath, err := writeReport(tr, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if tr != nil {
		if err := tr.Close(); err != nil {
			l.Error("release lock failed", slog.Any("err", err))
		}
	}
	_, _ = fmt.Fprintf(os.Stderr, "daytrack crashed. A report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// reportDir is the history directory of the attached tracker, or the temp dir.
func reportDir(tr *tracker.Tracker) string {
	if tr != nil {
		if d := tr.Settings().HistoryDir; d != "" {
			return d
		}
	}
	return os.TempDir()
}

func writeReport(tr *tracker.Tracker, panicVal any, stack []byte) (string, error) {
	dir := reportDir(tr)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = os.TempDir()
	}
	id := uuid.NewString()
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s-%s.log", stamp, id[:8]))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "daytrack crash report\n")
	_, _ = fmt.Fprintf(&buf, "Report: %s\n", id)
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if tr != nil {
		s := tr.Settings()
		_, _ = fmt.Fprintf(&buf, "DayLog: %s\n", tr.LogPath())
		_, _ = fmt.Fprintf(&buf, "Tasks: %s\n", s.TasksFile)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := storage.WriteFileSync(path, buf.Bytes()); err != nil {
		return path, err
	}
	return path, nil
}
