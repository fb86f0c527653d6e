/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package daylog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "daytrack/internal/log"
)

// debounce coalesces the burst of events an editor produces when saving.
const debounce = 250 * time.Millisecond

// WatchDir calls onChange with the base name of any day file in dir that is
// written, created, renamed or removed. It blocks until ctx is cancelled.
// The directory is created if it does not exist yet.
func WatchDir(ctx context.Context, dir string, onChange func(name string)) error {
	l := applog.WithOperation(applog.WithComponent("daylog"), "watch").With(slog.String("dir", dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create day dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	l.Debug("watching day logs")

	pending := map[string]struct{}{}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, FileExt) || ev.Op == fsnotify.Chmod {
				continue
			}
			if len(pending) == 0 {
				timer.Reset(debounce)
			}
			pending[name] = struct{}{}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watcher error", slog.Any("err", werr))
		case <-timer.C:
			for name := range pending {
				onChange(name)
			}
			clear(pending)
		}
	}
}
