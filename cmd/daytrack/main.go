/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"daytrack/internal/config"
	"daytrack/internal/crash"
	"daytrack/internal/lock"
	applog "daytrack/internal/log"
	"daytrack/internal/tracker"
	"daytrack/internal/version"
)

// cli carries what every subcommand needs after flag parsing.
type cli struct {
	settingsFlag string
	logLevel     string

	cfg      config.AppConfig
	settings config.Settings
	guard    *crash.Guard
	stderr   io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var guard crash.Guard
	defer guard.Recover()

	c := &cli{guard: &guard, stderr: os.Stderr}
	root := newRootCmd(c)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if errors.Is(err, lock.ErrLocked) {
			_, _ = fmt.Fprintf(c.stderr, "Error: another daytrack instance is running (lock: %s)\n", c.settings.LockFile)
			return 3
		}
		_, _ = fmt.Fprintln(c.stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "daytrack",
		Short:         "Track time spent on a fixed set of daily tasks",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(c)
		},
	}
	root.PersistentFlags().StringVarP(&c.settingsFlag, "settings", "s", "", "path of settings.txt (default from config or ./settings.txt)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(uiCmd(c))
	root.AddCommand(statusCmd(c))
	root.AddCommand(actionCmd(c, "start", "Start a task"))
	root.AddCommand(actionCmd(c, "stop", "Stop a running task"))
	root.AddCommand(actionCmd(c, "toggle", "Start an idle task or stop a running one"))
	root.AddCommand(housekeepCmd(c))
	root.AddCommand(reportCmd(c))
	root.AddCommand(configCmd(c))
	root.AddCommand(versionCmd())
	return root
}

// load reads the user config, sets up logging and parses the settings file.
func (c *cli) load() error {
	cfg, err := config.Load()
	var pe *config.ParseError
	if err != nil && !errors.As(err, &pe) {
		return err
	}
	c.cfg = cfg
	lvl := cfg.Logging.Level
	if c.logLevel != "" {
		lvl = c.logLevel
	}
	applog.Init(applog.Options{
		Level:     lvl,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if pe != nil {
		l.Warn("user config ignored", slog.String("path", pe.Path), slog.Any("err", pe.Err))
	}

	path := strings.TrimSpace(c.settingsFlag)
	if path == "" {
		path = cfg.General.SettingsFile
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		return err
	}
	c.settings = s
	l.Debug("settings loaded", slog.String("path", path), slog.String("day_dir", s.DayDir))
	return nil
}

// open takes the lock unless readOnly and registers the tracker for crash cleanup.
func (c *cli) open(readOnly bool) (*tracker.Tracker, error) {
	tr, err := tracker.Open(c.settings, tracker.Options{
		BarMaxLength: c.cfg.General.BarMaxLength,
		ReadOnly:     readOnly,
	})
	if err != nil {
		return nil, err
	}
	c.guard.Attach(tr)
	return tr, nil
}

func (c *cli) close(tr *tracker.Tracker) {
	c.guard.Attach(nil)
	if err := tr.Close(); err != nil {
		applog.WithComponent("cli").Error("release lock failed", slog.Any("err", err))
	}
}
