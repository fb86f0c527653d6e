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
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"daytrack/internal/config"
	"daytrack/internal/domain"
	"daytrack/internal/export"
	"daytrack/internal/progress"
	"daytrack/internal/tasks"
	"daytrack/internal/tracker"
	"daytrack/internal/ui"
	"daytrack/internal/version"
)

func runUI(c *cli) error {
	return ui.Run(ui.Options{Settings: c.settings, Config: c.cfg})
}

func uiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the day window (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(c)
		},
	}
}

func statusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print today's progress without taking the lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := c.open(true)
			if err != nil {
				return err
			}
			defer c.close(tr)
			snap := tr.Snapshot()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Day %s\n", snap.Day)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, tp := range snap.Tasks {
				state := ""
				if tp.Running {
					state = "running since " + tp.Since.Format("15:04")
				} else if tp.Done() {
					state = "done"
				}
				_, _ = fmt.Fprintf(tw, "  %s\t%s\t%3d%%\t%s\n", tp.Task.Name, progress.Label(tp), int(tp.Fraction()*100), state)
			}
			_ = tw.Flush()
			_, _ = fmt.Fprintln(out, progress.TotalLabel(snap.Total))
			return nil
		},
	}
}

func actionCmd(c *cli, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <task>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := c.open(false)
			if err != nil {
				return err
			}
			defer c.close(tr)
			name := args[0]
			var action domain.Action
			switch verb {
			case "start":
				action, err = domain.ActionStart, tr.Start(name)
			case "stop":
				action, err = domain.ActionStop, tr.Stop(name)
			default:
				action, err = tr.Toggle(name)
			}
			if err != nil {
				return err
			}
			for _, tp := range tr.Snapshot().Tasks {
				if tp.Task.Name == name {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", name, action, progress.Label(tp))
				}
			}
			return nil
		},
	}
}

func housekeepCmd(c *cli) *cobra.Command {
	var noIndex bool
	cmd := &cobra.Command{
		Use:   "housekeep",
		Short: "Copy old day logs to history, prune the day directory and refresh the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := c.open(false)
			if err != nil {
				return err
			}
			defer c.close(tr)
			res, err := tr.Housekeep()
			out := cmd.OutOrStdout()
			for _, n := range res.Copied {
				_, _ = fmt.Fprintf(out, "copied  %s\n", n)
			}
			for _, n := range res.Deleted {
				_, _ = fmt.Fprintf(out, "deleted %s\n", n)
			}
			if err != nil {
				return err
			}
			if noIndex {
				return nil
			}
			db, imported, err := tracker.OpenIndex(cmd.Context(), c.settings)
			if err != nil {
				return err
			}
			_ = db.Close()
			_, _ = fmt.Fprintf(out, "indexed %d days\n", len(imported))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "skip the history index refresh")
	return cmd
}

// parseDay accepts 2006-01-02 and the day log form 2006_01_02.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if s == "today" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	for _, layout := range []string{"2006-01-02", "2006_01_02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD)", s)
}

func reportCmd(c *cli) *cobra.Command {
	var from, to, pdfPath, csvPath, fontFile string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report minutes per day and task from the history index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := parseDay(from)
			if err != nil {
				return err
			}
			hi, err := parseDay(to)
			if err != nil {
				return err
			}
			if !lo.IsZero() && !hi.IsZero() && hi.Before(lo) {
				return errors.New("--to is before --from")
			}
			plan, err := tasks.Load(c.settings.TasksFile)
			if err != nil {
				return err
			}
			totals, err := tracker.Totals(cmd.Context(), c.settings, lo, hi)
			if err != nil {
				return err
			}
			rep := export.FromTotals(reportTitle(lo, hi), totals, plan, time.Now())
			if fontFile == "" {
				fontFile = c.cfg.General.ReportFont
			}

			if pdfPath != "" {
				if err := export.WritePDF(pdfPath, rep, export.PDFOptions{FontFile: fontFile}); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", pdfPath)
			}
			switch {
			case csvPath != "":
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				werr := export.WriteCSV(f, rep)
				if cerr := f.Close(); werr == nil {
					werr = cerr
				}
				return werr
			case pdfPath == "":
				return export.WriteCSV(cmd.OutOrStdout(), rep)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD or today)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD or today)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write a PDF report to this path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write CSV to this path instead of stdout")
	cmd.Flags().StringVar(&fontFile, "font", "", "TTF font for non-Latin task names in the PDF (default general.report_font)")
	return cmd
}

func reportTitle(lo, hi time.Time) string {
	switch {
	case lo.IsZero() && hi.IsZero():
		return "daytrack report"
	case hi.IsZero():
		return "daytrack report from " + lo.Format("2006-01-02")
	case lo.IsZero():
		return "daytrack report until " + hi.Format("2006-01-02")
	}
	return fmt.Sprintf("daytrack report %s to %s", lo.Format("2006-01-02"), hi.Format("2006-01-02"))
}

func configCmd(c *cli) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, _ := config.ConfigPath()
			if write {
				if err := config.Save(c.cfg); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "saved %s\n", path)
				return nil
			}
			b, err := yaml.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "# %s\n%s", path, b)
			for _, key := range []string{
				"general.settings_file", "general.refresh_seconds", "general.bar_max_length",
				"general.theme", "general.watch_log", "general.report_font", "logging.level", "logging.format",
				"logging.source", "logging.file",
			} {
				if env, ok := config.EnvOverrideFor(key); ok {
					_, _ = fmt.Fprintf(out, "# %s overridden by %s\n", key, env)
				}
			}
			s := c.settings
			_, _ = fmt.Fprintf(out, "# settings: tasks=%s day=%s lock=%s history=%s copy>%d delete>%d\n",
				s.TasksFile, s.DayDir, s.LockFile, s.HistoryDir, s.HistoryCopyDays, s.HistoryDeleteDays)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save the effective configuration to the user config file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "daytrack %s\n", version.String())
			return nil
		},
	}
}
