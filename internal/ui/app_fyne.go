//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"daytrack/internal/crash"
	"daytrack/internal/daylog"
	"daytrack/internal/export"
	"daytrack/internal/lock"
	applog "daytrack/internal/log"
	"daytrack/internal/tracker"
	"daytrack/internal/version"
)

// taskRow holds the widgets of one task line.
type taskRow struct {
	name  string
	bar   *widget.ProgressBar
	label *widget.Label
	btn   *widget.Button
	cell  *fyne.Container
}

func newTaskRow(rv RowView, onToggle func(name string)) *taskRow {
	r := &taskRow{name: rv.Name}
	r.bar = widget.NewProgressBar()
	r.bar.Min = 0
	r.bar.Max = rv.Max
	r.bar.TextFormatter = func() string { return "" }
	r.label = widget.NewLabel(rv.Label)
	r.btn = widget.NewButton(rv.Button, func() { onToggle(r.name) })
	r.cell = container.NewGridWrap(fyne.NewSize(rv.Width, r.bar.MinSize().Height), r.bar)
	return r
}

func (r *taskRow) apply(rv RowView) {
	r.bar.Max = rv.Max
	r.bar.SetValue(rv.Value)
	r.label.SetText(rv.Label)
	if r.btn.Text != rv.Button {
		r.btn.SetText(rv.Button)
	}
	if rv.Running {
		r.btn.Importance = widget.HighImportance
	} else {
		r.btn.Importance = widget.MediumImportance
	}
	r.btn.Refresh()
}

func (r *taskRow) object() fyne.CanvasObject {
	return container.NewHBox(widget.NewLabel(r.name), r.cell, r.label, r.btn)
}

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

func applyTheme(a fyne.App, name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		a.Settings().SetTheme(variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantDark})
	case "light":
		a.Settings().SetTheme(variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantLight})
	}
}

func saveWindowSize(prefs fyne.Preferences, sz fyne.Size) {
	prefs.SetInt("window.width", int(sz.Width))
	prefs.SetInt("window.height", int(sz.Height))
}

// Run opens the tracker and shows the day window until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var guard crash.Guard
	defer guard.Recover()

	tr, err := tracker.Open(opts.Settings, tracker.Options{BarMaxLength: opts.Config.General.BarMaxLength})
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return fmt.Errorf("daytrack is already running (%s): %w", opts.Settings.LockFile, err)
		}
		return err
	}
	guard.Attach(tr)
	defer func() {
		if err := tr.Close(); err != nil {
			l.Error("release lock failed", slog.Any("err", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyneApp := app.NewWithID("daytrack")
	applyTheme(fyneApp, opts.Config.General.Theme)
	w := fyneApp.NewWindow("Day")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 520)
	winH := prefs.IntWithFallback("window.height", 0)
	if winW < 320 {
		winW = 320
	}

	saveSize := func() { saveWindowSize(prefs, w.Canvas().Size()) }

	totalLabel := widget.NewLabel("")
	totalBar := widget.NewProgressBar()
	totalBar.TextFormatter = func() string { return "" }
	status := widget.NewLabel("")

	var rows []*taskRow
	render := func() {
		v := BuildView(tr.Snapshot())
		totalLabel.SetText(v.TotalLabel)
		totalBar.SetValue(v.Total)
		for i, rv := range v.Rows {
			if i < len(rows) {
				rows[i].apply(rv)
			}
		}
	}
	toggle := func(name string) {
		action, err := tr.Toggle(name)
		if err != nil {
			l.Error("toggle failed", slog.String("task", name), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText(fmt.Sprintf("%s: %s at %s", name, action, time.Now().Format("15:04")))
		render()
	}
	// reload rereads the log off the UI thread.
	reload := func() {
		if err := tr.Refresh(); err != nil {
			l.Warn("refresh failed", slog.Any("err", err))
		}
		fyne.Do(render)
	}

	list := container.NewVBox()
	for _, rv := range BuildView(tr.Snapshot()).Rows {
		r := newTaskRow(rv, toggle)
		rows = append(rows, r)
		list.Add(r.object())
	}
	if len(rows) == 0 {
		list.Add(widget.NewLabel(fmt.Sprintf("No tasks defined in %s", opts.Settings.TasksFile)))
	}
	render()

	go func() {
		t := time.NewTicker(tickEvery(opts.Config))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				reload()
			}
		}
	}()
	if opts.Config.General.WatchLog {
		go func() {
			err := daylog.WatchDir(ctx, opts.Settings.DayDir, func(name string) {
				l.Debug("day log changed", slog.String("file", name))
				reload()
			})
			if err != nil {
				l.Warn("day log watch stopped", slog.Any("err", err))
			}
		}()
	}

	exportPDFItem := fyne.NewMenuItem("Export Today as PDF…", func() {
		snap := tr.Snapshot()
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			rep := export.FromSnapshot("Day "+snap.Day, snap)
			if err := export.WritePDF(outPath, rep, pdfOptions(opts.Config)); err != nil {
				dialog.ShowError(err, w)
				return
			}
			l.Info("exported pdf", slog.String("path", outPath))
			dialog.ShowInformation("Export PDF", "Exported to "+outPath, w)
		}, w)
		save.SetFileName(reportName(snap.Day, ".pdf"))
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		save.Show()
	})
	exportCSVItem := fyne.NewMenuItem("Export Today as CSV…", func() {
		snap := tr.Snapshot()
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			werr := export.WriteCSV(uc, export.FromSnapshot("Day "+snap.Day, snap))
			if cerr := uc.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				dialog.ShowError(werr, w)
				return
			}
			dialog.ShowInformation("Export CSV", "Exported to "+uc.URI().Path(), w)
		}, w)
		save.SetFileName(reportName(snap.Day, ".csv"))
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".csv"}))
		save.Show()
	})
	housekeepItem := fyne.NewMenuItem("Run Housekeeping", func() {
		l.Info("menu: housekeeping")
		status.SetText("Housekeeping…")
		go func() {
			res, err := tr.Housekeep()
			var days int
			if err == nil {
				db, imported, ierr := tracker.OpenIndex(ctx, tr.Settings())
				if ierr == nil {
					_ = db.Close()
					days = len(imported)
				}
				err = ierr
			}
			fyne.Do(func() {
				if err != nil {
					status.SetText("")
					dialog.ShowError(err, w)
					return
				}
				msg := fmt.Sprintf("Copied %d, deleted %d day logs. %d days indexed.", len(res.Copied), len(res.Deleted), days)
				status.SetText(msg)
				dialog.ShowInformation("Housekeeping", msg, w)
			})
		}()
	})
	// Window.Close skips the close intercept, so Quit saves the size itself.
	quitItem := fyne.NewMenuItem("Quit", func() {
		saveSize()
		cancel()
		w.Close()
	})
	quitItem.IsQuit = true
	dayMenu := fyne.NewMenu("Day", exportPDFItem, exportCSVItem, fyne.NewMenuItemSeparator(), housekeepItem, fyne.NewMenuItemSeparator(), quitItem)

	aboutItem := fyne.NewMenuItem("About daytrack", func() {
		exe, _ := os.Executable()
		s := tr.Settings()
		info := fmt.Sprintf("daytrack\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s\nTasks: %s\nDay logs: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe, s.TasksFile, s.DayDir)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(dayMenu, fyne.NewMenu("Help", aboutItem)))

	w.SetContent(container.NewBorder(
		container.NewVBox(totalLabel, totalBar, widget.NewSeparator()),
		status, nil, nil,
		container.NewVScroll(list),
	))
	if winH > 0 {
		w.Resize(fyne.NewSize(float32(winW), float32(winH)))
	} else {
		w.Resize(fyne.NewSize(float32(winW), w.Content().MinSize().Height))
	}

	w.SetCloseIntercept(func() {
		saveSize()
		cancel()
		w.Close()
	})

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
