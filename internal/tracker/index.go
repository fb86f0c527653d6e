/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daytrack/internal/config"
	"daytrack/internal/storage"
)

// OpenIndex opens the SQLite index under the history directory and refreshes
// it from both the day and the history directories. The caller closes the DB.
func OpenIndex(ctx context.Context, s config.Settings) (*sql.DB, []storage.ImportResult, error) {
	db, err := storage.InitOrOpenIndex(s.HistoryDir)
	if err != nil {
		return nil, nil, err
	}
	res, err := storage.Rebuild(ctx, db, s.HistoryDir, s.DayDir)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("rebuild index: %w", err)
	}
	return db, res, nil
}

// Totals returns per-day, per-task minutes for the inclusive day range.
// Zero times select everything.
func Totals(ctx context.Context, s config.Settings, from, to time.Time) ([]storage.DayTotal, error) {
	db, _, err := OpenIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	lo, hi := "0000_00_00", "9999_99_99"
	if !from.IsZero() {
		lo = from.Format("2006_01_02")
	}
	if !to.IsZero() {
		hi = to.Format("2006_01_02")
	}
	return storage.DailyTotals(ctx, db, lo, hi)
}
