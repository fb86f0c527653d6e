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
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export. Units are points.
//
// The built-in Helvetica only covers Latin-1. Task names in other scripts need
// FontFile pointing at a TrueType font with the required glyphs.
type PDFOptions struct {
	FontFile string
	BarWidth float64 // width of the progress bar column, default 160
}

const (
	marginPt  = 40.0
	rowHeight = 18.0
	fontName  = "report"
)

// Column widths: day, task, minutes, budget. The bar column follows.
var colWidths = [4]float64{80, 150, 60, 60}

// WritePDF renders r as an A4 table with one progress bar per row.
func WritePDF(path string, r Report, opt PDFOptions) error {
	if opt.BarWidth <= 0 {
		opt.BarWidth = 160
	}
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginPt, marginPt, marginPt)
	pdf.SetAutoPageBreak(true, marginPt)
	pdf.SetTitle(r.Title, true)
	pdf.SetAuthor("daytrack", false)

	tr := func(s string) string { return s }
	family := fontName
	if opt.FontFile != "" {
		pdf.AddUTF8Font(fontName, "", opt.FontFile)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load font %s: %w", opt.FontFile, err)
		}
	} else {
		family = "Helvetica"
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 24, tr(r.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 14, tr("Generated "+r.Generated.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(family, "", 10)
	pdf.SetFillColor(235, 235, 235)
	headers := []string{"Day", "Task", "Minutes", "Budget"}
	for i, h := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(colWidths[i], rowHeight, h, "B", 0, align, true, 0, "")
	}
	pdf.CellFormat(opt.BarWidth, rowHeight, "Progress", "B", 1, "L", true, 0, "")

	for _, row := range r.Rows {
		pdf.CellFormat(colWidths[0], rowHeight, row.Day, "", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], rowHeight, tr(row.Task), "", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], rowHeight, fmt.Sprintf("%d", int(row.Minutes)), "", 0, "R", false, 0, "")
		budget := "-"
		if row.Budget > 0 {
			budget = fmt.Sprintf("%d", row.Budget)
		}
		pdf.CellFormat(colWidths[3], rowHeight, budget, "", 0, "R", false, 0, "")
		drawBar(pdf, opt.BarWidth, row.Fraction())
		pdf.Ln(rowHeight)
	}

	pdf.Ln(4)
	pdf.CellFormat(colWidths[0]+colWidths[1], rowHeight, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colWidths[2], rowHeight, fmt.Sprintf("%d", int(r.TotalMinutes())), "T", 1, "R", false, 0, "")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// drawBar draws a gold bar on a white trough at the current position.
func drawBar(pdf *gofpdf.Fpdf, width, fraction float64) {
	x, y := pdf.GetXY()
	const pad = 4.0
	h := rowHeight - 2*pad
	pdf.SetDrawColor(180, 180, 180)
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(x+pad, y+pad, width-2*pad, h, "FD")
	if fraction > 0 {
		pdf.SetFillColor(255, 215, 0)
		pdf.Rect(x+pad, y+pad, (width-2*pad)*fraction, h, "F")
	}
	pdf.SetXY(x+width, y)
}
