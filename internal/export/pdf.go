/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

// pdfCanvas draws with vector primitives. Units are points, one per document unit.
type pdfCanvas struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (c *pdfCanvas) fillRect(r geom.Rect, col color.RGBA, alpha float64) {
	if alpha < 1 {
		c.pdf.SetAlpha(alpha, "Normal")
		defer c.pdf.SetAlpha(1, "Normal")
	}
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
	c.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
}

func (c *pdfCanvas) strokeRect(r geom.Rect, col color.RGBA, width float64) {
	c.pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
	c.pdf.SetLineWidth(width)
	c.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
}

func (c *pdfCanvas) text(x, y float64, s string, col color.RGBA) {
	c.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
	c.pdf.Text(x, y, c.tr(s))
}

func newPDF(doc *model.Document, opt Options) *gofpdf.Fpdf {
	opt = opt.withDefaults()
	page := Bounds(doc, opt.Margin)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: page.W, Ht: page.H},
	})
	pdf.SetTitle(opt.Title, true)
	pdf.SetCreator("fractionbars", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", fontSize)

	cv := &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	bg := fill(opt.Background, white, 0)
	cv.fillRect(geom.R(0, 0, page.W, page.H), bg, 1)
	paint(doc, cv, page.Min(), opt)
	return pdf
}

// WritePDF renders doc as a single-page PDF to w.
func WritePDF(doc *model.Document, w io.Writer, opt Options) error {
	pdf := newPDF(doc, opt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF renders doc as a single-page PDF file at path.
func ExportPDF(doc *model.Document, path string, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	pdf := newPDF(doc, opt)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
