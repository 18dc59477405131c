/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders documents to PDF, PNG and SVG. All three share one
// painter so the drawing order and styling stay identical across formats.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

// ErrUnsupportedFormat is returned by Export for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Options control every exporter. Zero values get defaults.
type Options struct {
	// Margin around the document bounds, in document units.
	Margin float64
	// Scale is pixels per document unit (PNG only).
	Scale float64
	// Background color token; white when empty.
	Background string
	// ShowSelection draws the selection outlines the editor shows.
	ShowSelection bool
	// Title is written into PDF metadata.
	Title string
}

func (o Options) withDefaults() Options {
	if o.Margin <= 0 {
		o.Margin = 20
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Background == "" {
		o.Background = "#ffffff"
	}
	if o.Title == "" {
		o.Title = "Fraction Bars"
	}
	return o
}

var (
	black         = color.RGBA{0, 0, 0, 255}
	white         = color.RGBA{255, 255, 255, 255}
	barSelColor   = color.RGBA{255, 0, 0, 255}
	splitSelColor = color.RGBA{0, 255, 0, 255}
	matSelColor   = color.RGBA{0, 0, 255, 255}
)

const (
	selWidth   = 2
	fontSize   = 12
	mutedAlpha = 0.5
)

// canvas is the drawing surface each format implements. Coordinates are in
// document units already shifted into page space.
type canvas interface {
	fillRect(r geom.Rect, c color.RGBA, alpha float64)
	strokeRect(r geom.Rect, c color.RGBA, width float64)
	text(x, y float64, s string, c color.RGBA)
}

// Bounds returns the page rectangle (document bounds plus margin) a document
// renders into. An empty document yields a small blank page.
func Bounds(doc *model.Document, margin float64) geom.Rect {
	var (
		r     geom.Rect
		found bool
	)
	add := func(o geom.Rect) {
		if !found {
			r, found = o, true
			return
		}
		r = r.Union(o)
	}
	for _, m := range doc.Mats {
		add(m.Rect())
	}
	for _, b := range doc.Bars {
		add(b.Rect())
	}
	if doc.UnitBar != nil {
		add(doc.UnitBar.Rect())
	}
	if !found {
		r = geom.R(0, 0, 100, 100)
	}
	return geom.R(r.X-margin, r.Y-margin, r.W+2*margin, r.H+2*margin)
}

// paint draws mats, then bars, then the unit bar, shifted by -origin.
func paint(doc *model.Document, cv canvas, origin geom.Pt, opt Options) {
	shift := func(r geom.Rect) geom.Rect { return r.Translate(-origin.X, -origin.Y) }
	for _, m := range doc.Mats {
		r := shift(m.Rect())
		cv.fillRect(r, fill(m.Color, white, 0), 1)
		if opt.ShowSelection && m.Selected {
			cv.strokeRect(r, matSelColor, selWidth)
		}
	}
	for _, b := range doc.Bars {
		paintBar(cv, b, shift, opt)
	}
	if doc.UnitBar != nil {
		paintBar(cv, doc.UnitBar, shift, opt)
	}
}

func paintBar(cv canvas, b *model.Bar, shift func(geom.Rect) geom.Rect, opt Options) {
	alpha := 1.0
	if b.Muted {
		alpha = mutedAlpha
	}
	r := shift(b.Rect())
	cv.fillRect(r, fill(b.Color, black, b.Shade), alpha)
	if b.Cycle != nil {
		cr := b.Cycle.Rect(b.W, b.H).Translate(r.X, r.Y)
		cv.fillRect(cr, fill(b.Color, black, b.Shade+1), alpha)
	}
	if opt.ShowSelection && b.Selected {
		cv.strokeRect(r, barSelColor, selWidth)
	}
	for _, s := range b.Splits {
		sr := s.Rect().Translate(r.X, r.Y)
		cv.fillRect(sr, fill(s.Color, black, s.Shade), alpha)
		if opt.ShowSelection && s.Selected {
			cv.strokeRect(sr, splitSelColor, selWidth)
		}
	}
	if b.Label != "" {
		cv.text(r.X+5, r.Y+15, b.Label, black)
	}
	if b.Fraction != "" {
		cv.text(r.X+r.W-30, r.Y+r.H-5, b.Fraction, black)
	}
}

// Export writes doc to path, picking the format from the file extension.
func Export(doc *model.Document, path string, opt Options) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ExportPDF(doc, path, opt)
	case ".png":
		return ExportPNG(doc, path, opt)
	case ".svg":
		return ExportSVG(doc, path, opt)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
