/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

type svgCanvas struct {
	buf  *bytes.Buffer
	werr error
}

func (c *svgCanvas) wf(format string, args ...any) {
	if c.werr != nil {
		return
	}
	_, c.werr = fmt.Fprintf(c.buf, format, args...)
}

func (c *svgCanvas) fillRect(r geom.Rect, col color.RGBA, alpha float64) {
	if alpha < 1 {
		c.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" fill-opacity=\"%g\"/>\n", r.X, r.Y, r.W, r.H, Hex(col), alpha)
		return
	}
	c.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", r.X, r.Y, r.W, r.H, Hex(col))
}

func (c *svgCanvas) strokeRect(r geom.Rect, col color.RGBA, width float64) {
	c.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", r.X, r.Y, r.W, r.H, Hex(col), width)
}

func (c *svgCanvas) text(x, y float64, s string, col color.RGBA) {
	c.wf("  <text x=\"%g\" y=\"%g\" font-family=\"Arial, Helvetica, sans-serif\" font-size=\"%d\" fill=\"%s\">%s</text>\n", x, y, fontSize, Hex(col), escText(s))
}

// WriteSVG renders doc as a standalone SVG document to w.
func WriteSVG(doc *model.Document, w io.Writer, opt Options) error {
	opt = opt.withDefaults()
	page := Bounds(doc, opt.Margin)
	cv := &svgCanvas{buf: &bytes.Buffer{}}
	cv.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	cv.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %g %g\">\n",
		int(math.Ceil(page.W)), int(math.Ceil(page.H)), page.W, page.H)
	cv.wf("  <title>%s</title>\n", escText(opt.Title))
	cv.fillRect(geom.R(0, 0, page.W, page.H), fill(opt.Background, white, 0), 1)
	paint(doc, cv, page.Min(), opt)
	cv.wf("</svg>\n")
	if cv.werr != nil {
		return fmt.Errorf("build svg: %w", cv.werr)
	}
	if _, err := w.Write(cv.buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func ExportSVG(doc *model.Document, path string, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteSVG(doc, &buf, opt); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "\r", "", "\n", " ")

func escText(s string) string { return textEscaper.Replace(s) }
