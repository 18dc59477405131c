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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

// pngCanvas rasterizes onto an RGBA image, scale pixels per document unit.
type pngCanvas struct {
	img   *image.RGBA
	scale float64
}

func (c *pngCanvas) px(r geom.Rect) image.Rectangle {
	x0 := int(math.Round(r.X * c.scale))
	y0 := int(math.Round(r.Y * c.scale))
	x1 := int(math.Round((r.X + r.W) * c.scale))
	y1 := int(math.Round((r.Y + r.H) * c.scale))
	return image.Rect(x0, y0, x1, y1)
}

func (c *pngCanvas) fillRect(r geom.Rect, col color.RGBA, alpha float64) {
	src := color.NRGBA{R: col.R, G: col.G, B: col.B, A: uint8(math.Round(255 * alpha))}
	draw.Draw(c.img, c.px(r), &image.Uniform{C: src}, image.Point{}, draw.Over)
}

// strokeRect draws an inset border of the given width.
func (c *pngCanvas) strokeRect(r geom.Rect, col color.RGBA, width float64) {
	b := c.px(r)
	w := int(math.Max(1, math.Round(width*c.scale)))
	u := &image.Uniform{C: col}
	draw.Draw(c.img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+w), u, image.Point{}, draw.Src)
	draw.Draw(c.img, image.Rect(b.Min.X, b.Max.Y-w, b.Max.X, b.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(c.img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(c.img, image.Rect(b.Max.X-w, b.Min.Y, b.Max.X, b.Max.Y), u, image.Point{}, draw.Src)
}

// text uses the fixed 7x13 face; it does not scale with the image.
func (c *pngCanvas) text(x, y float64, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(x*c.scale)), int(math.Round(y*c.scale))),
	}
	d.DrawString(s)
}

// RenderImage rasterizes doc. The image origin maps to the top-left of Bounds.
func RenderImage(doc *model.Document, opt Options) *image.RGBA {
	opt = opt.withDefaults()
	page := Bounds(doc, opt.Margin)
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(page.W*opt.Scale)), int(math.Ceil(page.H*opt.Scale))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill(opt.Background, white, 0)}, image.Point{}, draw.Src)
	paint(doc, &pngCanvas{img: img, scale: opt.Scale}, page.Min(), opt)
	return img
}

// WritePNG encodes the rendered document to w.
func WritePNG(doc *model.Document, w io.Writer, opt Options) error {
	if err := png.Encode(w, RenderImage(doc, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func ExportPNG(doc *model.Document, path string, opt Options) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := WritePNG(doc, f, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}
