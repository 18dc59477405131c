/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import "fractionbars/internal/geom"

// addSplit appends s unless an equal split is already present.
func (b *Bar) addSplit(s Split) {
	for _, o := range b.Splits {
		if o.Equal(s) {
			return
		}
	}
	b.Splits = append(b.Splits, s)
}

// replaceSplit swaps the split at idx for pieces, keeping the other splits in order.
func (b *Bar) replaceSplit(idx int, pieces []Split) {
	rest := b.Splits[idx+1:]
	kept := append([]Split(nil), b.Splits[:idx]...)
	b.Splits = kept
	for _, p := range pieces {
		b.addSplit(p)
	}
	for _, s := range rest {
		b.addSplit(s)
	}
	b.Fraction = ""
}

// FindSplitAt returns the index of the topmost split containing the document
// point p (reverse insertion order, inclusive edges).
func (b *Bar) FindSplitAt(p geom.Pt) (int, bool) {
	for i := len(b.Splits) - 1; i >= 0; i-- {
		s := b.Splits[i]
		if s.Rect().Translate(b.X, b.Y).Contains(p) {
			return i, true
		}
	}
	return -1, false
}

// cut divides r at offset along axis. The two halves tile r exactly.
func cut(r geom.Rect, offset float64, axis Axis, color string) (Split, Split) {
	if axis == Vertical {
		return NewSplit(r.X, r.Y, offset, r.H, color), NewSplit(r.X+offset, r.Y, r.W-offset, r.H, color)
	}
	return NewSplit(r.X, r.Y, r.W, offset, color), NewSplit(r.X, r.Y+offset, r.W, r.H-offset, color)
}

// SplitAt cuts the split under p (or the whole bar when p is in no split) in two
// along axis. It reports false and leaves the bar unchanged when p is outside the
// bar or the cut would produce an empty piece.
func (b *Bar) SplitAt(p geom.Pt, axis Axis) bool {
	if !b.Rect().Contains(p) {
		return false
	}
	idx, ok := b.FindSplitAt(p)
	region := geom.R(0, 0, b.W, b.H)
	color := b.Color
	if ok {
		s := b.Splits[idx]
		region, color = s.Rect(), s.Color
	}
	// offset relative to the region's own origin
	offset := p.Y - (b.Y + region.Y)
	extent := region.H
	if axis == Vertical {
		offset = p.X - (b.X + region.X)
		extent = region.W
	}
	if offset <= 0 || offset >= extent {
		return false
	}
	first, second := cut(region, offset, axis, color)
	if ok {
		b.replaceSplit(idx, []Split{first, second})
		return true
	}
	b.Splits = nil
	b.addSplit(first)
	b.addSplit(second)
	b.Fraction = ""
	return true
}

// evenPieces divides r into count equal parts along axis. The last piece ends
// exactly on r's far edge.
func evenPieces(r geom.Rect, count int, axis Axis, color string) []Split {
	out := make([]Split, 0, count)
	n := float64(count)
	for i := 0; i < count; i++ {
		if axis == Vertical {
			x0 := r.X + r.W*float64(i)/n
			x1 := r.X + r.W*float64(i+1)/n
			if i == count-1 {
				x1 = r.X + r.W
			}
			out = append(out, NewSplit(x0, r.Y, x1-x0, r.H, color))
			continue
		}
		y0 := r.Y + r.H*float64(i)/n
		y1 := r.Y + r.H*float64(i+1)/n
		if i == count-1 {
			y1 = r.Y + r.H
		}
		out = append(out, NewSplit(r.X, y0, r.W, y1-y0, color))
	}
	return out
}

// SelectedSplit derives the selected split index from the split flags.
func (b *Bar) SelectedSplit() (int, bool) {
	for i, s := range b.Splits {
		if s.Selected {
			return i, true
		}
	}
	return -1, false
}

func (b *Bar) HasSelectedSplit() bool {
	_, ok := b.SelectedSplit()
	return ok
}

// ClearSplitSelection deselects every split.
func (b *Bar) ClearSplitSelection() {
	for i := range b.Splits {
		b.Splits[i].Selected = false
	}
}

// SelectSplitAt selects the split under p, deselecting the others. It reports
// whether a split was hit; on a miss the selection is unchanged.
func (b *Bar) SelectSplitAt(p geom.Pt) bool {
	idx, ok := b.FindSplitAt(p)
	if !ok {
		return false
	}
	b.ClearSplitSelection()
	b.Splits[idx].Selected = true
	return true
}

// SetSelectedSplitColor recolors the selected split, if any.
func (b *Bar) SetSelectedSplitColor(color string) bool {
	idx, ok := b.SelectedSplit()
	if !ok {
		return false
	}
	b.Splits[idx].Color = color
	return true
}

// SplitSelectedEvenly replaces the selected split with count equal parts along
// axis and clears the split selection.
func (b *Bar) SplitSelectedEvenly(count int, axis Axis) error {
	if count < 1 || count > MaxCount {
		return ErrInvalidSplitCount
	}
	idx, ok := b.SelectedSplit()
	if !ok {
		return ErrNoSelectedSplit
	}
	s := b.Splits[idx]
	b.replaceSplit(idx, evenPieces(s.Rect(), count, axis, s.Color))
	b.ClearSplitSelection()
	return nil
}

// SplitEvenly discards existing splits and divides the whole bar into count
// equal parts along axis. A count of 1 leaves the bar unsplit.
func (b *Bar) SplitEvenly(count int, axis Axis) error {
	if count < 1 || count > MaxCount {
		return ErrInvalidSplitCount
	}
	b.Splits = nil
	b.Fraction = ""
	if count == 1 {
		return nil
	}
	for _, p := range evenPieces(geom.R(0, 0, b.W, b.H), count, axis, b.Color) {
		b.addSplit(p)
	}
	return nil
}

// ClearSplits removes every split.
func (b *Bar) ClearSplits() {
	b.Splits = nil
	b.Fraction = ""
}

// BreakApart returns one new bar per split at the split's absolute position,
// or a single copy of the bar when it has no splits. The receiver is not modified.
func (b *Bar) BreakApart() []*Bar {
	if len(b.Splits) == 0 {
		c := b.Duplicate(0)
		c.Selected = false
		return []*Bar{c}
	}
	out := make([]*Bar, 0, len(b.Splits))
	for _, s := range b.Splits {
		nb := NewBar(geom.R(b.X+s.X, b.Y+s.Y, s.W, s.H), s.Color)
		nb.Shade = s.Shade
		out = append(out, nb)
	}
	return out
}

// Tiles reports whether the splits exactly cover the bar without overlap.
// An unsplit bar trivially tiles.
func (b *Bar) Tiles() bool {
	if len(b.Splits) == 0 {
		return true
	}
	var area float64
	for i, s := range b.Splits {
		if s.W <= 0 || s.H <= 0 || s.X < 0 || s.Y < 0 ||
			s.X+s.W > b.W+1e-9 || s.Y+s.H > b.H+1e-9 {
			return false
		}
		area += s.W * s.H
		for _, o := range b.Splits[i+1:] {
			if overlaps(s.Rect(), o.Rect()) {
				return false
			}
		}
	}
	return geom.AlmostEqual(area, b.W*b.H)
}

// overlaps is Rect.Intersects with a tolerance for float rounding at shared edges.
func overlaps(a, b geom.Rect) bool {
	const eps = 1e-9
	return a.X+eps < b.X+b.W && b.X+eps < a.X+a.W && a.Y+eps < b.Y+b.H && b.Y+eps < a.Y+a.H
}
