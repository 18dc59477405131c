/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"math"

	"fractionbars/internal/geom"
)

const (
	// iterateGap is the visual gap between consecutive copies before they are joined.
	iterateGap = 3
	// CopyOffset is the displacement applied to copied bars and mats.
	CopyOffset = 10
)

// joinAxis decides along which axis other is merged into b. Horizontal means
// the width grows. When both dimensions match, the axis with the larger
// center-to-center displacement wins, so bars that sit side by side grow wider
// and stacked bars grow taller.
func joinAxis(b, other *Bar) (Axis, error) {
	heightMatch := b.H == other.H
	widthMatch := b.W == other.W
	switch {
	case heightMatch && widthMatch:
		d := geom.Sub(other.Rect().Center(), b.Rect().Center())
		if math.Abs(d.X) >= math.Abs(d.Y) {
			return Horizontal, nil
		}
		return Vertical, nil
	case heightMatch:
		return Horizontal, nil
	case widthMatch:
		return Vertical, nil
	}
	return Vertical, ErrIncompatibleDimensions
}

// join merges other into b and returns the axis it grew along.
func (b *Bar) join(other *Bar) (Axis, error) {
	axis, err := joinAxis(b, other)
	if err != nil {
		return axis, err
	}
	if axis == Horizontal {
		b.resize(b.W+other.W, b.H)
	} else {
		b.resize(b.W, b.H+other.H)
	}
	b.Splits = nil
	return axis, nil
}

// Join merges other into b in place. The merged bar keeps b's origin, starts
// unsplit and loses its cached fraction. other is never modified. On
// ErrIncompatibleDimensions b is left unchanged.
func (b *Bar) Join(other *Bar) error {
	_, err := b.join(other)
	return err
}

// Iterate concatenates count copies of the bar (the bar itself included) along
// axis. Copies are placed a small gap apart and folded in with Join. When
// highlight is set and the result is unsplit, the fill is marked one shade darker.
// More than MaxCount copies fail with ErrInvalidIterateCount.
func (b *Bar) Iterate(count int, axis Axis, highlight bool) error {
	if count > MaxCount {
		return ErrInvalidIterateCount
	}
	if count <= 1 {
		return nil
	}
	work := b.Clone()
	src := b.Clone()
	for i := 1; i < count; i++ {
		next := src.Clone()
		if axis == Vertical {
			next.Y += float64(i) * iterateGap
		} else {
			next.X += float64(i) * iterateGap
		}
		if _, err := work.join(next); err != nil {
			return err
		}
	}
	if len(work.Splits) == 0 && work.Size > 0 && highlight {
		work.Shade++
	}
	*b = *work
	return nil
}

// SetRepeatUnit stores a de-emphasized copy of the bar as its repeat template.
func (b *Bar) SetRepeatUnit() {
	ru := b.Clone()
	ru.ID = newID()
	ru.RepeatUnit = nil
	ru.Selected = false
	ru.ClearSplitSelection()
	ru.Muted = true
	b.RepeatUnit = ru
}

// Repeat appends a copy of the repeat unit to the bar on the side nearest to
// click. When highlight is set and the unit is unsplit, the appended cycle is
// marked with a Cycle cue; the bar stays unsplit either way.
func (b *Bar) Repeat(click geom.Pt, highlight bool) error {
	if b.RepeatUnit == nil {
		return ErrNoRepeatUnit
	}
	unit := b.RepeatUnit.Clone()
	unit.Muted = false
	unit.RepeatUnit = nil
	switch geom.NearestEdge(b.Rect(), click) {
	case geom.EdgeLeft:
		unit.X, unit.Y = b.X-unit.W, b.Y
	case geom.EdgeRight:
		unit.X, unit.Y = b.X+b.W, b.Y
	case geom.EdgeTop:
		unit.X, unit.Y = b.X, b.Y-unit.H
	default:
		unit.X, unit.Y = b.X, b.Y+b.H
	}
	work := b.Clone()
	prevW, prevH := work.W, work.H
	axis, err := work.join(unit)
	if err != nil {
		return err
	}
	if highlight && len(b.RepeatUnit.Splits) == 0 {
		if axis == Horizontal {
			work.Cycle = &Cycle{Axis: Vertical, Offset: prevW}
		} else {
			work.Cycle = &Cycle{Axis: Horizontal, Offset: prevH}
		}
	}
	*b = *work
	return nil
}
