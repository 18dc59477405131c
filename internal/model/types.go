/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package model holds the fraction-bar editing model: bars, their splits,
// background mats and the document aggregating them, together with the edit
// operations (split, join, break apart, iterate, repeat, measure).
//
// All entities are plain values owned by exactly one Document. Operations that
// produce new entities (copy, break apart, draw) mint fresh ids; snapshot
// clones keep ids so a restored document is value-equal to the captured one.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fractionbars/internal/geom"
)

// Precondition failures. Each operation that returns one of these leaves its
// receiver unchanged.
var (
	ErrIncompatibleDimensions = errors.New("bars must match in height or width to join")
	ErrNoRepeatUnit           = errors.New("no repeat unit set")
	ErrNoUnitBar              = errors.New("no unit bar designated")
	ErrInvalidSplitCount      = fmt.Errorf("split count must be between 1 and %d", MaxCount)
	ErrInvalidIterateCount    = fmt.Errorf("iterate count must be at most %d", MaxCount)
	ErrNoSelectedSplit        = errors.New("no split selected")
	ErrOutsideBar             = errors.New("point is outside the bar")
)

const (
	DefaultBarType  = "bar"
	DefaultBarColor = "#000000"
	DefaultMatColor = "#FFFFFF"
	// Undefined is the fraction shown when the reference bar has no area.
	Undefined = "Undefined"
	// MaxCount bounds the piece count of an even split and the copy count of an iterate.
	MaxCount = 1000
)

// Axis selects the direction of a split or an iteration.
// A Vertical split cuts with a vertical line (pieces side by side); a Vertical
// iteration stacks copies top to bottom.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseAxis accepts v, vertical, h and horizontal (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v", "vert", "vertical":
		return Vertical, nil
	case "h", "horiz", "horizontal":
		return Horizontal, nil
	}
	return Vertical, fmt.Errorf("unknown axis %q", s)
}

func newID() string { return uuid.NewString() }

// Split is one part of a bar. Its rectangle is relative to the owning bar's origin.
type Split struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
	Selected bool    `json:"isSelected"`
	// Shade counts luminance steps a renderer darkens this split by.
	Shade int `json:"shade,omitempty"`
}

func NewSplit(x, y, w, h float64, color string) Split {
	if color == "" {
		color = DefaultBarColor
	}
	return Split{X: x, Y: y, W: w, H: h, Size: w * h, Color: color}
}

func (s Split) Rect() geom.Rect { return geom.R(s.X, s.Y, s.W, s.H) }

// Equal compares geometry and color; selection and shade are ignored.
func (s Split) Equal(o Split) bool {
	return s.X == o.X && s.Y == o.Y && s.W == o.W && s.H == o.H && s.Color == o.Color
}

// Mat is a plain background rectangle.
type Mat struct {
	ID       string  `json:"id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
	Selected bool    `json:"isSelected"`
}

func NewMat(r geom.Rect, color string) *Mat {
	if color == "" {
		color = DefaultMatColor
	}
	return &Mat{ID: newID(), X: r.X, Y: r.Y, W: r.W, H: r.H, Size: r.W * r.H, Color: color}
}

func (m *Mat) Rect() geom.Rect { return geom.R(m.X, m.Y, m.W, m.H) }

func (m *Mat) Clone() *Mat {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Duplicate returns an offset copy with a fresh id.
func (m *Mat) Duplicate(offset float64) *Mat {
	c := m.Clone()
	c.ID = newID()
	c.X += offset
	c.Y += offset
	return c
}

// Bar is the fraction-representing rectangle. Coordinates are absolute.
type Bar struct {
	ID        string  `json:"id,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
	Size      float64 `json:"size"`
	Color     string  `json:"color"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	Fraction  string  `json:"fraction"`
	IsUnitBar bool    `json:"isUnitBar"`
	Selected  bool    `json:"isSelected"`
	Splits    []Split `json:"splits"`
	// RepeatUnit is an owned copy used as the template for Repeat. It never
	// aliases another bar of the document.
	RepeatUnit *Bar `json:"repeatUnit"`
	// Shade counts luminance steps a renderer darkens the fill by.
	Shade int `json:"shade,omitempty"`
	// Muted asks renderers to de-emphasize the bar (repeat unit templates).
	Muted bool `json:"muted,omitempty"`
	// Cycle marks the most recently repeated cycle; nil when unmarked.
	Cycle *Cycle `json:"cycle,omitempty"`
}

// Cycle is a rendering cue left by a highlighted repeat: the part of the bar
// beyond Offset along Axis is drawn one shade darker. It never affects splits.
type Cycle struct {
	Axis   Axis    `json:"axis"` // axis of the boundary line, as for a split
	Offset float64 `json:"offset"`
}

// Rect returns the marked region relative to the bar origin.
func (c Cycle) Rect(w, h float64) geom.Rect {
	if c.Axis == Vertical {
		return geom.R(c.Offset, 0, w-c.Offset, h)
	}
	return geom.R(0, c.Offset, w, h-c.Offset)
}

func NewBar(r geom.Rect, color string) *Bar {
	if color == "" {
		color = DefaultBarColor
	}
	return &Bar{ID: newID(), X: r.X, Y: r.Y, W: r.W, H: r.H, Size: r.W * r.H, Color: color, Type: DefaultBarType}
}

func (b *Bar) Rect() geom.Rect { return geom.R(b.X, b.Y, b.W, b.H) }

// resize sets the dimensions and drops the cached fraction and cycle mark.
func (b *Bar) resize(w, h float64) {
	b.W, b.H = w, h
	b.Size = w * h
	b.Fraction = ""
	b.Cycle = nil
}

// Clone returns a deep copy that keeps the id.
func (b *Bar) Clone() *Bar {
	if b == nil {
		return nil
	}
	c := *b
	if b.Splits != nil {
		c.Splits = make([]Split, len(b.Splits))
		copy(c.Splits, b.Splits)
	}
	c.RepeatUnit = b.RepeatUnit.Clone()
	if b.Cycle != nil {
		cy := *b.Cycle
		c.Cycle = &cy
	}
	return &c
}

// Duplicate returns a deep copy with a fresh id, moved by offset on both axes.
func (b *Bar) Duplicate(offset float64) *Bar {
	c := b.Clone()
	c.ID = newID()
	c.X += offset
	c.Y += offset
	return c
}

// SetColor changes the fill color; splits keep their own colors.
func (b *Bar) SetColor(color string) { b.Color = color }

// SetLabel sets the free-text label.
func (b *Bar) SetLabel(label string) { b.Label = label }
