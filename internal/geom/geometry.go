/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Axis-aligned geometry shared by the editing model and the exporters.
// Coordinates are document units (canvas pixels in the original drawing surface).

import "math"

// Pt is a 2D point.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Area() float64 { return r.W * r.H }

func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r. All four edges are inclusive;
// every hit test in the engine uses this convention.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Translate returns r moved by dx,dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Intersects reports whether r and o share interior area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// PtMin returns the component-wise minimum of two points.
func PtMin(a, b Pt) Pt { return Pt{math.Min(a.X, b.X), math.Min(a.Y, b.Y)} }

// RectFromCorners normalises a drag from a to b into a rectangle.
func RectFromCorners(a, b Pt) Rect {
	p := PtMin(a, b)
	return Rect{X: p.X, Y: p.Y, W: math.Abs(b.X - a.X), H: math.Abs(b.Y - a.Y)}
}

// Sub returns the displacement from a to b.
func Sub(b, a Pt) Pt { return Pt{b.X - a.X, b.Y - a.Y} }

// Edge names a side of a rectangle.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	default:
		return "bottom"
	}
}

// NearestEdge returns the side of r closest to p. Ties resolve in the order
// left, right, top, bottom.
func NearestEdge(r Rect, p Pt) Edge {
	best := EdgeLeft
	dist := math.Abs(p.X - r.X)
	cands := []struct {
		e Edge
		d float64
	}{
		{EdgeRight, math.Abs(r.X + r.W - p.X)},
		{EdgeTop, math.Abs(p.Y - r.Y)},
		{EdgeBottom, math.Abs(r.Y + r.H - p.Y)},
	}
	for _, c := range cands {
		if c.d < dist {
			best, dist = c.e, c.d
		}
	}
	return best
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// AlmostEqual compares two coordinates with the tolerance used for tiling checks.
func AlmostEqual(a, b float64) bool { return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) }
