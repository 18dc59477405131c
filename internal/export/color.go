/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ErrBadColor is returned for color tokens ParseColor cannot read.
var ErrBadColor = errors.New("unrecognized color")

// ShadeStep is the luminance change applied per Shade step.
const ShadeStep = -0.1

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"lime":   {0, 255, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
	"purple": {128, 0, 128, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"pink":   {255, 192, 203, 255},
}

// ParseColor reads "#rgb", "#rrggbb", "rgb(r,g,b)" or a palette name.
func ParseColor(s string) (color.RGBA, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[t]; ok {
		return c, nil
	}
	if strings.HasPrefix(t, "#") {
		hex := t[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	if strings.HasPrefix(t, "rgb(") && strings.HasSuffix(t, ")") {
		parts := strings.Split(t[4:len(t)-1], ",")
		if len(parts) != 3 {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		var ch [3]uint8
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
			}
			ch[i] = uint8(n)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
}

// Luminance scales every channel by (1+lum), clamped to [0,255].
func Luminance(c color.RGBA, lum float64) color.RGBA {
	adj := func(v uint8) uint8 {
		f := float64(v) + float64(v)*lum
		return uint8(math.Round(math.Min(math.Max(0, f), 255)))
	}
	return color.RGBA{R: adj(c.R), G: adj(c.G), B: adj(c.B), A: c.A}
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// fill resolves an entity color with its cosmetic metadata.
func fill(token string, fallback color.RGBA, shade int) color.RGBA {
	c, err := ParseColor(token)
	if err != nil {
		c = fallback
	}
	if shade != 0 {
		c = Luminance(c, ShadeStep*float64(shade))
	}
	return c
}
