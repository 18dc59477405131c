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
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#336699":          {0x33, 0x66, 0x99, 255},
		"#FFF":             {255, 255, 255, 255},
		" Red ":            {255, 0, 0, 255},
		"rgb(1, 2, 3)":     {1, 2, 3, 255},
		"RGB(255,255,255)": {255, 255, 255, 255},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "#zzzzzz", "rgb(1,2)", "rgb(1,2,300)", "chartreuse-ish"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrBadColor) {
			t.Fatalf("ParseColor(%q) got %v want ErrBadColor", bad, err)
		}
	}
}

func TestLuminance(t *testing.T) {
	c := color.RGBA{100, 200, 50, 255}
	if got := Luminance(c, -0.1); got != (color.RGBA{90, 180, 45, 255}) {
		t.Fatalf("darken got %v", got)
	}
	if got := Luminance(c, 0.5); got != (color.RGBA{150, 255, 75, 255}) {
		t.Fatalf("lighten should clamp, got %v", got)
	}
	if got := Hex(color.RGBA{0x0a, 0xbc, 0xff, 255}); got != "#0abcff" {
		t.Fatalf("Hex = %q", got)
	}
}

func TestFillAppliesShadeAndFallback(t *testing.T) {
	if got := fill("not a color", black, 0); got != black {
		t.Fatalf("fallback not used: %v", got)
	}
	if got := fill("#646464", black, 2); got != (color.RGBA{80, 80, 80, 255}) {
		t.Fatalf("two shade steps got %v", got)
	}
}
