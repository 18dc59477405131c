/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"reflect"

	"fractionbars/internal/geom"
)

// Document is the editable aggregate: bars and mats in drawing order plus the
// optional unit bar used as the whole for measurement.
type Document struct {
	Bars    []*Bar `json:"bars"`
	Mats    []*Mat `json:"mats"`
	UnitBar *Bar   `json:"unitBar"`
}

func NewDocument() *Document { return &Document{Bars: []*Bar{}, Mats: []*Mat{}} }

// Clone returns a structurally independent deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{UnitBar: d.UnitBar.Clone()}
	if d.Bars != nil {
		c.Bars = make([]*Bar, len(d.Bars))
		for i, b := range d.Bars {
			c.Bars[i] = b.Clone()
		}
	}
	if d.Mats != nil {
		c.Mats = make([]*Mat, len(d.Mats))
		for i, m := range d.Mats {
			c.Mats[i] = m.Clone()
		}
	}
	return c
}

// Equal reports value equality, selection flags included.
func (d *Document) Equal(o *Document) bool { return reflect.DeepEqual(d, o) }

// ClearSelection resets every bar, mat and split selection flag.
func (d *Document) ClearSelection() {
	for _, b := range d.Bars {
		b.Selected = false
		b.ClearSplitSelection()
	}
	for _, m := range d.Mats {
		m.Selected = false
	}
	if d.UnitBar != nil {
		d.UnitBar.Selected = false
		d.UnitBar.ClearSplitSelection()
	}
}

// FindBarAt returns the topmost bar containing p.
func (d *Document) FindBarAt(p geom.Pt) *Bar {
	for i := len(d.Bars) - 1; i >= 0; i-- {
		if d.Bars[i].Rect().Contains(p) {
			return d.Bars[i]
		}
	}
	return nil
}

// FindMatAt returns the topmost mat containing p.
func (d *Document) FindMatAt(p geom.Pt) *Mat {
	for i := len(d.Mats) - 1; i >= 0; i-- {
		if d.Mats[i].Rect().Contains(p) {
			return d.Mats[i]
		}
	}
	return nil
}

// FindSplitAt returns the index of the topmost split of bar containing p.
func (d *Document) FindSplitAt(bar *Bar, p geom.Pt) (int, bool) {
	if bar == nil {
		return -1, false
	}
	return bar.FindSplitAt(p)
}

func (d *Document) BarByID(id string) *Bar {
	for _, b := range d.Bars {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (d *Document) MatByID(id string) *Mat {
	for _, m := range d.Mats {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// RemoveBars drops the bars whose ids are in ids, keeping order.
func (d *Document) RemoveBars(ids map[string]bool) {
	kept := d.Bars[:0:0]
	for _, b := range d.Bars {
		if !ids[b.ID] {
			kept = append(kept, b)
		}
	}
	d.Bars = kept
}

// RemoveMats drops the mats whose ids are in ids, keeping order.
func (d *Document) RemoveMats(ids map[string]bool) {
	kept := d.Mats[:0:0]
	for _, m := range d.Mats {
		if !ids[m.ID] {
			kept = append(kept, m)
		}
	}
	d.Mats = kept
}

// SetUnitBar designates a copy of b as the unit bar.
func (d *Document) SetUnitBar(b *Bar) {
	u := b.Clone()
	u.IsUnitBar = true
	u.Selected = false
	u.ClearSplitSelection()
	d.UnitBar = u
}

// MeasureAll measures every bar except unit bars against the unit bar.
func (d *Document) MeasureAll() error {
	if d.UnitBar == nil {
		return ErrNoUnitBar
	}
	for _, b := range d.Bars {
		if b.IsUnitBar {
			continue
		}
		b.Measure(d.UnitBar)
	}
	return nil
}

// ClearMeasurements drops every cached fraction.
func (d *Document) ClearMeasurements() {
	for _, b := range d.Bars {
		b.ClearMeasurement()
	}
}

// EnsureIDs assigns fresh ids to entities loaded without one and to any bar or
// mat whose id repeats an earlier one in its list. The first holder keeps it.
func (d *Document) EnsureIDs() {
	var fix func(b *Bar)
	fix = func(b *Bar) {
		if b == nil {
			return
		}
		if b.ID == "" {
			b.ID = newID()
		}
		if b.Type == "" {
			b.Type = DefaultBarType
		}
		fix(b.RepeatUnit)
	}
	seen := make(map[string]bool, len(d.Bars))
	for _, b := range d.Bars {
		fix(b)
		for seen[b.ID] {
			b.ID = newID()
		}
		seen[b.ID] = true
	}
	fix(d.UnitBar)
	seen = make(map[string]bool, len(d.Mats))
	for _, m := range d.Mats {
		for m.ID == "" || seen[m.ID] {
			m.ID = newID()
		}
		seen[m.ID] = true
	}
	if d.Bars == nil {
		d.Bars = []*Bar{}
	}
	if d.Mats == nil {
		d.Mats = []*Mat{}
	}
}
