/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

// SelectAt selects the topmost bar at p, or the topmost mat when no bar is hit.
// Without extend the previous selection is replaced; with extend a hit on an
// already selected entity deselects it. A miss clears the selection unless
// extending. It reports whether anything was hit.
func (s *Session) SelectAt(p geom.Pt, extend bool) bool {
	if b := s.doc.FindBarAt(p); b != nil {
		if !extend {
			s.ClearSelection()
		}
		if !b.Selected {
			s.selectBar(b)
		} else if extend {
			s.deselectBar(b)
		}
		return true
	}
	if m := s.doc.FindMatAt(p); m != nil {
		if !extend {
			s.ClearSelection()
		}
		if !m.Selected {
			m.Selected = true
			s.selMats = append(s.selMats, m.ID)
		} else if extend {
			m.Selected = false
			s.selMats = remove(s.selMats, m.ID)
		}
		return true
	}
	if !extend {
		s.ClearSelection()
	}
	return false
}

// SelectSplitAt selects the split under p within the topmost bar at p and
// makes that bar the selection.
func (s *Session) SelectSplitAt(p geom.Pt) bool {
	b := s.doc.FindBarAt(p)
	if b == nil {
		return false
	}
	if _, ok := b.FindSplitAt(p); !ok {
		return false
	}
	s.ClearSelection()
	b.SelectSplitAt(p)
	s.selectBar(b)
	return true
}

// ClearSelection deselects every bar, split and mat.
func (s *Session) ClearSelection() {
	s.doc.ClearSelection()
	s.selBars = nil
	s.selMats = nil
}

// SelectedBars returns the selected bars in selection order.
func (s *Session) SelectedBars() []*model.Bar {
	out := make([]*model.Bar, 0, len(s.selBars))
	for _, id := range s.selBars {
		if b := s.doc.BarByID(id); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (s *Session) SelectedMats() []*model.Mat {
	out := make([]*model.Mat, 0, len(s.selMats))
	for _, id := range s.selMats {
		if m := s.doc.MatByID(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) selectBar(b *model.Bar) {
	b.Selected = true
	for _, id := range s.selBars {
		if id == b.ID {
			return
		}
	}
	s.selBars = append(s.selBars, b.ID)
}

func (s *Session) deselectBar(b *model.Bar) {
	b.Selected = false
	b.ClearSplitSelection()
	s.selBars = remove(s.selBars, b.ID)
}

// syncSelection rebuilds the ordered lists from the selection flags, keeping
// the existing order for entities that are still selected.
func (s *Session) syncSelection() {
	var bars, mats []string
	seen := map[string]bool{}
	for _, id := range s.selBars {
		if b := s.doc.BarByID(id); b != nil && b.Selected && !seen[id] {
			bars = append(bars, id)
			seen[id] = true
		}
	}
	for _, b := range s.doc.Bars {
		if b.Selected && !seen[b.ID] {
			bars = append(bars, b.ID)
			seen[b.ID] = true
		}
	}
	for _, id := range s.selMats {
		if m := s.doc.MatByID(id); m != nil && m.Selected && !seen[id] {
			mats = append(mats, id)
			seen[id] = true
		}
	}
	for _, m := range s.doc.Mats {
		if m.Selected && !seen[m.ID] {
			mats = append(mats, m.ID)
			seen[m.ID] = true
		}
	}
	s.selBars, s.selMats = bars, mats
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
