/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session is the editing context: it owns the live document, its
// history and the ordered selection, and exposes every user-level edit.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"fractionbars/internal/geom"
	applog "fractionbars/internal/log"
	"fractionbars/internal/model"
	"fractionbars/internal/undo"
)

// MinDrawSize is the smallest drag extent, exclusive, that creates a bar or mat.
const MinDrawSize = 10

var (
	ErrNoSelection  = errors.New("nothing selected")
	ErrTooSmall     = fmt.Errorf("drawn shape must be larger than %d in both dimensions", MinDrawSize)
	ErrNeedTwoBars  = errors.New("select at least two bars")
	ErrNeedOneBar   = errors.New("select exactly one bar")
	ErrUnknownLabel = errors.New("unknown label mode")
)

// LabelMode picks which selected bars receive a label.
type LabelMode int

const (
	// LabelAll labels every selected bar.
	LabelAll LabelMode = iota
	// LabelLast labels only the most recently selected bar.
	LabelLast
)

// Options configure a new session.
type Options struct {
	HighlightIterations bool
	BarColor            string
	MatColor            string
	HistoryDepth        int
	Logger              *slog.Logger
}

// Session is not safe for concurrent use; every edit runs to completion
// before the next one starts.
type Session struct {
	doc       *model.Document
	hist      *undo.Manager
	selBars   []string // bar ids in selection order
	selMats   []string
	highlight bool
	barColor  string
	matColor  string
	log       *slog.Logger
}

func New(doc *model.Document, opt Options) *Session {
	if doc == nil {
		doc = model.NewDocument()
	}
	doc.EnsureIDs()
	l := opt.Logger
	if l == nil {
		l = applog.WithComponent("session")
	}
	s := &Session{
		doc:       doc,
		hist:      undo.NewManager(undo.Config{MaxDepth: opt.HistoryDepth}),
		highlight: opt.HighlightIterations,
		barColor:  opt.BarColor,
		matColor:  opt.MatColor,
		log:       l,
	}
	if s.barColor == "" {
		s.barColor = model.DefaultBarColor
	}
	if s.matColor == "" {
		s.matColor = model.DefaultMatColor
	}
	s.syncSelection()
	return s
}

// Document returns the live document. Callers must not keep the pointer across
// Undo, Redo or Replace.
func (s *Session) Document() *model.Document { return s.doc }

// Replace swaps in a loaded document and forgets selection and history.
func (s *Session) Replace(doc *model.Document) {
	if doc == nil {
		doc = model.NewDocument()
	}
	doc.EnsureIDs()
	s.doc = doc
	s.hist.Clear()
	s.ClearSelection()
	s.log.Debug("document replaced", slog.Int("bars", len(doc.Bars)), slog.Int("mats", len(doc.Mats)))
}

func (s *Session) HighlightIterations() bool     { return s.highlight }
func (s *Session) SetHighlightIterations(v bool) { s.highlight = v }

// SetFillColor sets the color used for newly drawn bars.
func (s *Session) SetFillColor(color string) { s.barColor = color }

// --- history ---

// Capture records the current document so the next edit can be undone.
func (s *Session) Capture(op string) { s.hist.Capture(op, s.doc) }

func (s *Session) CanUndo() bool { return s.hist.CanUndo() }
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// HistoryDepth reports the undo and redo stack sizes.
func (s *Session) HistoryDepth() (int, int) { return s.hist.Stats() }

// Undo restores the state before the last edit. It reports false when there
// is nothing to undo.
func (s *Session) Undo() bool {
	label := s.hist.UndoLabel()
	doc, ok := s.hist.Undo(s.doc)
	if !ok {
		return false
	}
	s.doc = doc
	s.ClearSelection()
	s.log.Debug("undo", slog.String("edit", label))
	return true
}

func (s *Session) Redo() bool {
	doc, ok := s.hist.Redo(s.doc)
	if !ok {
		return false
	}
	s.doc = doc
	s.ClearSelection()
	s.log.Debug("redo")
	return true
}

// do runs an undoable edit. The edit is recorded only when it succeeds; on
// failure the document is restored so a partially applied multi-bar edit
// leaves no trace.
func (s *Session) do(op string, fn func() error) error {
	before := s.doc.Clone()
	if err := fn(); err != nil {
		s.doc = before
		s.syncSelection()
		applog.WithOperation(s.log, op).Warn("edit rejected", slog.String("err", err.Error()))
		return err
	}
	s.hist.Capture(op, before)
	applog.WithOperation(s.log, op).Debug("edit applied", slog.Int("bars", len(s.doc.Bars)), slog.Int("mats", len(s.doc.Mats)))
	return nil
}

// --- drawing ---

func dragRect(p1, p2 geom.Pt) (geom.Rect, error) {
	r := geom.RectFromCorners(p1, p2)
	if r.W <= MinDrawSize || r.H <= MinDrawSize {
		return geom.Rect{}, ErrTooSmall
	}
	return r, nil
}

// DrawBar creates a bar spanning the drag from p1 to p2.
func (s *Session) DrawBar(p1, p2 geom.Pt) (*model.Bar, error) {
	var b *model.Bar
	err := s.do("draw bar", func() error {
		r, err := dragRect(p1, p2)
		if err != nil {
			return err
		}
		b = model.NewBar(r, s.barColor)
		s.doc.Bars = append(s.doc.Bars, b)
		return nil
	})
	return b, err
}

// DrawMat creates a mat spanning the drag from p1 to p2.
func (s *Session) DrawMat(p1, p2 geom.Pt) (*model.Mat, error) {
	var m *model.Mat
	err := s.do("draw mat", func() error {
		r, err := dragRect(p1, p2)
		if err != nil {
			return err
		}
		m = model.NewMat(r, s.matColor)
		s.doc.Mats = append(s.doc.Mats, m)
		return nil
	})
	return m, err
}

// AddBar appends an existing bar.
func (s *Session) AddBar(b *model.Bar) error {
	return s.do("add bar", func() error {
		s.doc.Bars = append(s.doc.Bars, b)
		s.doc.EnsureIDs()
		return nil
	})
}

func (s *Session) AddMat(m *model.Mat) error {
	return s.do("add mat", func() error {
		s.doc.Mats = append(s.doc.Mats, m)
		s.doc.EnsureIDs()
		return nil
	})
}

// --- edits over the selection ---

// CopySelected appends an offset copy of every selected bar.
func (s *Session) CopySelected() ([]*model.Bar, error) {
	var copies []*model.Bar
	err := s.do("copy", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			c := b.Duplicate(model.CopyOffset)
			c.Selected = false
			c.ClearSplitSelection()
			copies = append(copies, c)
		}
		s.doc.Bars = append(s.doc.Bars, copies...)
		return nil
	})
	return copies, err
}

// DeleteSelected removes the selected bars and mats.
func (s *Session) DeleteSelected() error {
	return s.do("delete", func() error {
		if len(s.selBars) == 0 && len(s.selMats) == 0 {
			return ErrNoSelection
		}
		s.doc.RemoveBars(idSet(s.selBars))
		s.doc.RemoveMats(idSet(s.selMats))
		s.ClearSelection()
		return nil
	})
}

// JoinSelected folds every selected bar into the first selected one, in
// selection order, and leaves only the merged bar selected.
func (s *Session) JoinSelected() (*model.Bar, error) {
	var base *model.Bar
	err := s.do("join", func() error {
		sel := s.SelectedBars()
		if len(sel) < 2 {
			return ErrNeedTwoBars
		}
		base = sel[0]
		consumed := map[string]bool{}
		for _, other := range sel[1:] {
			if err := base.Join(other); err != nil {
				return fmt.Errorf("join %s into %s: %w", other.ID, base.ID, err)
			}
			consumed[other.ID] = true
		}
		s.doc.RemoveBars(consumed)
		s.ClearSelection()
		s.selectBar(base)
		return nil
	})
	return base, err
}

// SplitSelectedAt cuts every selected bar that contains p.
func (s *Session) SplitSelectedAt(p geom.Pt, axis model.Axis) error {
	return s.do("split", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		n := 0
		for _, b := range sel {
			if b.SplitAt(p, axis) {
				n++
			}
		}
		if n == 0 {
			return model.ErrOutsideBar
		}
		return nil
	})
}

// SplitSelectedEvenly divides the selected split of each selected bar, or the
// whole bar when it has no selected split, into count equal parts.
func (s *Session) SplitSelectedEvenly(count int, axis model.Axis) error {
	return s.do("split evenly", func() error {
		if count < 1 || count > model.MaxCount {
			return model.ErrInvalidSplitCount
		}
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			var err error
			if b.HasSelectedSplit() {
				err = b.SplitSelectedEvenly(count, axis)
			} else {
				err = b.SplitEvenly(count, axis)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) ClearSplitsSelected() error {
	return s.do("clear splits", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			b.ClearSplits()
		}
		return nil
	})
}

// BreakApartSelected replaces every selected bar with one bar per split.
// The pieces are appended after the remaining bars.
func (s *Session) BreakApartSelected() ([]*model.Bar, error) {
	var pieces []*model.Bar
	err := s.do("break apart", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			pieces = append(pieces, b.BreakApart()...)
		}
		s.doc.RemoveBars(idSet(s.selBars))
		s.doc.Bars = append(s.doc.Bars, pieces...)
		s.ClearSelection()
		return nil
	})
	return pieces, err
}

func (s *Session) IterateSelected(count int, axis model.Axis) error {
	return s.do("iterate", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			if err := b.Iterate(count, axis, s.highlight); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) SetRepeatUnitSelected() error {
	return s.do("set repeat unit", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		for _, b := range sel {
			b.SetRepeatUnit()
		}
		return nil
	})
}

// RepeatAt extends the bar under p by its repeat unit. A click on empty space
// does nothing.
func (s *Session) RepeatAt(p geom.Pt) error {
	if s.doc.FindBarAt(p) == nil {
		return nil
	}
	return s.do("repeat", func() error {
		return s.doc.FindBarAt(p).Repeat(p, s.highlight)
	})
}

// SetUnitBarSelected designates the single selected bar as the unit bar.
func (s *Session) SetUnitBarSelected() error {
	return s.do("set unit bar", func() error {
		sel := s.SelectedBars()
		if len(sel) != 1 {
			return ErrNeedOneBar
		}
		s.doc.SetUnitBar(sel[0])
		return nil
	})
}

func (s *Session) MeasureAll() error {
	return s.do("measure", s.doc.MeasureAll)
}

func (s *Session) ClearMeasurements() error {
	return s.do("clear measurements", func() error {
		s.doc.ClearMeasurements()
		return nil
	})
}

// LabelSelected sets text as the label of the selected bars according to mode.
func (s *Session) LabelSelected(text string, mode LabelMode) error {
	return s.do("label", func() error {
		sel := s.SelectedBars()
		if len(sel) == 0 {
			return ErrNoSelection
		}
		switch mode {
		case LabelAll:
			for _, b := range sel {
				b.SetLabel(text)
			}
		case LabelLast:
			sel[len(sel)-1].SetLabel(text)
		default:
			return ErrUnknownLabel
		}
		return nil
	})
}

// ColorSelected recolors the selected split of each selected bar, or the bar
// itself when none of its splits is selected. Selected mats are recolored too.
func (s *Session) ColorSelected(color string) error {
	return s.do("color", func() error {
		bars, mats := s.SelectedBars(), s.SelectedMats()
		if len(bars) == 0 && len(mats) == 0 {
			return ErrNoSelection
		}
		for _, b := range bars {
			if !b.SetSelectedSplitColor(color) {
				b.SetColor(color)
			}
		}
		for _, m := range mats {
			m.Color = color
		}
		return nil
	})
}

func idSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
