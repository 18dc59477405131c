/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(nil, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func mustBar(t *testing.T, s *Session, x, y, w, h float64) *model.Bar {
	t.Helper()
	b, err := s.DrawBar(geom.Pt{X: x, Y: y}, geom.Pt{X: x + w, Y: y + h})
	if err != nil {
		t.Fatalf("DrawBar: %v", err)
	}
	return b
}

func TestDrawRejectsSmallDrags(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.DrawBar(geom.Pt{X: 0, Y: 0}, geom.Pt{X: 10, Y: 50}); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("got %v want ErrTooSmall", err)
	}
	if _, err := s.DrawMat(geom.Pt{X: 50, Y: 50}, geom.Pt{X: 0, Y: 45}); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("got %v want ErrTooSmall", err)
	}
	if s.CanUndo() {
		t.Fatalf("rejected draws must not enter history")
	}
	b, err := s.DrawBar(geom.Pt{X: 30, Y: 40}, geom.Pt{X: 19, Y: 29})
	if err != nil {
		t.Fatalf("DrawBar: %v", err)
	}
	if b.X != 19 || b.Y != 29 || b.W != 11 || b.H != 11 || b.Size != 121 {
		t.Fatalf("unexpected bar %+v", b.Rect())
	}
	if b.Color != model.DefaultBarColor {
		t.Fatalf("color = %q", b.Color)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 100, 20)
	before := s.Document().Clone()

	s.SelectAt(geom.Pt{X: 50, Y: 10}, false)
	if err := s.SplitSelectedEvenly(4, model.Vertical); err != nil {
		t.Fatalf("split: %v", err)
	}
	after := s.Document().Clone()
	after.ClearSelection()

	if !s.Undo() {
		t.Fatalf("undo reported nothing to undo")
	}
	if !s.Document().Equal(before) {
		t.Fatalf("undo did not restore the pre-edit document")
	}
	if len(s.SelectedBars()) != 0 {
		t.Fatalf("undo must clear selection")
	}
	if !s.Redo() {
		t.Fatalf("redo reported nothing to redo")
	}
	if !s.Document().Equal(after) {
		t.Fatalf("redo did not restore the post-edit document")
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 100, 20)
	mustBar(t, s, 0, 40, 100, 20)
	s.Undo()
	if !s.CanRedo() {
		t.Fatalf("expected redo after undo")
	}
	mustBar(t, s, 0, 80, 50, 20)
	if s.CanRedo() {
		t.Fatalf("new edit must clear redo")
	}
	if s.Redo() {
		t.Fatalf("redo after new edit must be a no-op")
	}
	if got := len(s.Document().Bars); got != 2 {
		t.Fatalf("bars = %d, want 2", got)
	}
}

func TestJoinSelectedScenario(t *testing.T) {
	s := newTestSession(t)
	a := mustBar(t, s, 0, 0, 11, 11)
	mustBar(t, s, 13, 0, 11, 11)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	if err := s.SplitSelectedAt(geom.Pt{X: 5.5, Y: 5}, model.Vertical); err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(s.Document().BarByID(a.ID).Splits) != 2 {
		t.Fatalf("expected two splits before join")
	}
	s.SelectAt(geom.Pt{X: 20, Y: 5}, true)

	merged, err := s.JoinSelected()
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if merged.ID != a.ID || merged.W != 22 || merged.H != 11 || merged.Size != 242 {
		t.Fatalf("unexpected merged bar %+v", merged.Rect())
	}
	if len(merged.Splits) != 0 || merged.Fraction != "" {
		t.Fatalf("join must discard splits and fraction")
	}
	if len(s.Document().Bars) != 1 {
		t.Fatalf("consumed bar not removed: %d bars", len(s.Document().Bars))
	}
	sel := s.SelectedBars()
	if len(sel) != 1 || sel[0] != merged || !merged.Selected {
		t.Fatalf("only the merged bar should be selected")
	}

	s.Undo()
	if len(s.Document().Bars) != 2 || len(s.Document().BarByID(a.ID).Splits) != 2 {
		t.Fatalf("undo should bring back both bars with the split")
	}
}

func TestJoinSelectedFailureLeavesDocument(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 20, 20)
	mustBar(t, s, 30, 0, 20, 20)
	mustBar(t, s, 0, 40, 30, 30)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	s.SelectAt(geom.Pt{X: 35, Y: 5}, true)
	s.SelectAt(geom.Pt{X: 5, Y: 50}, true)
	snapshot := s.Document().Clone()
	u, _ := s.HistoryDepth()

	if _, err := s.JoinSelected(); !errors.Is(err, model.ErrIncompatibleDimensions) {
		t.Fatalf("got %v want ErrIncompatibleDimensions", err)
	}
	if !s.Document().Equal(snapshot) {
		t.Fatalf("failed join must leave the document unchanged")
	}
	if u2, _ := s.HistoryDepth(); u2 != u {
		t.Fatalf("failed join must not enter history")
	}
	if len(s.SelectedBars()) != 3 {
		t.Fatalf("selection lost after failed join")
	}

	s.ClearSelection()
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	if _, err := s.JoinSelected(); !errors.Is(err, ErrNeedTwoBars) {
		t.Fatalf("got %v want ErrNeedTwoBars", err)
	}
}

func TestSelectAtExtendToggles(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 20, 20)
	mustBar(t, s, 30, 0, 20, 20)
	if _, err := s.DrawMat(geom.Pt{X: 0, Y: 100}, geom.Pt{X: 50, Y: 150}); err != nil {
		t.Fatalf("DrawMat: %v", err)
	}
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	s.SelectAt(geom.Pt{X: 35, Y: 5}, true)
	s.SelectAt(geom.Pt{X: 10, Y: 110}, true)
	if len(s.SelectedBars()) != 2 || len(s.SelectedMats()) != 1 {
		t.Fatalf("extend should accumulate selection")
	}
	s.SelectAt(geom.Pt{X: 5, Y: 5}, true)
	sel := s.SelectedBars()
	if len(sel) != 1 || sel[0].X != 30 {
		t.Fatalf("extend on a selected bar should deselect it")
	}
	s.SelectAt(geom.Pt{X: 500, Y: 500}, false)
	if len(s.SelectedBars()) != 0 || len(s.SelectedMats()) != 0 {
		t.Fatalf("a miss should clear the selection")
	}
}

func TestMeasureAllAgainstUnitBar(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 100, 20)
	half := mustBar(t, s, 0, 30, 50, 20)
	if err := s.MeasureAll(); !errors.Is(err, model.ErrNoUnitBar) {
		t.Fatalf("got %v want ErrNoUnitBar", err)
	}
	if err := s.SetUnitBarSelected(); !errors.Is(err, ErrNeedOneBar) {
		t.Fatalf("got %v want ErrNeedOneBar", err)
	}
	s.SelectAt(geom.Pt{X: 10, Y: 10}, false)
	if err := s.SetUnitBarSelected(); err != nil {
		t.Fatalf("unit: %v", err)
	}
	if err := s.MeasureAll(); err != nil {
		t.Fatalf("measure: %v", err)
	}
	if got := s.Document().BarByID(half.ID).Fraction; got != "1/2" {
		t.Fatalf("fraction = %q, want 1/2", got)
	}
	if got := s.Document().Bars[0].Fraction; got != "1/1" {
		t.Fatalf("unit source fraction = %q, want 1/1", got)
	}
	if err := s.ClearMeasurements(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Document().BarByID(half.ID).Fraction != "" {
		t.Fatalf("fraction not cleared")
	}
}

func TestLabelModes(t *testing.T) {
	s := newTestSession(t)
	a := mustBar(t, s, 0, 0, 20, 20)
	b := mustBar(t, s, 30, 0, 20, 20)
	if err := s.LabelSelected("x", LabelAll); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("got %v want ErrNoSelection", err)
	}
	s.SelectAt(geom.Pt{X: 35, Y: 5}, false)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, true)
	if err := s.LabelSelected("last", LabelLast); err != nil {
		t.Fatalf("label: %v", err)
	}
	if s.Document().BarByID(a.ID).Label != "last" || s.Document().BarByID(b.ID).Label != "" {
		t.Fatalf("LabelLast should only label the most recent selection")
	}
	if err := s.LabelSelected("all", LabelAll); err != nil {
		t.Fatalf("label: %v", err)
	}
	if s.Document().BarByID(a.ID).Label != "all" || s.Document().BarByID(b.ID).Label != "all" {
		t.Fatalf("LabelAll should label every selected bar")
	}
}

func TestCopyDeleteAndBreakApart(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 90, 30)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	copies, err := s.CopySelected()
	if err != nil || len(copies) != 1 {
		t.Fatalf("copy: %v", err)
	}
	c := copies[0]
	if c.X != model.CopyOffset || c.Y != model.CopyOffset || c.Selected {
		t.Fatalf("unexpected copy %+v selected=%v", c.Rect(), c.Selected)
	}

	if err := s.SplitSelectedEvenly(3, model.Vertical); err != nil {
		t.Fatalf("split: %v", err)
	}
	pieces, err := s.BreakApartSelected()
	if err != nil {
		t.Fatalf("break apart: %v", err)
	}
	if len(pieces) != 3 || len(s.Document().Bars) != 4 {
		t.Fatalf("pieces=%d bars=%d, want 3 and 4", len(pieces), len(s.Document().Bars))
	}
	if pieces[1].X != 30 || pieces[1].W != 30 || len(pieces[1].Splits) != 0 {
		t.Fatalf("unexpected middle piece %+v", pieces[1].Rect())
	}

	s.SelectAt(geom.Pt{X: 15, Y: 15}, false)
	if err := s.DeleteSelected(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Document().Bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(s.Document().Bars))
	}
	if err := s.DeleteSelected(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("got %v want ErrNoSelection", err)
	}
}

func TestRepeatAt(t *testing.T) {
	s := newTestSession(t)
	b := mustBar(t, s, 0, 0, 20, 20)
	if err := s.RepeatAt(geom.Pt{X: 19, Y: 10}); !errors.Is(err, model.ErrNoRepeatUnit) {
		t.Fatalf("got %v want ErrNoRepeatUnit", err)
	}
	if err := s.RepeatAt(geom.Pt{X: 200, Y: 200}); err != nil {
		t.Fatalf("repeat on empty space: %v", err)
	}
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	if err := s.SetRepeatUnitSelected(); err != nil {
		t.Fatalf("set unit: %v", err)
	}
	if err := s.RepeatAt(geom.Pt{X: 19, Y: 10}); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	got := s.Document().BarByID(b.ID)
	if got.W != 40 || got.H != 20 || got.Size != 800 {
		t.Fatalf("unexpected repeated bar %+v", got.Rect())
	}
}

func TestIterateSelectedHighlight(t *testing.T) {
	s := newTestSession(t)
	b := mustBar(t, s, 0, 0, 20, 20)
	s.SetHighlightIterations(true)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	if err := s.IterateSelected(3, model.Horizontal); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	got := s.Document().BarByID(b.ID)
	if got.W != 60 || got.H != 20 || got.Shade != 1 {
		t.Fatalf("unexpected iterated bar %+v shade=%d", got.Rect(), got.Shade)
	}
}

func TestColorSelectedPrefersSplit(t *testing.T) {
	s := newTestSession(t)
	b := mustBar(t, s, 0, 0, 40, 20)
	s.SelectAt(geom.Pt{X: 5, Y: 5}, false)
	if err := s.SplitSelectedEvenly(2, model.Vertical); err != nil {
		t.Fatalf("split: %v", err)
	}
	if !s.SelectSplitAt(geom.Pt{X: 30, Y: 10}) {
		t.Fatalf("expected a split hit")
	}
	if err := s.ColorSelected("#ff0000"); err != nil {
		t.Fatalf("color: %v", err)
	}
	got := s.Document().BarByID(b.ID)
	if got.Color != model.DefaultBarColor || got.Splits[1].Color != "#ff0000" || got.Splits[0].Color == "#ff0000" {
		t.Fatalf("expected only the selected split recolored: bar=%s splits=%s,%s", got.Color, got.Splits[0].Color, got.Splits[1].Color)
	}
}

func TestReplaceResetsHistory(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 20, 20)
	d := model.NewDocument()
	loaded := model.NewBar(geom.R(0, 0, 30, 30), "")
	loaded.Selected = true
	d.Bars = append(d.Bars, loaded)
	s.Replace(d)
	if s.CanUndo() || s.CanRedo() {
		t.Fatalf("replace must clear history")
	}
	if len(s.SelectedBars()) != 0 || loaded.Selected {
		t.Fatalf("replace must clear selection")
	}
}

func TestDuplicateIDsResolveToOneBar(t *testing.T) {
	s := newTestSession(t)
	a := model.NewBar(geom.R(0, 0, 20, 20), "")
	b := model.NewBar(geom.R(100, 0, 20, 20), "")
	a.ID, b.ID = "x", "x"
	doc := model.NewDocument()
	doc.Bars = append(doc.Bars, a, b)
	s.Replace(doc)

	if !s.SelectAt(geom.Pt{X: 110, Y: 10}, false) {
		t.Fatalf("expected a hit")
	}
	sel := s.SelectedBars()
	if len(sel) != 1 || sel[0].X != 100 {
		t.Fatalf("selected %+v, want the bar at x=100", sel)
	}
	if err := s.DeleteSelected(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(s.Document().Bars); got != 1 || s.Document().Bars[0].X != 0 {
		t.Fatalf("expected the bar at x=0 to remain, got %d bars", got)
	}

	clash := model.NewBar(geom.R(0, 50, 20, 20), "")
	clash.ID = "x"
	if err := s.AddBar(clash); err != nil {
		t.Fatalf("add: %v", err)
	}
	if clash.ID == "x" {
		t.Fatalf("added bar kept a clashing id")
	}
	if s.Document().BarByID("x").Y != 0 {
		t.Fatalf("existing bar lost its id")
	}
}

func TestSplitSelectedEvenlyRejectsHugeCount(t *testing.T) {
	s := newTestSession(t)
	mustBar(t, s, 0, 0, 100, 20)
	s.SelectAt(geom.Pt{X: 50, Y: 10}, false)
	before := s.Document().Clone()
	if err := s.SplitSelectedEvenly(2000000000, model.Vertical); !errors.Is(err, model.ErrInvalidSplitCount) {
		t.Fatalf("err = %v, want ErrInvalidSplitCount", err)
	}
	if len(s.Document().Bars[0].Splits) != len(before.Bars[0].Splits) {
		t.Fatalf("rejected split changed the bar")
	}
}
