/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	applog "fractionbars/internal/log"
	"fractionbars/internal/model"
	"fractionbars/internal/session"
)

// ErrNothingAt is returned when a selecting command hits no shape.
var ErrNothingAt = errors.New("nothing at point")

// Hook runs after every command that changed the document, e.g. to write a
// journal checkpoint. A hook error aborts the run.
type Hook func(ctx context.Context, c Command, doc *model.Document) error

// Result summarizes a run.
type Result struct {
	Applied int // commands executed successfully
	Changed int // of those, commands that changed the document
}

// Run executes cmds in order against s. The first failing command aborts the
// run with a *RunError; edits applied before it stay in the document.
func Run(ctx context.Context, s *session.Session, cmds []Command, hook Hook) (Result, error) {
	var res Result
	l := applog.WithComponent("command")
	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		changed, err := apply(s, c)
		if err != nil {
			l.Warn("command failed", slog.Int("line", c.LineNo), slog.String("op", string(c.Op)), slog.String("err", err.Error()))
			return res, &RunError{Line: c.LineNo, Op: c.Op, Err: err}
		}
		res.Applied++
		if !changed {
			continue
		}
		res.Changed++
		if hook != nil {
			if err := hook(ctx, c, s.Document()); err != nil {
				return res, &RunError{Line: c.LineNo, Op: c.Op, Err: fmt.Errorf("hook: %w", err)}
			}
		}
	}
	l.Debug("script done", slog.Int("applied", res.Applied), slog.Int("changed", res.Changed))
	return res, nil
}

// apply runs one command and reports whether the document changed.
func apply(s *session.Session, c Command) (bool, error) {
	var err error
	switch c.Op {
	case OpBar:
		_, err = s.DrawBar(c.Points[0], c.Points[1])
	case OpMat:
		_, err = s.DrawMat(c.Points[0], c.Points[1])
	case OpSelect, OpSelectAdd:
		if !s.SelectAt(c.Points[0], c.Op == OpSelectAdd) {
			err = ErrNothingAt
		}
		return false, err
	case OpDeselect:
		s.ClearSelection()
		return false, nil
	case OpSelectSplit:
		if !s.SelectSplitAt(c.Points[0]) {
			err = ErrNothingAt
		}
		return false, err
	case OpHighlight:
		s.SetHighlightIterations(c.Flag)
		return false, nil
	case OpSplit:
		err = s.SplitSelectedAt(c.Points[0], c.Axis)
	case OpSplitEven:
		err = s.SplitSelectedEvenly(c.Count, c.Axis)
	case OpClearSplits:
		err = s.ClearSplitsSelected()
	case OpJoin:
		_, err = s.JoinSelected()
	case OpBreak:
		_, err = s.BreakApartSelected()
	case OpIterate:
		err = s.IterateSelected(c.Count, c.Axis)
	case OpRepeatUnit:
		err = s.SetRepeatUnitSelected()
	case OpRepeat:
		err = s.RepeatAt(c.Points[0])
	case OpUnit:
		err = s.SetUnitBarSelected()
	case OpMeasure:
		err = s.MeasureAll()
	case OpClearMeasure:
		err = s.ClearMeasurements()
	case OpLabel:
		err = s.LabelSelected(c.Text, session.LabelAll)
	case OpLabelLast:
		err = s.LabelSelected(c.Text, session.LabelLast)
	case OpColor:
		err = s.ColorSelected(c.Text)
	case OpCopy:
		_, err = s.CopySelected()
	case OpDelete:
		err = s.DeleteSelected()
	case OpUndo:
		return s.Undo(), nil
	case OpRedo:
		return s.Redo(), nil
	default:
		err = fmt.Errorf("unknown command %q", c.Op)
	}
	return err == nil, err
}
