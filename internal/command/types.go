/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"fmt"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

// Op names one script command.
type Op string

const (
	OpBar          Op = "bar"           // bar x1 y1 x2 y2
	OpMat          Op = "mat"           // mat x1 y1 x2 y2
	OpSelect       Op = "select"        // select x y
	OpSelectAdd    Op = "select-add"    // select-add x y (toggles)
	OpDeselect     Op = "deselect"      // deselect
	OpSelectSplit  Op = "select-split"  // select-split x y
	OpSplit        Op = "split"         // split x y [v|h]
	OpSplitEven    Op = "split-even"    // split-even n [v|h]
	OpClearSplits  Op = "clear-splits"  // clear-splits
	OpJoin         Op = "join"          // join
	OpBreak        Op = "break"         // break
	OpIterate      Op = "iterate"       // iterate n [v|h]
	OpRepeatUnit   Op = "repeat-unit"   // repeat-unit
	OpRepeat       Op = "repeat"        // repeat x y
	OpUnit         Op = "unit"          // unit
	OpMeasure      Op = "measure"       // measure
	OpClearMeasure Op = "clear-measure" // clear-measure
	OpLabel        Op = "label"         // label text...
	OpLabelLast    Op = "label-last"    // label-last text...
	OpColor        Op = "color"         // color #rrggbb|name
	OpCopy         Op = "copy"          // copy
	OpDelete       Op = "delete"        // delete
	OpUndo         Op = "undo"          // undo
	OpRedo         Op = "redo"          // redo
	OpHighlight    Op = "highlight"     // highlight on|off
)

// Command is one parsed script line. Only the fields its Op uses are set.
type Command struct {
	Op     Op
	Points []geom.Pt
	Count  int
	Axis   model.Axis
	Text   string
	Flag   bool
	LineNo int // 1-based line in the source
}

// Mutates reports whether the command can change the document.
func (c Command) Mutates() bool {
	switch c.Op {
	case OpSelect, OpSelectAdd, OpDeselect, OpSelectSplit, OpHighlight:
		return false
	}
	return true
}

func (c Command) String() string { return fmt.Sprintf("%d: %s", c.LineNo, c.Op) }

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message) }

// RunError reports the command that aborted a run.
type RunError struct {
	Line int
	Op   Op
	Err  error
}

func (e *RunError) Error() string { return fmt.Sprintf("line %d: %s: %v", e.Line, e.Op, e.Err) }
func (e *RunError) Unwrap() error { return e.Err }
