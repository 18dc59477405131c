/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package command parses and runs line-oriented edit scripts against a
// session, one command per line.
package command

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fractionbars/internal/export"
	"fractionbars/internal/geom"
	"fractionbars/internal/model"
)

var reCommand = regexp.MustCompile(`^([A-Za-z][A-Za-z-]*)(?:\s+(.*))?$`)

// Parse parses script text into commands.
// Syntax:
//   - one command per line, arguments separated by whitespace
//   - blank lines and lines starting with "#" or ";" are ignored
//   - axes are v|vertical or h|horizontal and default to vertical
//
// Every malformed line yields an Error; parsing continues past it.
func Parse(input string) ([]Command, []Error) {
	var cmds []Command
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, ";") {
			continue
		}
		m := reCommand.FindStringSubmatch(trim)
		if m == nil {
			errs = append(errs, Error{Line: lineNo, Column: 1, Message: fmt.Sprintf("malformed line %q", trim)})
			continue
		}
		c, err := parseCommand(Op(strings.ToLower(m[1])), strings.TrimSpace(m[2]))
		if err != nil {
			errs = append(errs, Error{Line: lineNo, Column: len(m[1]) + 2, Message: err.Error()})
			continue
		}
		c.LineNo = lineNo
		cmds = append(cmds, c)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return cmds, errs
}

func parseCommand(op Op, rest string) (Command, error) {
	c := Command{Op: op}
	args := strings.Fields(rest)
	var err error
	switch op {
	case OpBar, OpMat:
		c.Points, err = points(args, 2)
	case OpSelect, OpSelectAdd, OpSelectSplit, OpRepeat:
		c.Points, err = points(args, 1)
	case OpSplit:
		if len(args) == 2 {
			c.Points, err = points(args, 1)
		} else if len(args) == 3 {
			if c.Points, err = points(args[:2], 1); err == nil {
				c.Axis, err = model.ParseAxis(args[2])
			}
		} else {
			err = fmt.Errorf("want x y [v|h], got %d arguments", len(args))
		}
	case OpSplitEven:
		c.Count, c.Axis, err = countAxis(args, model.ErrInvalidSplitCount)
	case OpIterate:
		c.Count, c.Axis, err = countAxis(args, model.ErrInvalidIterateCount)
	case OpLabel, OpLabelLast:
		// the rest of the line verbatim; an empty label clears it
		c.Text = rest
	case OpColor:
		if len(args) != 1 {
			return c, fmt.Errorf("want one color, got %d arguments", len(args))
		}
		if _, err = export.ParseColor(args[0]); err == nil {
			c.Text = args[0]
		}
	case OpHighlight:
		if len(args) != 1 {
			return c, fmt.Errorf("want on|off")
		}
		c.Flag, err = onOff(args[0])
	case OpDeselect, OpClearSplits, OpJoin, OpBreak, OpRepeatUnit, OpUnit,
		OpMeasure, OpClearMeasure, OpCopy, OpDelete, OpUndo, OpRedo:
		if len(args) != 0 {
			err = fmt.Errorf("%s takes no arguments", op)
		}
	default:
		err = fmt.Errorf("unknown command %q", op)
	}
	return c, err
}

func points(args []string, n int) ([]geom.Pt, error) {
	if len(args) != 2*n {
		return nil, fmt.Errorf("want %d coordinates, got %d", 2*n, len(args))
	}
	out := make([]geom.Pt, n)
	for i := 0; i < n; i++ {
		x, err := strconv.ParseFloat(args[2*i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q", args[2*i])
		}
		y, err := strconv.ParseFloat(args[2*i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q", args[2*i+1])
		}
		out[i] = geom.Pt{X: x, Y: y}
	}
	return out, nil
}

func countAxis(args []string, tooMany error) (int, model.Axis, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, model.Vertical, fmt.Errorf("want n [v|h]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, model.Vertical, fmt.Errorf("bad count %q", args[0])
	}
	if n > model.MaxCount {
		return 0, model.Vertical, fmt.Errorf("count %d: %w", n, tooMany)
	}
	axis := model.Vertical
	if len(args) == 2 {
		if axis, err = model.ParseAxis(args[1]); err != nil {
			return 0, model.Vertical, err
		}
	}
	return n, axis, nil
}

func onOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on|off, got %q", s)
}
