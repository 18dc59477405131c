/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fractionbars/internal/command"
	"fractionbars/internal/config"
	"fractionbars/internal/crash"
	"fractionbars/internal/docstore"
	"fractionbars/internal/export"
	applog "fractionbars/internal/log"
	"fractionbars/internal/model"
	"fractionbars/internal/session"
	"fractionbars/internal/storage"
	"fractionbars/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Fraction Bars: fraction model editor")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  fractionbars version|-v|--version           Show version")
	_, _ = fmt.Fprintln(w, "  fractionbars new <file>                     Create an empty document")
	_, _ = fmt.Fprintln(w, "  fractionbars show <file>                    Print bars, splits and mats")
	_, _ = fmt.Fprintln(w, "  fractionbars run <file> <script> [-dry]     Apply an edit script (checkpointed)")
	_, _ = fmt.Fprintln(w, "  fractionbars export <file> <out.pdf|png|svg> Render the document")
	_, _ = fmt.Fprintln(w, "  fractionbars checkpoints <file>             List journal checkpoints")
	_, _ = fmt.Fprintln(w, "  fractionbars restore <file> [id]            Restore a checkpoint (latest by default)")
	_, _ = fmt.Fprintln(w, "  fractionbars recover <file>                 Restore the newest valid backup")
	_, _ = fmt.Fprintln(w, "  fractionbars publish <file> <key> [-f]      Upload to the shared store")
	_, _ = fmt.Fprintln(w, "  fractionbars fetch <key> <file>             Download from the shared store")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	defer func() { _ = applog.Close() }()
	if cfgErr != nil {
		applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}

	h := &storage.DocumentHandle{}
	defer crash.Recover(h)

	code := run(context.Background(), cfg, os.Args[1:], os.Stdout, h)
	if code != 0 {
		_ = applog.Close()
		os.Exit(code)
	}
}

// cli carries what every subcommand needs. h is shared with crash recovery
// and always points at the document being worked on.
type cli struct {
	cfg config.AppConfig
	out io.Writer
	h   *storage.DocumentHandle
	l   *slog.Logger
}

func run(ctx context.Context, cfg config.AppConfig, args []string, out io.Writer, h *storage.DocumentHandle) int {
	c := &cli{cfg: cfg, out: out, h: h, l: applog.WithComponent("cli")}
	if h == nil {
		c.h = &storage.DocumentHandle{}
	}
	if len(args) == 0 {
		usage(out)
		return 2
	}
	c.l.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(out, version.String())
		return 0
	case "new":
		if len(args) < 2 {
			return c.missing("new requires <file>")
		}
		err = c.newDocument(args[1])
	case "show":
		if len(args) < 2 {
			return c.missing("show requires <file>")
		}
		err = c.show(args[1])
	case "run":
		if len(args) < 3 {
			return c.missing("run requires <file> and <script>")
		}
		err = c.runScript(ctx, args[1], args[2], hasFlag(args[3:], "-dry"))
	case "export":
		if len(args) < 3 {
			return c.missing("export requires <file> and <out>")
		}
		err = c.export(args[1], args[2])
	case "checkpoints":
		if len(args) < 2 {
			return c.missing("checkpoints requires <file>")
		}
		err = c.checkpoints(ctx, args[1])
	case "restore":
		if len(args) < 2 {
			return c.missing("restore requires <file>")
		}
		var id int64
		if len(args) > 2 {
			if id, err = strconv.ParseInt(args[2], 10, 64); err != nil {
				return c.missing("restore: bad checkpoint id " + args[2])
			}
		}
		err = c.restore(ctx, args[1], id)
	case "recover":
		if len(args) < 2 {
			return c.missing("recover requires <file>")
		}
		err = c.recoverBackup(args[1])
	case "publish":
		if len(args) < 3 {
			return c.missing("publish requires <file> and <key>")
		}
		err = c.publish(ctx, args[1], args[2], hasFlag(args[3:], "-f"))
	case "fetch":
		if len(args) < 3 {
			return c.missing("fetch requires <key> and <file>")
		}
		err = c.fetch(ctx, args[1], args[2])
	default:
		usage(out)
		return 2
	}
	if err != nil {
		c.l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	return 0
}

func (c *cli) missing(msg string) int {
	_, _ = fmt.Fprintln(c.out, msg)
	usage(c.out)
	return 2
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

// open loads path into the shared handle.
func (c *cli) open(path string) error {
	abs, _ := filepath.Abs(path)
	h, err := storage.Open(abs)
	if err != nil {
		return err
	}
	*c.h = *h
	return nil
}

// journalName keys a document's checkpoints within its directory's journal.
func journalName(path string) string { return filepath.Base(path) }

func (c *cli) newDocument(path string) error {
	abs, _ := filepath.Abs(path)
	c.l.Info("new document", slog.String("path", abs))
	h, err := storage.Create(abs, model.NewDocument())
	if err != nil {
		return err
	}
	*c.h = *h
	_, _ = fmt.Fprintln(c.out, "Created", abs)
	return nil
}

func (c *cli) show(path string) error {
	if err := c.open(path); err != nil {
		return err
	}
	doc := c.h.Doc
	_, _ = fmt.Fprintf(c.out, "Document: %s\n", c.h.Path)
	_, _ = fmt.Fprintf(c.out, "Bars: %d  Mats: %d\n", len(doc.Bars), len(doc.Mats))
	for i, b := range doc.Bars {
		_, _ = fmt.Fprintf(c.out, "  bar %d  (%g,%g %gx%g) color=%s splits=%d", i+1, b.X, b.Y, b.W, b.H, b.Color, len(b.Splits))
		if b.Label != "" {
			_, _ = fmt.Fprintf(c.out, " label=%q", b.Label)
		}
		if b.Fraction != "" {
			_, _ = fmt.Fprintf(c.out, " fraction=%s", b.Fraction)
		}
		if b.RepeatUnit != nil {
			_, _ = fmt.Fprintf(c.out, " repeat=%gx%g", b.RepeatUnit.W, b.RepeatUnit.H)
		}
		_, _ = fmt.Fprintln(c.out)
	}
	for i, m := range doc.Mats {
		_, _ = fmt.Fprintf(c.out, "  mat %d  (%g,%g %gx%g) color=%s\n", i+1, m.X, m.Y, m.W, m.H, m.Color)
	}
	if u := doc.UnitBar; u != nil {
		_, _ = fmt.Fprintf(c.out, "Unit bar: %gx%g (area %g)\n", u.W, u.H, u.Size)
	}
	return nil
}

func (c *cli) newSession(doc *model.Document) *session.Session {
	g := c.cfg.General
	return session.New(doc, session.Options{
		HighlightIterations: g.HighlightIterations,
		BarColor:            g.BarColor,
		MatColor:            g.MatColor,
		HistoryDepth:        g.HistoryDepth,
	})
}

// runScript applies a script to the document. Every change is checkpointed
// into the directory journal; with dry the file and journal stay untouched.
// Commands applied before a failing one are kept and saved.
func (c *cli) runScript(ctx context.Context, path, scriptPath string, dry bool) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	cmds, perrs := command.Parse(string(src))
	if len(perrs) > 0 {
		for _, e := range perrs {
			_, _ = fmt.Fprintf(c.out, "%s:%d:%d: %s\n", scriptPath, e.Line, e.Column, e.Message)
		}
		return fmt.Errorf("%d parse error(s) in %s", len(perrs), scriptPath)
	}
	if err := c.open(path); err != nil {
		return err
	}
	ctx = applog.WithDocument(ctx, c.h.Path)
	s := c.newSession(c.h.Doc)

	var hook command.Hook
	if !dry {
		j, err := storage.OpenJournal(ctx, filepath.Dir(c.h.Path))
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		name := journalName(c.h.Path)
		hook = func(ctx context.Context, cmd command.Command, doc *model.Document) error {
			c.h.Doc = doc
			_, err := j.SaveCheckpoint(ctx, name, fmt.Sprintf("%d %s", cmd.LineNo, cmd.Op), doc, time.Now())
			return err
		}
		defer func() {
			if n, err := j.PruneCheckpoints(context.Background(), name, c.cfg.General.CheckpointKeep); err != nil {
				c.l.Warn("prune checkpoints failed", slog.Any("err", err))
			} else if n > 0 {
				c.l.Debug("pruned checkpoints", slog.Int64("n", n))
			}
		}()
	}

	res, runErr := command.Run(ctx, s, cmds, hook)
	c.h.Doc = s.Document()
	c.h.Doc.ClearSelection()
	undoDepth, _ := s.HistoryDepth()
	c.l.InfoContext(ctx, "script applied", slog.Int("applied", res.Applied), slog.Int("changed", res.Changed), slog.Int("undo_depth", undoDepth))
	if dry {
		_, _ = fmt.Fprintf(c.out, "Dry run: %d of %d commands applied, %d changed the document\n", res.Applied, len(cmds), res.Changed)
		return runErr
	}
	if res.Changed > 0 {
		if err := storage.Save(c.h); err != nil {
			return errors.Join(runErr, err)
		}
	}
	_, _ = fmt.Fprintf(c.out, "Applied %d of %d commands to %s\n", res.Applied, len(cmds), c.h.Path)
	return runErr
}

func (c *cli) export(path, outPath string) error {
	if err := c.open(path); err != nil {
		return err
	}
	abs, _ := filepath.Abs(outPath)
	opt := export.Options{Title: filepath.Base(c.h.Path), Background: c.cfg.General.MatColor}
	if err := export.Export(c.h.Doc, abs, opt); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.out, "Exported", abs)
	return nil
}

func (c *cli) checkpoints(ctx context.Context, path string) error {
	abs, _ := filepath.Abs(path)
	j, err := storage.OpenJournal(ctx, filepath.Dir(abs))
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	cps, err := j.ListCheckpoints(ctx, journalName(abs), 0)
	if err != nil {
		return err
	}
	if len(cps) == 0 {
		_, _ = fmt.Fprintln(c.out, "No checkpoints.")
		return nil
	}
	for _, cp := range cps {
		_, _ = fmt.Fprintf(c.out, "%6d  %s  %-24s bars=%d mats=%d\n", cp.ID, cp.TS.Local().Format(time.DateTime), cp.Label, len(cp.Doc.Bars), len(cp.Doc.Mats))
	}
	return nil
}

// restore replaces the document with a journal checkpoint. The replaced
// version is kept as a backup by Save.
func (c *cli) restore(ctx context.Context, path string, id int64) error {
	if err := c.open(path); err != nil {
		return err
	}
	j, err := storage.OpenJournal(ctx, filepath.Dir(c.h.Path))
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	var cp *storage.Checkpoint
	if id == 0 {
		cp, err = j.LatestCheckpoint(ctx, journalName(c.h.Path))
	} else {
		var cps []storage.Checkpoint
		cps, err = j.ListCheckpoints(ctx, journalName(c.h.Path), 1<<20)
		for i := range cps {
			if cps[i].ID == id {
				cp = &cps[i]
			}
		}
	}
	if err != nil {
		return err
	}
	if cp == nil {
		return errors.New("no matching checkpoint")
	}
	c.h.Doc = cp.Doc
	if err := storage.Save(c.h); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Restored checkpoint %d (%s)\n", cp.ID, cp.Label)
	return nil
}

func (c *cli) recoverBackup(path string) error {
	abs, _ := filepath.Abs(path)
	h, err := storage.OpenLatestBackup(abs)
	if err != nil {
		return err
	}
	*c.h = *h
	if err := storage.Save(c.h); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.out, "Recovered", abs, "from backup")
	return nil
}

func (c *cli) store(ctx context.Context) (docstore.Store, error) {
	st, err := docstore.Open(ctx, c.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.cfg.Store.Driver, err)
	}
	return st, nil
}

func (c *cli) publish(ctx context.Context, path, key string, overwrite bool) error {
	if err := c.open(path); err != nil {
		return err
	}
	st, err := c.store(ctx)
	if err != nil {
		return err
	}
	info, err := docstore.Publish(ctx, st, key, c.h.Doc, overwrite)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Published %s (%d bytes, %s)\n", info.Key, info.Size, st.Driver())
	return nil
}

func (c *cli) fetch(ctx context.Context, key, path string) error {
	st, err := c.store(ctx)
	if err != nil {
		return err
	}
	doc, err := docstore.Fetch(ctx, st, key)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	h, err := storage.Create(abs, doc)
	if err != nil {
		return err
	}
	*c.h = *h
	_, _ = fmt.Fprintln(c.out, "Fetched", key, "to", abs)
	return nil
}
