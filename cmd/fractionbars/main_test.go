/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"fractionbars/internal/config"
	"fractionbars/internal/docstore"
	"fractionbars/internal/storage"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store = docstore.Config{Driver: docstore.DriverFilesystem, FSRoot: filepath.Join(t.TempDir(), "store")}
	return cfg
}

func runCLI(t *testing.T, cfg config.AppConfig, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), cfg, args, &out, nil)
	return code, out.String()
}

func writeScript(t *testing.T, dir, src string) string {
	t.Helper()
	p := filepath.Join(dir, "edit.fbs")
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunScriptCheckpointAndRestore(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "lesson"+storage.FileExt)

	if code, out := runCLI(t, cfg, "new", doc); code != 0 {
		t.Fatalf("new: code %d: %s", code, out)
	}
	script := writeScript(t, dir, "bar 0 0 100 20\nselect 10 10\nsplit-even 4\n")
	if code, out := runCLI(t, cfg, "run", doc, script); code != 0 {
		t.Fatalf("run: code %d: %s", code, out)
	}
	h, err := storage.Open(doc)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(h.Doc.Bars) != 1 || len(h.Doc.Bars[0].Splits) != 4 {
		t.Fatalf("saved document got %+v", h.Doc.Bars)
	}
	if h.Doc.Bars[0].Selected {
		t.Fatalf("selection persisted")
	}

	code, out := runCLI(t, cfg, "checkpoints", doc)
	if code != 0 || strings.Count(out, "bars=1") != 2 {
		t.Fatalf("checkpoints: code %d:\n%s", code, out)
	}

	code, out = runCLI(t, cfg, "show", doc)
	if code != 0 || !strings.Contains(out, "splits=4") {
		t.Fatalf("show: code %d:\n%s", code, out)
	}

	// the first checkpoint is the plain bar
	j, err := storage.OpenJournal(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	cps, err := j.ListCheckpoints(context.Background(), journalName(doc), 0)
	_ = j.Close()
	if err != nil || len(cps) != 2 {
		t.Fatalf("list: %v %d", err, len(cps))
	}
	oldest := cps[len(cps)-1]
	if code, out := runCLI(t, cfg, "restore", doc, itoa(oldest.ID)); code != 0 {
		t.Fatalf("restore: code %d: %s", code, out)
	}
	h, err = storage.Open(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Doc.Bars) != 1 || len(h.Doc.Bars[0].Splits) != 0 {
		t.Fatalf("restored document got %+v", h.Doc.Bars[0])
	}
}

func TestRunScriptDryAndParseErrors(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "lesson"+storage.FileExt)
	if code, _ := runCLI(t, cfg, "new", doc); code != 0 {
		t.Fatal("new failed")
	}
	script := writeScript(t, dir, "bar 0 0 100 20\n")
	code, out := runCLI(t, cfg, "run", doc, script, "-dry")
	if code != 0 || !strings.Contains(out, "Dry run: 1 of 1") {
		t.Fatalf("dry run: code %d: %s", code, out)
	}
	h, _ := storage.Open(doc)
	if len(h.Doc.Bars) != 0 {
		t.Fatalf("dry run saved the document")
	}
	if _, err := os.Stat(storage.JournalPath(dir)); !os.IsNotExist(err) {
		t.Fatalf("dry run created a journal: %v", err)
	}

	bad := writeScript(t, dir, "bar 0 0\nfrobnicate\n")
	code, out = runCLI(t, cfg, "run", doc, bad)
	if code != 1 || !strings.Contains(out, ":1:") || !strings.Contains(out, ":2:") {
		t.Fatalf("parse errors: code %d: %s", code, out)
	}
}

func TestRunScriptKeepsEditsBeforeFailure(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "lesson"+storage.FileExt)
	if code, _ := runCLI(t, cfg, "new", doc); code != 0 {
		t.Fatal("new failed")
	}
	script := writeScript(t, dir, "bar 0 0 100 20\nselect 10 10\njoin\n")
	code, out := runCLI(t, cfg, "run", doc, script)
	if code != 1 || !strings.Contains(out, "line 3") {
		t.Fatalf("run: code %d: %s", code, out)
	}
	h, _ := storage.Open(doc)
	if len(h.Doc.Bars) != 1 {
		t.Fatalf("bars got %d want 1", len(h.Doc.Bars))
	}
}

func TestExportPublishFetch(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "lesson"+storage.FileExt)
	if code, _ := runCLI(t, cfg, "new", doc); code != 0 {
		t.Fatal("new failed")
	}
	if code, out := runCLI(t, cfg, "run", doc, writeScript(t, dir, "bar 0 0 100 20\nmat 0 40 60 80\n")); code != 0 {
		t.Fatalf("run: %s", out)
	}
	svg := filepath.Join(dir, "out", "lesson.svg")
	if code, out := runCLI(t, cfg, "export", doc, svg); code != 0 {
		t.Fatalf("export: %s", out)
	}
	if _, err := os.Stat(svg); err != nil {
		t.Fatalf("svg missing: %v", err)
	}
	if code, _ := runCLI(t, cfg, "export", doc, filepath.Join(dir, "x.bmp")); code != 1 {
		t.Fatalf("unsupported format accepted")
	}

	if code, out := runCLI(t, cfg, "publish", doc, "class/lesson.fbar"); code != 0 {
		t.Fatalf("publish: %s", out)
	}
	if code, _ := runCLI(t, cfg, "publish", doc, "class/lesson.fbar"); code != 1 {
		t.Fatalf("second publish without -f succeeded")
	}
	if code, out := runCLI(t, cfg, "publish", doc, "class/lesson.fbar", "-f"); code != 0 {
		t.Fatalf("publish -f: %s", out)
	}
	copyPath := filepath.Join(dir, "copy"+storage.FileExt)
	if code, out := runCLI(t, cfg, "fetch", "class/lesson.fbar", copyPath); code != 0 {
		t.Fatalf("fetch: %s", out)
	}
	orig, _ := storage.Open(doc)
	got, err := storage.Open(copyPath)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Doc.Equal(orig.Doc) {
		t.Fatalf("fetched document differs")
	}
}

func TestUsageAndVersion(t *testing.T) {
	cfg := testConfig(t)
	if code, out := runCLI(t, cfg); code != 2 || !strings.Contains(out, "Usage:") {
		t.Fatalf("no args: code %d", code)
	}
	if code, out := runCLI(t, cfg, "version"); code != 0 || strings.TrimSpace(out) == "" {
		t.Fatalf("version: code %d", code)
	}
	if code, _ := runCLI(t, cfg, "show"); code != 2 {
		t.Fatalf("show without file: code %d", code)
	}
	if code, _ := runCLI(t, cfg, "show", filepath.Join(t.TempDir(), "missing.fbar")); code != 1 {
		t.Fatalf("show missing: code %d", code)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
