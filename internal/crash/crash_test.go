/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fractionbars/internal/geom"
	"fractionbars/internal/model"
	"fractionbars/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Fraction Bars Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileInDocumentBackups(t *testing.T) {
	dir := t.TempDir()
	h := &storage.DocumentHandle{Path: filepath.Join(dir, "lesson"+storage.FileExt), Doc: model.NewDocument()}

	path, err := writeReport(h, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.HasPrefix(path, storage.BackupsDir(h.Path)) {
		t.Fatalf("expected crash report under backups dir, got %s", path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Bars: 0 Mats: 0") {
		t.Fatalf("document summary missing: %s", b)
	}
}

// TestRecoverWritesReportAndAutosave checks that Recover handles a panic,
// writes a report and an autosave, and calls exitFn with code 2.
func TestRecoverWritesReportAndAutosave(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	h := &storage.DocumentHandle{}
	func() {
		defer Recover(h)
		// filled after the defer, like main does once the document is open
		h.Path = filepath.Join(dir, "lesson"+storage.FileExt)
		h.Doc = model.NewDocument()
		h.Doc.Bars = append(h.Doc.Bars, model.NewBar(geom.R(0, 0, 50, 20), ""))
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	files, err := os.ReadDir(storage.BackupsDir(h.Path))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var report, snapshot bool
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = true
		case strings.Contains(f.Name(), ".crash-") && strings.HasSuffix(f.Name(), ".json"):
			snapshot = true
		}
	}
	if !report || !snapshot {
		t.Fatalf("report=%v snapshot=%v in %v", report, snapshot, files)
	}
}
