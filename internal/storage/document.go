/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fractionbars/internal/model"
)

const (
	// FileExt is the conventional extension of document files.
	FileExt        = ".fbar"
	BackupsDirName = "backups"

	stampLayout = "20060102-150405.000"
)

// ErrNoBackup is returned by OpenLatestBackup when no backup exists.
var ErrNoBackup = errors.New("no backups found")

// DocumentHandle ties a document to the file it was loaded from or saved to.
type DocumentHandle struct {
	Path string
	Doc  *model.Document
}

// BackupsDir returns the backup folder used for the document at path.
func BackupsDir(path string) string { return filepath.Join(filepath.Dir(path), BackupsDirName) }

// Create writes doc to a new file at path. An existing file is replaced and
// backed up like any other save.
func Create(path string, doc *model.Document) (*DocumentHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if doc == nil {
		doc = model.NewDocument()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	h := &DocumentHandle{Path: path, Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads and validates the document at path. A corrupt file is an error;
// recovering from a backup is an explicit decision left to the caller
// (see OpenLatestBackup).
func Open(path string) (*DocumentHandle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	doc, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return &DocumentHandle{Path: path, Doc: doc}, nil
}

// Decode validates data against the document schema and unmarshals it.
// On any failure no document is returned.
func Decode(data []byte) (*model.Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if err := normalize(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode renders doc in the indented on-disk form.
func Encode(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// normalize repairs derived fields so the loaded model honors its invariants.
// A size that overflows to infinity marks the document as malformed.
func normalize(doc *model.Document) error {
	var fixBar func(b *model.Bar) error
	fixBar = func(b *model.Bar) error {
		if b == nil {
			return nil
		}
		b.Size = b.W * b.H
		if !finiteSize(b.Size) {
			return fmt.Errorf("%w: bar %q size %gx%g overflows", ErrInvalidDocument, b.ID, b.W, b.H)
		}
		for i := range b.Splits {
			s := &b.Splits[i]
			s.Size = s.W * s.H
			if !finiteSize(s.Size) {
				return fmt.Errorf("%w: split %d of bar %q overflows", ErrInvalidDocument, i, b.ID)
			}
		}
		return fixBar(b.RepeatUnit)
	}
	for _, b := range doc.Bars {
		if err := fixBar(b); err != nil {
			return err
		}
	}
	for _, m := range doc.Mats {
		m.Size = m.W * m.H
		if !finiteSize(m.Size) {
			return fmt.Errorf("%w: mat %q size %gx%g overflows", ErrInvalidDocument, m.ID, m.W, m.H)
		}
	}
	if err := fixBar(doc.UnitBar); err != nil {
		return err
	}
	doc.EnsureIDs()
	return nil
}

func finiteSize(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// Save writes the handle's document with transactional semantics and a
// timestamped backup of the previous file (if present).
func Save(h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if h.Path == "" {
		return errors.New("invalid DocumentHandle: missing path")
	}
	data, err := Encode(h.Doc)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := BackupsDir(h.Path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), time.Now().Format(stampLayout))
		if cerr := copyFile(h.Path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// temp file in the same directory, then rename over the target
	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path and retargets the handle.
func SaveAs(h *DocumentHandle, path string) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if path == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	old := h.Path
	h.Path = path
	if err := Save(h); err != nil {
		h.Path = old
		return err
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory document to a timestamped file in
// the backups folder without touching the document file itself.
func AutosaveCrashSnapshot(h *DocumentHandle) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("invalid DocumentHandle")
	}
	data, err := Encode(h.Doc)
	if err != nil {
		return "", err
	}
	bdir := BackupsDir(h.Path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), time.Now().Format(stampLayout)))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// OpenLatestBackup loads the newest valid backup of the document at path.
// Backups that fail validation are skipped.
func OpenLatestBackup(path string) (*DocumentHandle, error) {
	bdir := BackupsDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoBackup
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoBackup
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = err
			continue
		}
		doc, err := Decode(b)
		if err != nil {
			lastErr = err
			continue
		}
		return &DocumentHandle{Path: path, Doc: doc}, nil
	}
	return nil, fmt.Errorf("no usable backup: %w", lastErr)
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
