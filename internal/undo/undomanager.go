/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps the snapshot history that makes every document edit reversible.
package undo

import (
	"sync"
	"time"

	"fractionbars/internal/model"
)

// Snapshot is a full, independent copy of a document captured before an edit.
// Label names the edit that followed the capture.
type Snapshot struct {
	Label string
	Doc   *model.Document
	TS    time.Time
}

// Config controls history depth.
type Config struct {
	// MaxDepth limits the number of undo snapshots kept (0 means unlimited).
	MaxDepth int
}

// Manager provides undo/redo stacks of document snapshots.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Snapshot
	redo []Snapshot
	now  func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// snapshotOf deep-copies doc and drops selection, which is never restored.
func snapshotOf(label string, doc *model.Document, ts time.Time) Snapshot {
	c := doc.Clone()
	if c == nil {
		c = model.NewDocument()
	}
	c.ClearSelection()
	return Snapshot{Label: label, Doc: c, TS: ts}
}

// Capture records the state of doc before an edit. Any new capture
// invalidates the redo branch.
func (m *Manager) Capture(label string, doc *model.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, snapshotOf(label, doc, m.now()))
	m.redo = nil
	m.enforceCapLocked()
}

// Undo pops the latest snapshot and returns the document to restore. The
// current document is pushed onto the redo stack. It reports false when
// there is nothing to undo.
func (m *Manager) Undo(current *model.Document) (*model.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return nil, false
	}
	s := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, snapshotOf(s.Label, current, m.now()))
	return s.Doc, true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current *model.Document) (*model.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return nil, false
	}
	s := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, snapshotOf(s.Label, current, m.now()))
	m.enforceCapLocked()
	return s.Doc, true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// UndoLabel names the edit the next Undo reverts, or "" when the stack is empty.
func (m *Manager) UndoLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return ""
	}
	return m.undo[len(m.undo)-1].Label
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}

// Stats returns current stack depths for diagnostics.
func (m *Manager) Stats() (undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

func (m *Manager) enforceCapLocked() {
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		// drop the oldest extras
		toDrop := len(m.undo) - m.cfg.MaxDepth
		m.undo = append([]Snapshot{}, m.undo[toDrop:]...)
	}
}
