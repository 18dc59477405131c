/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package docstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	info, err := st.Put(ctx, "class/a.fbar", strings.NewReader("hello"), PutOptions{ContentType: "text/plain", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 5 || info.ETag == "" {
		t.Fatalf("info got %+v", info)
	}
	if _, err := st.Put(ctx, "class/a.fbar", strings.NewReader("x"), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("second put: got %v want ErrExists", err)
	}
	if _, err := st.Put(ctx, "class/b.fbar", strings.NewReader("bb"), PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if _, err := st.Put(ctx, "other/c.fbar", strings.NewReader("c"), PutOptions{}); err != nil {
		t.Fatalf("put c: %v", err)
	}

	got, rc, err := st.Get(ctx, "class/a.fbar")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("body got %q", body)
	}
	if got.ContentType != "text/plain" || got.Metadata["k"] != "v" {
		t.Fatalf("get info got %+v", got)
	}

	list, err := st.List(ctx, "class/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "class/a.fbar" || list[1].Key != "class/b.fbar" {
		t.Fatalf("list got %+v", list)
	}

	ok, err := st.Delete(ctx, "class/a.fbar")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = st.Delete(ctx, "class/a.fbar")
	if err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if _, err := st.Head(ctx, "class/a.fbar"); !IsNotFound(err) {
		t.Fatalf("head after delete: got %v", err)
	}
	if _, _, err := st.Get(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("get missing: got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	st := NewMemory()
	if st.Driver() != DriverMemory {
		t.Fatalf("driver got %s", st.Driver())
	}
	exerciseStore(t, st)
}

func TestMemoryMetadataIsCopied(t *testing.T) {
	st := NewMemory()
	md := map[string]string{"a": "1"}
	if _, err := st.Put(context.Background(), "k", strings.NewReader(""), PutOptions{Metadata: md}); err != nil {
		t.Fatal(err)
	}
	md["a"] = "2"
	info, err := st.Head(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if info.Metadata["a"] != "1" {
		t.Fatalf("metadata aliased: got %q", info.Metadata["a"])
	}
}

func TestFilesystemStore(t *testing.T) {
	st, err := NewFilesystem(filepath.Join(t.TempDir(), "pub"))
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
}

func TestFilesystemRejectsBadKeys(t *testing.T) {
	st, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"", "  ", "../escape", "/abs", "x.meta"} {
		if _, err := st.Put(context.Background(), k, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", k)
		}
	}
}

func TestFilesystemHeadWithoutSidecar(t *testing.T) {
	root := t.TempDir()
	st, err := NewFilesystem(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "manual.fbar"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := st.Head(context.Background(), "manual.fbar")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Size != 3 {
		t.Fatalf("size got %d want 3", info.Size)
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || st.Driver() != DriverMemory {
		t.Fatalf("memory: %v %v", st, err)
	}
	st, err = Open(ctx, Config{FSRoot: t.TempDir()})
	if err != nil || st.Driver() != DriverFilesystem {
		t.Fatalf("default fs: %v %v", st, err)
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("unknown driver accepted")
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("s3 without bucket accepted")
	}
}
