/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"fractionbars/internal/docstore"
)

type memSecrets map[string]string

func (m memSecrets) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
func (m memSecrets) Set(service, key, value string) error { m[service+"/"+key] = value; return nil }
func (m memSecrets) Delete(service, key string) error {
	if _, ok := m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(m, service+"/"+key)
	return nil
}

func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	old := secretStore
	secretStore = memSecrets{}
	t.Cleanup(func() { secretStore = old })
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Store.Driver, docstore.DriverFilesystem; got != want {
		t.Fatalf("Store.Driver = %q, want %q", got, want)
	}
	if cfg.General.HistoryDepth != 0 {
		t.Fatalf("HistoryDepth = %d, want 0 (unbounded)", cfg.General.HistoryDepth)
	}
}

func TestSaveLoadRoundTripKeepsSecretOutOfFile(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.General.HighlightIterations = true
	cfg.Store.Driver = docstore.DriverS3
	cfg.Store.S3 = docstore.S3Config{Bucket: "lessons", Region: "eu-central-1", AccessKeyID: "AKID", SecretAccessKey: "s3cr3t", PathStyle: true}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); strings.Contains(got, "s3cr3t") {
		t.Fatalf("secret written to config file:\n%s", got)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !got.General.HighlightIterations || got.Store.S3.Bucket != "lessons" || !got.Store.S3.PathStyle {
		t.Fatalf("round trip lost fields: %#v", got)
	}
	if got.Store.S3.SecretAccessKey != "s3cr3t" {
		t.Fatalf("secret = %q, want from keyring", got.Store.S3.SecretAccessKey)
	}
	if err := ForgetSecret(got); err != nil {
		t.Fatalf("ForgetSecret: %v", err)
	}
	if err := ForgetSecret(got); err != nil {
		t.Fatalf("ForgetSecret twice: %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("general: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("malformed YAML accepted")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/fb.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/fb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	opts := dst.Logging.LogOptions()
	if opts.Level != "debug" || !opts.AddSource || opts.File != "C:/tmp/fb.log" {
		t.Fatalf("LogOptions = %#v", opts)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvHighlight, "on")
	t.Setenv(EnvHistoryDepth, "25")
	t.Setenv(EnvStoreDriver, "MEMORY")
	t.Setenv(EnvS3Endpoint, "http://localhost:9000")
	t.Setenv(EnvLogFile, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if !cfg.General.HighlightIterations || cfg.General.HistoryDepth != 25 {
		t.Fatalf("env overrides not applied to general: %#v", cfg.General)
	}
	if cfg.Store.Driver != docstore.DriverMemory || cfg.Store.S3.Endpoint != "http://localhost:9000" {
		t.Fatalf("env overrides not applied to store: %#v", cfg.Store)
	}
	if env, ok := EnvOverrideFor("general.history_depth"); !ok || env != EnvHistoryDepth {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file reported as overridden")
	}
}
