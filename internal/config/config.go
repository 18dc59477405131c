/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fractionbars/internal/docstore"
	applog "fractionbars/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	HighlightIterations bool   `yaml:"highlight_iterations"`
	BarColor            string `yaml:"bar_color"`
	MatColor            string `yaml:"mat_color"`
	HistoryDepth        int    `yaml:"history_depth"` // 0 keeps every step
	// CheckpointKeep bounds the journal per document; 0 keeps all.
	CheckpointKeep int `yaml:"checkpoint_keep"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Store         docstore.Config `yaml:"store"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{BarColor: "#FFFF66", MatColor: "#FFFFFF", CheckpointKeep: 200},
		Store:         docstore.Config{Driver: docstore.DriverFilesystem, FSRoot: "published"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile    = "FB_CONFIG"
	EnvHighlight     = "FB_HIGHLIGHT_ITERATIONS"
	EnvBarColor      = "FB_BAR_COLOR"
	EnvHistoryDepth  = "FB_HISTORY_DEPTH"
	EnvStoreDriver   = "FB_STORE_DRIVER"
	EnvStoreFSRoot   = "FB_STORE_FS_ROOT"
	EnvS3Bucket      = "FB_S3_BUCKET"
	EnvS3Region      = "FB_S3_REGION"
	EnvS3Endpoint    = "FB_S3_ENDPOINT"
	EnvS3PathStyle   = "FB_S3_PATH_STYLE"
	EnvS3AccessKeyID = "FB_S3_ACCESS_KEY_ID"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "FB_LOG_LEVEL"
	EnvLogFormat = "FB_LOG_FORMAT"
	EnvLogSource = "FB_LOG_SOURCE"
	EnvLogFile   = "FB_LOG_FILE"
)

// ConfigPath returns the per-user config file path. FB_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "FractionBars")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "FractionBars")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "fractionbars")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "fractionbars")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The S3 secret is read from the keyring into
// Store.S3.SecretAccessKey; it is never part of the YAML.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	if cfg.Store.Driver == docstore.DriverS3 {
		// a missing secret falls back to the default AWS credential chain
		if secret, err := secretStore.Get(keyringService, secretKeyFor(cfg.Store.S3)); err == nil {
			cfg.Store.S3.SecretAccessKey = secret
		}
	}
	return cfg, nil
}

// Save writes the user config YAML and persists the S3 secret into the OS
// keyring when it is set.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if cfg.Store.S3.SecretAccessKey != "" {
		if err := secretStore.Set(keyringService, secretKeyFor(cfg.Store.S3), cfg.Store.S3.SecretAccessKey); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.HighlightIterations = src.General.HighlightIterations
	if s := strings.TrimSpace(src.General.BarColor); s != "" {
		dst.General.BarColor = s
	}
	if s := strings.TrimSpace(src.General.MatColor); s != "" {
		dst.General.MatColor = s
	}
	if src.General.HistoryDepth > 0 {
		dst.General.HistoryDepth = src.General.HistoryDepth
	}
	if src.General.CheckpointKeep != 0 {
		dst.General.CheckpointKeep = src.General.CheckpointKeep
	}
	// store
	if src.Store.Driver != "" {
		dst.Store.Driver = docstore.Driver(strings.ToLower(string(src.Store.Driver)))
	}
	if s := strings.TrimSpace(src.Store.FSRoot); s != "" {
		dst.Store.FSRoot = s
	}
	if src.Store.S3.Bucket != "" {
		dst.Store.S3.Bucket = src.Store.S3.Bucket
	}
	if src.Store.S3.Region != "" {
		dst.Store.S3.Region = src.Store.S3.Region
	}
	if src.Store.S3.Endpoint != "" {
		dst.Store.S3.Endpoint = src.Store.S3.Endpoint
	}
	if src.Store.S3.AccessKeyID != "" {
		dst.Store.S3.AccessKeyID = src.Store.S3.AccessKeyID
	}
	dst.Store.S3.PathStyle = src.Store.S3.PathStyle
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHighlight)); v != "" {
		cfg.General.HighlightIterations = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBarColor)); v != "" {
		cfg.General.BarColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.General.HistoryDepth = n
		}
	}
	// store overrides
	if v := strings.TrimSpace(os.Getenv(EnvStoreDriver)); v != "" {
		cfg.Store.Driver = docstore.Driver(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreFSRoot)); v != "" {
		cfg.Store.FSRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3Bucket)); v != "" {
		cfg.Store.S3.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3Region)); v != "" {
		cfg.Store.S3.Region = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3Endpoint)); v != "" {
		cfg.Store.S3.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3PathStyle)); v != "" {
		cfg.Store.S3.PathStyle = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3AccessKeyID)); v != "" {
		cfg.Store.S3.AccessKeyID = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.highlight_iterations": EnvHighlight,
		"general.bar_color":            EnvBarColor,
		"general.history_depth":        EnvHistoryDepth,
		"store.driver":                 EnvStoreDriver,
		"store.fs_root":                EnvStoreFSRoot,
		"store.s3.bucket":              EnvS3Bucket,
		"store.s3.region":              EnvS3Region,
		"store.s3.endpoint":            EnvS3Endpoint,
		"store.s3.path_style":          EnvS3PathStyle,
		"store.s3.access_key_id":       EnvS3AccessKeyID,
		"logging.level":                EnvLogLevel,
		"logging.format":               EnvLogFormat,
		"logging.source":               EnvLogSource,
		"logging.file":                 EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// LogOptions maps the logging section onto logger options.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
