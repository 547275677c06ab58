package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"cfgfmt/internal/format"
)

const configFileName = "cfgfmt.toml"

// projectConfig mirrors the optional cfgfmt.toml file. Every field is
// optional; fields left out keep the built-in defaults, and explicit
// command-line flags override whatever the file says.
type projectConfig struct {
	Format formatSection `toml:"format"`
}

type formatSection struct {
	Align       string   `toml:"align"`
	TabWidth    int      `toml:"tab_width"`
	KeyCap      int      `toml:"key_cap"`
	CommentCap  int      `toml:"comment_cap"`
	SpecialKeys []string `toml:"special_keys"`
	EchoTables  bool     `toml:"echo_tables"`
	Exclude     []string `toml:"exclude"`
	Backup      bool     `toml:"backup"`
	Encoding    string   `toml:"encoding"`
}

// loadedConfig pairs the decoded file with its metadata, so callers can
// tell an absent field from a zero value.
type loadedConfig struct {
	Path   string
	Config projectConfig
	meta   toml.MetaData
}

// IsSet reports whether the [format] section defines the given key.
func (c *loadedConfig) IsSet(key string) bool {
	if c == nil {
		return false
	}
	return c.meta.IsDefined("format", key)
}

// findConfigFile walks from startDir up to the filesystem root looking
// for cfgfmt.toml.
func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfig(startDir string) (*loadedConfig, error) {
	path, ok, err := findConfigFile(startDir)
	if err != nil || !ok {
		return nil, err
	}
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	loaded := &loadedConfig{Path: path, Config: cfg, meta: meta}
	if loaded.IsSet("align") {
		mode := format.AlignMode(strings.TrimSpace(cfg.Format.Align))
		if err := (format.Options{AlignMode: mode}).Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return loaded, nil
}

// applyConfig folds file-level settings into the engine options. Flag
// overrides happen after this, in runFormat.
func applyConfig(opts *format.Options, loaded *loadedConfig) {
	if loaded == nil {
		return
	}
	cfg := loaded.Config.Format
	if loaded.IsSet("align") {
		opts.AlignMode = format.AlignMode(strings.TrimSpace(cfg.Align))
	}
	if loaded.IsSet("tab_width") {
		opts.TabWidth = cfg.TabWidth
	}
	if loaded.IsSet("key_cap") {
		opts.KeyCap = cfg.KeyCap
	}
	if loaded.IsSet("comment_cap") {
		opts.CommentCap = cfg.CommentCap
	}
	if loaded.IsSet("special_keys") {
		set := make(map[string]struct{}, len(cfg.SpecialKeys))
		for _, k := range cfg.SpecialKeys {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				set[k] = struct{}{}
			}
		}
		opts.SpecialAlignKeys = set
	}
	if loaded.IsSet("echo_tables") {
		opts.EchoAlignTables = cfg.EchoTables
	}
}
