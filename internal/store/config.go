package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type Config struct {
	APIURL      string `json:"apiUrl,omitempty"`
	Token       string `json:"token,omitempty"`
	AnnotatorID string `json:"annotatorId,omitempty"`
	// Admin lets the offline workspace modify spans created by others.
	Admin bool `json:"admin,omitempty"`

	// Taxonomy is the annotation list type id fetched for the picker.
	Taxonomy string `json:"taxonomy,omitempty"`
	// StructuralTypes switches the picker to a flat list and enables header moves.
	StructuralTypes  []string `json:"structuralTypes,omitempty"`
	OptimisticPrefix string   `json:"optimisticPrefix,omitempty"`

	Log *LogSettings `json:"log,omitempty"`
	TUI *TUIConfig   `json:"tui,omitempty"`
}

type LogSettings struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

type TUIConfig struct {
	// Profile is the colour profile: auto|truecolor|ansi256|ansi|ascii.
	Profile string `json:"profile,omitempty"`
	// Flash is the navigation highlight duration in milliseconds.
	FlashMillis int `json:"flashMillis,omitempty"`
}

func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("ANNOTATE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// SaveConfig writes the config atomically, keeping the previous file as config.json.bak.
func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o600)
	}
	// Holds the API token.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

var configKeys = map[string]func(*Config, string) error{
	"api-url":      func(c *Config, v string) error { c.APIURL = v; return nil },
	"token":        func(c *Config, v string) error { c.Token = v; return nil },
	"annotator-id": func(c *Config, v string) error { c.AnnotatorID = v; return nil },
	"admin": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("admin: %w", err)
		}
		c.Admin = b
		return nil
	},
	"taxonomy": func(c *Config, v string) error { c.Taxonomy = v; return nil },
	"structural-types": func(c *Config, v string) error {
		c.StructuralTypes = splitList(v)
		return nil
	},
	"optimistic-prefix": func(c *Config, v string) error { c.OptimisticPrefix = v; return nil },
	"log.level":         func(c *Config, v string) error { c.log().Level = v; return nil },
	"log.format":        func(c *Config, v string) error { c.log().Format = v; return nil },
	"log.path":          func(c *Config, v string) error { c.log().Path = v; return nil },
	"tui.profile":       func(c *Config, v string) error { c.tui().Profile = v; return nil },
	"tui.flash-ms": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("tui.flash-ms: expected a non-negative integer, got %q", v)
		}
		c.tui().FlashMillis = n
		return nil
	},
}

// ConfigKeys lists the keys accepted by Set, sorted.
func ConfigKeys() []string {
	out := make([]string, 0, len(configKeys))
	for k := range configKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set assigns one dotted key. Values are trimmed.
func (c *Config) Set(key, value string) error {
	fn, ok := configKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return fn(c, strings.TrimSpace(value))
}

func (c *Config) log() *LogSettings {
	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	return c.Log
}

func (c *Config) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
