// Package config loads an arbor application from YAML: the component route
// table, router options, logging and the snapshot store backend.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

// Config is the decoded application file.
type Config struct {
	// Root names the root component.
	Root       string                     `mapstructure:"root"`
	Router     RouterConfig               `mapstructure:"router"`
	Store      StoreConfig                `mapstructure:"store"`
	Log        LogConfig                  `mapstructure:"log"`
	HTTP       HTTPConfig                 `mapstructure:"http"`
	Components map[string]ComponentConfig `mapstructure:"components"`
}

type RouterConfig struct {
	ID          string        `mapstructure:"id"`
	Mode        string        `mapstructure:"mode"`
	DeferUntil  string        `mapstructure:"defer_until"`
	Swap        string        `mapstructure:"swap"`
	HookTimeout time.Duration `mapstructure:"hook_timeout"`
}

// StoreConfig selects the snapshot store. Driver is memory (default), redis,
// bolt or file. Path is the bolt database or the file store directory.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Path     string        `mapstructure:"path"`
	// EncryptionKey is a hex encoded 32 byte key. When set, snapshots are sealed
	// before they reach the store.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// ComponentConfig declares one component. Children entries are either a bare
// component name or a map with component, path and viewport keys.
type ComponentConfig struct {
	Path         string        `mapstructure:"path"`
	Viewports    []string      `mapstructure:"viewports"`
	Default      string        `mapstructure:"default"`
	Children     []ChildConfig `mapstructure:"children"`
	Dependencies []string      `mapstructure:"dependencies"`

	// Refuse makes the component's canLoad guard reject with this reason.
	Refuse string `mapstructure:"refuse"`
	// LoadDelay makes the component's load hook settle after this long.
	LoadDelay time.Duration `mapstructure:"load_delay"`
}

type ChildConfig struct {
	Component string `mapstructure:"component"`
	Path      string `mapstructure:"path"`
	Viewport  string `mapstructure:"viewport"`
}

// Load reads and parses the file at path. Environment references such as
// ${ARBOR_KEY} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML into a Config. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			childHook,
		),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("decode config: root is required")
	}
	return &cfg, nil
}

// childHook turns a bare component name into a ChildConfig.
func childHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(ChildConfig{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return ChildConfig{Component: data.(string)}, nil
}

// RouterOptions converts the router section into runtime options.
func (c *Config) RouterOptions() ([]runtime.Option, error) {
	mode, err := domain.ParseRoutingMode(c.Router.Mode)
	if err != nil {
		return nil, err
	}
	deferUntil, err := domain.ParseDeferUntil(c.Router.DeferUntil)
	if err != nil {
		return nil, err
	}
	swap, err := domain.ParseSwapStrategy(c.Router.Swap)
	if err != nil {
		return nil, err
	}
	opts := []runtime.Option{
		runtime.WithRoutingMode(mode),
		runtime.WithDeferUntil(deferUntil),
		runtime.WithSwapStrategy(swap),
		runtime.WithHookTimeout(c.Router.HookTimeout),
	}
	if c.Router.ID != "" {
		opts = append(opts, runtime.WithID(c.Router.ID))
	}
	return opts, nil
}

// Logger builds the logger described by the log section, writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	switch c.Log.Format {
	case "", "text":
		return logging.NewWithWriter(w, level, false), nil
	case "json":
		return logging.NewWithWriter(w, level, true), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
}
