package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the on-disk configuration of the snapshot tool.
type Config struct {
	Snapshot Snapshot `yaml:"snapshot"`
	Log      Log      `yaml:"log"`
	Transfer Transfer `yaml:"transfer"`
	Archive  Archive  `yaml:"archive"`
}

type Snapshot struct {
	// Marker is the tag component that selects saved entities.
	Marker     string `yaml:"marker"`
	MarkLoaded bool   `yaml:"mark_loaded"`
	// OnDanglingReference is one of fabricate, null or error.
	OnDanglingReference string `yaml:"on_dangling_reference"`
	Indent              string `yaml:"indent"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Transfer struct {
	ListenAddr     string `yaml:"listen_addr"`
	Path           string `yaml:"path"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

type Archive struct {
	// Dir holds the archive database. Empty keeps it in memory.
	Dir string `yaml:"dir"`
}

func Default() *Config {
	return &Config{
		Snapshot: Snapshot{
			Marker:              string(snapshot.DefaultMarker),
			MarkLoaded:          true,
			OnDanglingReference: string(snapshot.DanglingFabricate),
		},
		Log: Log{
			Level: "info",
		},
		Transfer: Transfer{
			ListenAddr:     "127.0.0.1:7070",
			Path:           "/snapshot",
			MaxMessageSize: 16 << 20, // 16MB
		},
	}
}

// Load reads a YAML document from r on top of the defaults and validates it.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile is Load for a file path. An empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Snapshot.Marker) == "" {
		return fmt.Errorf("%w: snapshot.marker is empty", ErrInvalidConfig)
	}
	if _, err := snapshot.ParseDanglingPolicy(c.Snapshot.OnDanglingReference); err != nil {
		return fmt.Errorf("%w: snapshot.on_dangling_reference: %v", ErrInvalidConfig, err)
	}
	if strings.Trim(c.Snapshot.Indent, " \t") != "" {
		return fmt.Errorf("%w: snapshot.indent may only hold spaces and tabs", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	if c.Transfer.ListenAddr == "" {
		return fmt.Errorf("%w: transfer.listen_addr is empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Transfer.Path, "/") {
		return fmt.Errorf("%w: transfer.path must start with /", ErrInvalidConfig)
	}
	if c.Transfer.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: transfer.max_message_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// LogLevel returns the parsed log level. Call Validate first.
func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}

// EngineOptions turns the snapshot section into engine options.
func (c *Config) EngineOptions(logger log.Log) snapshot.Options {
	opts := snapshot.DefaultOptions()
	opts.Marker = snapshot.ComponentMarker(c.Snapshot.Marker)
	opts.MarkLoaded = c.Snapshot.MarkLoaded
	opts.OnDangling = snapshot.DanglingPolicy(c.Snapshot.OnDanglingReference)
	opts.Indent = c.Snapshot.Indent
	if logger != nil {
		opts.Logger = logger
	}
	return opts
}
