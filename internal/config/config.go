package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the settings shared by the TUI and the daemon. Fields
// absent from the file keep their defaults, so a partial config is fine.
type Config struct {
	// ServerAddr is the daemon's HTTP address for uploads and summaries.
	ServerAddr string `yaml:"server_addr"`

	// EventAddr is the daemon's event socket. "unix:" prefixed values
	// use a unix socket, everything else is dialed as TCP.
	EventAddr string `yaml:"event_addr"`

	// DataDir holds uploads, compiled subtitle files and the cache
	// database on the daemon side.
	DataDir string `yaml:"data_dir"`

	// DebounceMS is the subtitle recompile window in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	Whisper struct {
		Command string `yaml:"command"`
		Model   string `yaml:"model"`
		// ChunkSeconds splits long files so partial results stream out
		// while later chunks are still transcribing.
		ChunkSeconds int `yaml:"chunk_seconds"`
	} `yaml:"whisper"`

	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
}

func defaultConfig() *Config {
	c := &Config{}
	c.ServerAddr = "http://127.0.0.1:8754"
	c.EventAddr = "127.0.0.1:8755"
	c.DataDir = "."
	c.DebounceMS = 300
	c.Whisper.Command = "whisper"
	c.Whisper.Model = "base"
	c.Whisper.ChunkSeconds = 30
	c.OpenAI.Model = "gpt-4o-mini"
	return c
}

// Load reads the config file at path. A missing file is not an error;
// the defaults are returned so both binaries run without any setup.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = "livecap.yaml"
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.normalize()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if addr := os.Getenv("LIVECAP_SERVER"); addr != "" {
		c.ServerAddr = addr
	}
	if addr := os.Getenv("LIVECAP_EVENT_ADDR"); addr != "" {
		c.EventAddr = addr
	}
	c.ServerAddr = strings.TrimRight(strings.TrimSpace(c.ServerAddr), "/")
	c.EventAddr = strings.TrimSpace(c.EventAddr)
	c.DataDir = filepath.Clean(c.DataDir)

	if c.DebounceMS <= 0 {
		c.DebounceMS = 300
	}
	if c.Whisper.Command == "" {
		c.Whisper.Command = "whisper"
	}
	if c.Whisper.ChunkSeconds <= 0 {
		c.Whisper.ChunkSeconds = 30
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
}

// Debounce returns the recompile window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
