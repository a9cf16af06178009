// Package config holds the server settings. Values start from Default, are overlaid by an
// optional TOML file and finally by command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ananthvk/simpleredis/internal/cmap"
	"github.com/spf13/afero"
)

var ErrInvalidConfig = errors.New("invalid config")

// DefaultMaxRequestSize is 64 MiB.
const DefaultMaxRequestSize = 64 * 1024 * 1024

type Config struct {
	Host string
	Port int
	// MetricsAddr is the listen address of the Prometheus endpoint. Empty disables it.
	MetricsAddr string
	LogLevel    string
	LogFormat   string
	ShardCount  int
	// MaxCommandsPerSecond throttles each connection. Zero disables throttling.
	MaxCommandsPerSecond int
	// ReadBufferSize is the size of a single read from a connection.
	ReadBufferSize int
	// MaxRequestSize bounds the bytes a single request frame may occupy.
	MaxRequestSize int
}

// fileConfig maps config.toml keys to Config fields.
type fileConfig struct {
	Host                 string `toml:"host"`
	Port                 int    `toml:"port"`
	MetricsAddr          string `toml:"metrics_addr"`
	LogLevel             string `toml:"log_level"`
	LogFormat            string `toml:"log_format"`
	ShardCount           int    `toml:"shard_count"`
	MaxCommandsPerSecond int    `toml:"max_commands_per_second"`
	ReadBufferSize       int    `toml:"read_buffer_size"`
	MaxRequestSize       int    `toml:"max_request_size"`
}

func Default() Config {
	return Config{
		Host:                 "0.0.0.0",
		Port:                 6379,
		MetricsAddr:          "",
		LogLevel:             "info",
		LogFormat:            "text",
		ShardCount:           cmap.DefaultShardCount,
		MaxCommandsPerSecond: 0,
		ReadBufferSize:       4096,
		MaxRequestSize:       DefaultMaxRequestSize,
	}
}

// Load reads the TOML file at path from fs and overlays the keys it defines on Default.
// An empty path returns the defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if !exists {
		return Config{}, fmt.Errorf("load config: %s does not exist", path)
	}
	isDir, err := afero.IsDir(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if isDir {
		return Config{}, fmt.Errorf("load config: %s is a directory", path)
	}

	file, err := fs.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	defer file.Close()

	var raw fileConfig
	meta, err := toml.NewDecoder(file).Decode(&raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("shard_count") {
		cfg.ShardCount = raw.ShardCount
	}
	if meta.IsDefined("max_commands_per_second") {
		cfg.MaxCommandsPerSecond = raw.MaxCommandsPerSecond
	}
	if meta.IsDefined("read_buffer_size") {
		cfg.ReadBufferSize = raw.ReadBufferSize
	}
	if meta.IsDefined("max_request_size") {
		cfg.MaxRequestSize = raw.MaxRequestSize
	}

	return cfg, cfg.Validate()
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if !cmap.IsValidShardCount(c.ShardCount) {
		return fmt.Errorf("%w: shard_count %d must be a positive power of two", ErrInvalidConfig, c.ShardCount)
	}
	if c.MaxCommandsPerSecond < 0 {
		return fmt.Errorf("%w: max_commands_per_second must not be negative", ErrInvalidConfig)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: read_buffer_size must be positive", ErrInvalidConfig)
	}
	if c.MaxRequestSize <= 0 {
		return fmt.Errorf("%w: max_request_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format %q (expected text or json)", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}
