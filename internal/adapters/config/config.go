// Package config loads the daemon configuration: scalar settings come from
// viper (config.toml plus STREAMGUARD_* environment overrides), the backend
// list from a versioned servers.toml decoded with go-toml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName    = "config"
	configType    = "toml"
	configDirName = ".streamguard"
	envPrefix     = "streamguard"

	serversPathKey    = "servers.path"
	pollIntervalKey   = "poll_interval_seconds"
	maxStreamsKey     = "max_streams_per_user"
	exemptKey         = "exempt_usernames"
	fetchFanoutKey    = "fetch_fanout"
	terminateRateKey  = "terminate_rate"
	terminateBurstKey = "terminate_burst"
	logLevelKey       = "log_level"

	serversFileName = "servers.toml"
	schemaVersion   = 1
)

type Config struct {
	PollInterval   time.Duration
	MaxStreams     int
	ExemptUsers    []string
	FetchFanout    int
	TerminateRate  float64
	TerminateBurst int
	LogLevel       slog.Level
	Servers        []Server
}

// Server is one backend entry from servers.toml. APIKey may be a literal or
// a secret reference (env:NAME, file:/path), resolved at wiring time.
type Server struct {
	Name   string
	URL    string
	APIKey string
}

// Configured reports whether the entry carries both an endpoint and a
// credential. Unconfigured entries are skipped, never polled, and never an
// error.
func (s Server) Configured() bool {
	return strings.TrimSpace(s.URL) != "" && strings.TrimSpace(s.APIKey) != ""
}

func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(configDir)
	cfg.AddConfigPath(".")
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(serversPathKey, filepath.Join(configDir, serversFileName))
	cfg.SetDefault(pollIntervalKey, 60)
	cfg.SetDefault(maxStreamsKey, 2)
	cfg.SetDefault(fetchFanoutKey, 4)
	cfg.SetDefault(terminateRateKey, 5.0)
	cfg.SetDefault(terminateBurstKey, 10)
	cfg.SetDefault(logLevelKey, "info")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	pollSeconds := cfg.GetInt(pollIntervalKey)
	if pollSeconds <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", pollIntervalKey, pollSeconds)
	}

	maxStreams := cfg.GetInt(maxStreamsKey)
	if maxStreams < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", maxStreamsKey, maxStreams)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString(logLevelKey))); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", logLevelKey, err)
	}

	servers, err := readServers(cfg.GetString(serversPathKey))
	if err != nil {
		return Config{}, err
	}

	return Config{
		PollInterval:   time.Duration(pollSeconds) * time.Second,
		MaxStreams:     maxStreams,
		ExemptUsers:    cfg.GetStringSlice(exemptKey),
		FetchFanout:    cfg.GetInt(fetchFanoutKey),
		TerminateRate:  cfg.GetFloat64(terminateRateKey),
		TerminateBurst: cfg.GetInt(terminateBurstKey),
		LogLevel:       level,
		Servers:        servers,
	}, nil
}

type serversSchema struct {
	Version int            `toml:"version"`
	Servers []serverSchema `toml:"servers"`
}

type serverSchema struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

func readServers(path string) ([]Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read servers file: %w", err)
	}

	var file serversSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode servers file: %w", err)
	}
	if file.Version != 0 && file.Version != schemaVersion {
		return nil, fmt.Errorf("unsupported servers file version %d", file.Version)
	}

	servers := make([]Server, 0, len(file.Servers))
	for i, entry := range file.Servers {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = fmt.Sprintf("server-%d", i+1)
		}
		servers = append(servers, Server{Name: name, URL: entry.URL, APIKey: entry.APIKey})
	}

	return servers, nil
}
