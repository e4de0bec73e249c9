// Package config loads racer settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/apexracer/go/internal/events"
	"github.com/mcdev12/apexracer/go/internal/race"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Player   PlayerConfig `yaml:"player"`
	Race     RaceConfig   `yaml:"race"`
	Retry    RetryConfig  `yaml:"retry"`
	NATS     NATSConfig   `yaml:"nats"`
	LogLevel string       `yaml:"log_level"`
}

type ServerConfig struct {
	Scheme    string `yaml:"scheme"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	ServerKey string `yaml:"server_key"`
}

// PlayerConfig selects the account. Email and Password, when set, take
// precedence over the device id.
type PlayerConfig struct {
	DeviceID string `yaml:"device_id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type RaceConfig struct {
	LeaderboardID    string `yaml:"leaderboard_id"`
	DefaultRaceID    string `yaml:"default_race_id"`
	RewardHistoryRPC string `yaml:"reward_history_rpc"`
	LeaderboardLimit int    `yaml:"leaderboard_limit"`
}

type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Timeout        time.Duration `yaml:"timeout"`
	// FailFastClientErrors stops retrying on 4xx responses other than 408 and 429.
	FailFastClientErrors bool `yaml:"fail_fast_client_errors"`
}

// NATSConfig enables submission events when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func Default() *Config {
	policy := retry.DefaultPolicy()
	raceCfg := race.DefaultConfig()
	pub := events.DefaultPublisherConfig()

	return &Config{
		Server: ServerConfig{
			Scheme:    "http",
			Host:      "127.0.0.1",
			Port:      7350,
			ServerKey: "defaultkey",
		},
		Player: PlayerConfig{
			DeviceID: defaultDeviceID(),
		},
		Race: RaceConfig{
			LeaderboardID:    raceCfg.LeaderboardID,
			DefaultRaceID:    "default_track",
			RewardHistoryRPC: raceCfg.RewardHistoryRPC,
			LeaderboardLimit: raceCfg.LeaderboardLimit,
		},
		Retry: RetryConfig{
			MaxRetries:     policy.MaxRetries,
			InitialBackoff: policy.InitialBackoff,
			MaxBackoff:     policy.MaxBackoff,
			Timeout:        policy.PerAttemptTimeout,
		},
		NATS: NATSConfig{
			Stream:        pub.Stream,
			SubjectPrefix: pub.SubjectRoot,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Scheme = getEnv("NAKAMA_SCHEME", c.Server.Scheme)
	c.Server.Host = getEnv("NAKAMA_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("NAKAMA_PORT", c.Server.Port)
	c.Server.ServerKey = getEnv("NAKAMA_SERVER_KEY", c.Server.ServerKey)

	c.Player.DeviceID = getEnv("RACER_DEVICE_ID", c.Player.DeviceID)
	c.Player.Username = getEnv("RACER_USERNAME", c.Player.Username)
	c.Player.Email = getEnv("RACER_EMAIL", c.Player.Email)
	c.Player.Password = getEnv("RACER_PASSWORD", c.Player.Password)

	c.Race.LeaderboardID = getEnv("RACER_LEADERBOARD_ID", c.Race.LeaderboardID)
	c.Race.DefaultRaceID = getEnv("RACER_DEFAULT_RACE_ID", c.Race.DefaultRaceID)

	c.Retry.MaxRetries = getEnvAsInt("RETRY_MAX_RETRIES", c.Retry.MaxRetries)
	c.Retry.InitialBackoff = getEnvAsDuration("RETRY_INITIAL_BACKOFF", c.Retry.InitialBackoff)
	c.Retry.MaxBackoff = getEnvAsDuration("RETRY_MAX_BACKOFF", c.Retry.MaxBackoff)
	c.Retry.Timeout = getEnvAsDuration("RETRY_TIMEOUT", c.Retry.Timeout)
	c.Retry.FailFastClientErrors = getEnvAsBool("RETRY_FAIL_FAST_CLIENT_ERRORS", c.Retry.FailFastClientErrors)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Stream = getEnv("NATS_STREAM", c.NATS.Stream)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Host == "" {
		errs = append(errs, errors.New("server host is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	if c.Server.Scheme != "http" && c.Server.Scheme != "https" {
		errs = append(errs, fmt.Errorf("unsupported scheme %q", c.Server.Scheme))
	}
	if c.Player.DeviceID == "" {
		errs = append(errs, errors.New("device id is required"))
	}
	if c.Player.Email != "" && c.Player.Password == "" {
		errs = append(errs, errors.New("password is required with email"))
	}
	if c.Player.Password != "" && c.Player.Email == "" {
		errs = append(errs, errors.New("email is required with password"))
	}
	if c.Race.LeaderboardID == "" {
		errs = append(errs, errors.New("leaderboard id is required"))
	}
	if err := c.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	return errors.Join(errs...)
}

// ServerURL is the REST gateway base address.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Server.Scheme, c.Server.Host, c.Server.Port)
}

func (c *Config) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries:        c.Retry.MaxRetries,
		InitialBackoff:    c.Retry.InitialBackoff,
		MaxBackoff:        c.Retry.MaxBackoff,
		PerAttemptTimeout: c.Retry.Timeout,
	}
}

func (c *Config) RaceConfig() race.Config {
	return race.Config{
		LeaderboardID:    c.Race.LeaderboardID,
		RewardHistoryRPC: c.Race.RewardHistoryRPC,
		LeaderboardLimit: c.Race.LeaderboardLimit,
	}
}

// Events returns the publisher settings, or false when events are disabled.
func (c *Config) Events() (events.PublisherConfig, bool) {
	if c.NATS.URL == "" {
		return events.PublisherConfig{}, false
	}
	pub := events.DefaultPublisherConfig()
	pub.URL = c.NATS.URL
	pub.Stream = c.NATS.Stream
	pub.SubjectRoot = c.NATS.SubjectPrefix
	return pub, true
}

// defaultDeviceID is stable per machine.
func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(host)).String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("750ms") or plain milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
