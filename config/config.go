package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	defaultPath       = "./config/config.yaml"
	envPath           = "CONFIG_PATH"
	envAdminToken     = "SIGNAL_ADMIN_TOKEN"
	defaultCleanup    = 30 * time.Second
	defaultReqTimeout = 30 * time.Second
	defaultShutdown   = 10 * time.Second
)

type HTTP struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowedOrigins"`
	RequestTimeout  string   `yaml:"requestTimeout"`  // 30s
	ShutdownTimeout string   `yaml:"shutdownTimeout"` // 10s
}

type GRPC struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"adminToken"` // empty: admin API unauthenticated
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // signal-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Rooms struct {
	CleanupDelay string `yaml:"cleanupDelay"` // 30s
	PinCost      int    `yaml:"pinCost"`      // bcrypt cost, 0 = default
}

type Signal struct {
	SendBuffer     int    `yaml:"sendBuffer"`
	MaxMessageSize int64  `yaml:"maxMessageSize"`
	PongWait       string `yaml:"pongWait"`
	WriteWait      string `yaml:"writeWait"`
}

type ICEServer struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username"`
	Credential string   `yaml:"credential"`
}

type ICE struct {
	Servers []ICEServer `yaml:"servers"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Logging Logging `yaml:"logging"`
	Rooms   Rooms   `yaml:"rooms"`
	Signal  Signal  `yaml:"signal"`
	ICE     ICE     `yaml:"ice"`
}

// LoadConfig reads path, else $CONFIG_PATH, else ./config/config.yaml. A
// missing default file yields the defaults; a missing explicit file is an
// error.
func LoadConfig(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(envPath)
	}
	if path == "" {
		path = defaultPath
		explicit = false
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if tok := os.Getenv(envAdminToken); tok != "" {
		cfg.GRPC.AdminToken = tok
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	_ = cfg.validate()
	return &cfg
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}
	if c.HTTP.Addr == c.GRPC.Addr {
		return errors.New("http.addr and grpc.addr must differ")
	}

	// defaults
	if c.Logging.Service == "" {
		c.Logging.Service = "signal-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Logging.Backend != "std" && c.Logging.Backend != "zap" {
		return fmt.Errorf("logging.backend: unknown backend %q", c.Logging.Backend)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.Rooms.PinCost != 0 && (c.Rooms.PinCost < bcrypt.MinCost || c.Rooms.PinCost > bcrypt.MaxCost) {
		return fmt.Errorf("rooms.pinCost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Signal.SendBuffer < 0 || c.Signal.MaxMessageSize < 0 {
		return errors.New("signal limits must not be negative")
	}
	for i, s := range c.ICE.Servers {
		if len(s.URLs) == 0 {
			return fmt.Errorf("ice.servers[%d]: urls are required", i)
		}
	}
	return nil
}

func (r Rooms) CleanupDelayOrDefault() time.Duration {
	return parseDurationOr(defaultCleanup, r.CleanupDelay)
}

func (h HTTP) RequestTimeoutOrDefault() time.Duration {
	return parseDurationOr(defaultReqTimeout, h.RequestTimeout)
}

func (h HTTP) ShutdownTimeoutOrDefault() time.Duration {
	return parseDurationOr(defaultShutdown, h.ShutdownTimeout)
}

// PongWait and WriteWait return 0 when unset so the transport picks its own.
func (s Signal) PongWaitOrZero() time.Duration {
	return parseDurationOr(0, s.PongWait)
}

func (s Signal) WriteWaitOrZero() time.Duration {
	return parseDurationOr(0, s.WriteWait)
}

func (l Logging) SlogLevel() slog.Level {
	lvl, _ := parseLevel(l.Level)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// parseDurationOr falls back to def for empty, invalid or non-positive values.
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
