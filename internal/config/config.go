package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/platform"
)

// Config represents the application configuration
type Config struct {
	Driver    string    `yaml:"driver" toml:"driver"`
	PortFloor int       `yaml:"port_floor" toml:"port_floor"`
	Paths     Paths     `yaml:"paths" toml:"paths"`
	Webserver Webserver `yaml:"webserver" toml:"webserver"`
	Store     Store     `yaml:"store" toml:"store"`
	Audit     Audit     `yaml:"audit" toml:"audit"`
	Server    Server    `yaml:"server" toml:"server"`
}

// Paths is the on-disk layout hosts are provisioned into.
type Paths struct {
	ContentRoot string `yaml:"content_root" toml:"content_root"`
	Available   string `yaml:"available" toml:"available"`
	Enabled     string `yaml:"enabled" toml:"enabled"`
}

// Webserver configures the process-control commands.
type Webserver struct {
	// Commands overrides the driver's default command per verb
	// (start, stop, restart, reload, test).
	Commands map[string]string `yaml:"commands,omitempty" toml:"commands,omitempty"`
	Timeout  string            `yaml:"timeout" toml:"timeout"`
}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout.
func (w Webserver) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(w.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Store selects the persistence backend.
type Store struct {
	Driver      string `yaml:"driver" toml:"driver"` // file or redis
	Path        string `yaml:"path,omitempty" toml:"path,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty" toml:"redis_url,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty" toml:"redis_prefix,omitempty"`
}

// Audit selects where lifecycle events go.
type Audit struct {
	Sink   string `yaml:"sink" toml:"sink"` // none, file or redis
	Path   string `yaml:"path,omitempty" toml:"path,omitempty"`
	Stream string `yaml:"stream,omitempty" toml:"stream,omitempty"`
	Buffer int    `yaml:"buffer" toml:"buffer"`
}

// Server configures the HTTP API.
type Server struct {
	Listen  string `yaml:"listen" toml:"listen"`
	PerPage int    `yaml:"per_page" toml:"per_page"`
}

// Store and audit backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"

	SinkNone  = "none"
	SinkFile  = "file"
	SinkRedis = "redis"
)

// Defaults.
const (
	DefaultDriver      = platform.DriverNginxDocker
	DefaultPortFloor   = 8082
	DefaultTimeout     = 30 * time.Second
	DefaultRedisURL    = "redis://127.0.0.1:6379/0"
	DefaultRedisPrefix = "vhostctl"
	DefaultStream      = "vhostctl:events"
	DefaultBuffer      = 256
	DefaultListen      = "127.0.0.1:8080"
	DefaultPerPage     = 20
)

// EnvConfig names the environment variable holding the config path.
const EnvConfig = "VHOSTCTL_CONFIG"

// configDir is the default config directory
const configDir = ".config/vhostctl"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	return NewForDriver(DefaultDriver)
}

// NewForDriver creates a Config with the default layout of driver.
func NewForDriver(driver string) *Config {
	cfg := &Config{Driver: driver}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills every unset field. Paths come from the driver layout.
func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.PortFloor == 0 {
		c.PortFloor = DefaultPortFloor
	}

	layout, err := platform.DetectLayout(c.Driver)
	if err == nil {
		if c.Paths.ContentRoot == "" {
			c.Paths.ContentRoot = layout.ContentRoot
		}
		if c.Paths.Available == "" {
			c.Paths.Available = layout.Available
		}
		if c.Paths.Enabled == "" {
			c.Paths.Enabled = layout.Enabled
		}
	}

	if c.Webserver.Timeout == "" {
		c.Webserver.Timeout = DefaultTimeout.String()
	}

	if c.Store.Driver == "" {
		c.Store.Driver = StoreFile
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(platform.DefaultStateDir, "hosts.yaml")
	}
	if c.Store.RedisURL == "" {
		c.Store.RedisURL = DefaultRedisURL
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = DefaultRedisPrefix
	}

	if c.Audit.Sink == "" {
		c.Audit.Sink = SinkFile
	}
	if c.Audit.Path == "" {
		c.Audit.Path = filepath.Join(platform.DefaultStateDir, "audit.jsonl")
	}
	if c.Audit.Stream == "" {
		c.Audit.Stream = DefaultStream
	}
	if c.Audit.Buffer <= 0 {
		c.Audit.Buffer = DefaultBuffer
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.PerPage <= 0 {
		c.Server.PerPage = DefaultPerPage
	}
}

// Validate checks the configuration for values the orchestrator cannot use.
func (c *Config) Validate() error {
	if !platform.IsKnownDriver(c.Driver) {
		return invalid("unknown driver %q (available: %s)", c.Driver, strings.Join(platform.Drivers(), ", "))
	}
	if c.PortFloor < 1 || c.PortFloor > 65535 {
		return invalid("port_floor %d is outside 1..65535", c.PortFloor)
	}

	for name, p := range map[string]string{
		"paths.content_root": c.Paths.ContentRoot,
		"paths.available":    c.Paths.Available,
		"paths.enabled":      c.Paths.Enabled,
	} {
		if p == "" || !filepath.IsAbs(p) {
			return invalid("%s must be an absolute path, got %q", name, p)
		}
	}
	if filepath.Clean(c.Paths.Available) == filepath.Clean(c.Paths.Enabled) {
		return invalid("paths.available and paths.enabled must differ")
	}

	for verb := range c.Webserver.Commands {
		switch verb {
		case "start", "stop", "restart", "reload", "test":
		default:
			return invalid("unknown webserver command %q", verb)
		}
	}
	if c.Webserver.Timeout != "" {
		if d, err := time.ParseDuration(c.Webserver.Timeout); err != nil || d <= 0 {
			return invalid("webserver.timeout %q is not a positive duration", c.Webserver.Timeout)
		}
	}

	switch c.Store.Driver {
	case StoreFile:
		if !filepath.IsAbs(c.Store.Path) {
			return invalid("store.path must be an absolute path, got %q", c.Store.Path)
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return invalid("store.redis_url is required for the redis store")
		}
	default:
		return invalid("unknown store driver %q (available: file, redis)", c.Store.Driver)
	}

	switch c.Audit.Sink {
	case SinkNone, SinkRedis:
	case SinkFile:
		if !filepath.IsAbs(c.Audit.Path) {
			return invalid("audit.path must be an absolute path, got %q", c.Audit.Path)
		}
	default:
		return invalid("unknown audit sink %q (available: none, file, redis)", c.Audit.Sink)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrap(errors.ErrCodeConfig, fmt.Sprintf(format, args...), nil)
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath resolves the config file path. An explicit path wins over
// VHOSTCTL_CONFIG, which wins over the home directory default.
func ConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from disk and fills unset fields with defaults.
// A missing file is not an error.
func Load(explicit string) (*Config, error) {
	path, err := ConfigPath(explicit)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data, isTOML(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "failed to parse config "+path, err)
	}
	return cfg, nil
}

// Parse decodes raw config bytes and applies defaults.
func Parse(data []byte, asTOML bool) (*Config, error) {
	cfg := &Config{}
	if asTOML {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
