package config

import (
	"os"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration when --config is not given.
const DefaultPath = "frontdesk.yml"

// Config represents the top-level frontdesk.yml configuration
type Config struct {
	Version string        `yaml:"version"`
	Hotel   HotelConfig   `yaml:"hotel"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Redis   RedisConfig   `yaml:"redis,omitempty"`
	Remote  RemoteConfig  `yaml:"remote,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Admin   AdminConfig   `yaml:"admin,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// HotelConfig describes the room grid
type HotelConfig struct {
	Name          string  `yaml:"name"`
	Floors        int     `yaml:"floors,omitempty"`          // Default: 5
	RoomsPerFloor int     `yaml:"rooms_per_floor,omitempty"` // Default: 4
	DefaultRate   float64 `yaml:"default_rate,omitempty"`    // Default: 2500
}

// StorageConfig points at the folder tree mirror
type StorageConfig struct {
	BaseDir          string `yaml:"base_dir,omitempty"`           // Empty disables the folder tree
	SnapshotMaxItems int    `yaml:"snapshot_max_items,omitempty"` // Default: 500
}

// RedisConfig specifies the shared store connection
type RedisConfig struct {
	URL string `yaml:"url,omitempty"` // Default: redis://localhost:6379
}

// RemoteConfig specifies the optional remote state API
type RemoteConfig struct {
	APIBase       string `yaml:"api_base,omitempty"`       // Empty disables remote sync
	FlushInterval string `yaml:"flush_interval,omitempty"` // Go duration, default: 5s
}

// ServerConfig specifies the HTTP listener
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"` // Default: :4000
}

// AdminConfig guards ledger edits and deletes
type AdminConfig struct {
	Password string `yaml:"password,omitempty"` // Default: 1234
}

// LoggingConfig controls the root logger
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // Default: info
	Format string `yaml:"format,omitempty"` // "json" or "console", default: console
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{Version: "1.0", Hotel: HotelConfig{Name: "default"}}
	// Defaults always validate.
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return errors.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Hotel.Name == "" {
		return errors.New("hotel.name is required")
	}
	if strings.ContainsAny(c.Hotel.Name, ": ") {
		return errors.Errorf("hotel.name must not contain spaces or colons: %q", c.Hotel.Name)
	}

	if c.Hotel.Floors == 0 {
		c.Hotel.Floors = 5
	}
	if c.Hotel.RoomsPerFloor == 0 {
		c.Hotel.RoomsPerFloor = 4
	}
	if c.Hotel.DefaultRate == 0 {
		c.Hotel.DefaultRate = 2500
	}
	if c.Hotel.Floors < 1 || c.Hotel.Floors > 99 {
		return errors.Errorf("hotel.floors must be between 1 and 99, got %d", c.Hotel.Floors)
	}
	if c.Hotel.RoomsPerFloor < 1 || c.Hotel.RoomsPerFloor > 99 {
		return errors.Errorf("hotel.rooms_per_floor must be between 1 and 99, got %d", c.Hotel.RoomsPerFloor)
	}
	if c.Hotel.DefaultRate < 0 {
		return errors.Errorf("hotel.default_rate must be >= 0, got %v", c.Hotel.DefaultRate)
	}

	if c.Storage.SnapshotMaxItems == 0 {
		c.Storage.SnapshotMaxItems = 500
	}
	if c.Storage.SnapshotMaxItems < 0 {
		return errors.Errorf("storage.snapshot_max_items must be > 0, got %d", c.Storage.SnapshotMaxItems)
	}

	if c.Redis.URL == "" {
		c.Redis.URL = "redis://localhost:6379"
	}

	if c.Remote.FlushInterval == "" {
		c.Remote.FlushInterval = "5s"
	}
	d, err := time.ParseDuration(c.Remote.FlushInterval)
	if err != nil {
		return errors.Errorf("remote.flush_interval: %w", err)
	}
	if d <= 0 {
		return errors.Errorf("remote.flush_interval must be positive, got %s", d)
	}
	c.Remote.APIBase = strings.TrimRight(c.Remote.APIBase, "/")

	if c.Server.Listen == "" {
		c.Server.Listen = ":4000"
	}

	if c.Admin.Password == "" {
		c.Admin.Password = "1234"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return errors.Errorf("invalid logging.format: %s (must be 'console' or 'json')", c.Logging.Format)
	}

	return nil
}

// ApplyEnv overrides configuration from FRONTDESK_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("FRONTDESK_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := getenv("FRONTDESK_BASE_DIR"); v != "" {
		c.Storage.BaseDir = v
	}
	if v := getenv("FRONTDESK_API_BASE"); v != "" {
		c.Remote.APIBase = v
	}
	if v := getenv("FRONTDESK_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := getenv("FRONTDESK_ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
}

// Layout returns the room grid shape.
func (c *Config) Layout() desk.Layout {
	return desk.Layout{
		Floors:        c.Hotel.Floors,
		RoomsPerFloor: c.Hotel.RoomsPerFloor,
		DefaultRate:   c.Hotel.DefaultRate,
	}
}

// FlushEvery returns the parsed remote flush interval.
func (c *Config) FlushEvery() time.Duration {
	d, err := time.ParseDuration(c.Remote.FlushInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Load reads and validates frontdesk.yml from the specified path.
// Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Errorf("failed to parse YAML: %w", err)
	}

	config.ApplyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, errors.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to defaults plus environment when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c := Default()
		c.ApplyEnv(os.Getenv)
		if err := c.Validate(); err != nil {
			return nil, errors.Errorf("invalid configuration: %w", err)
		}
		return c, nil
	}
	return Load(path)
}

// Template is the frontdesk.yml written by `frontdesk init`.
const Template = `version: "1.0"

hotel:
  name: %s
  floors: 5
  rooms_per_floor: 4
  default_rate: 2500

storage:
  # Folder tree mirror. Leave empty to run without one.
  base_dir: %s
  snapshot_max_items: 500

redis:
  url: redis://localhost:6379

remote:
  # Remote state API, e.g. https://example.com/api. Leave empty to disable.
  api_base: ""
  flush_interval: 5s

server:
  listen: ":4000"

admin:
  password: "1234"

logging:
  level: info
  format: console
`
