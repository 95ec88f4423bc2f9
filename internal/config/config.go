package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Dashboard DashboardConfig `yaml:"dashboard,omitempty"`
	Archive   ArchiveConfig   `yaml:"archive,omitempty"`
	MQTT      MQTTConfig      `yaml:"mqtt,omitempty"`
	Redis     RedisConfig     `yaml:"redis,omitempty"`
	Simulator SimulatorConfig `yaml:"simulator,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty"`            // e.g., ":8081"
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"` // CORS origins (default: *)
}

// DashboardConfig tunes the live window and the bill projection
type DashboardConfig struct {
	MaxPoints       int      `yaml:"max_points,omitempty"`     // Live window size (fallback: 60)
	HistoryPoints   int      `yaml:"history_points,omitempty"` // Chart size (fallback: 30)
	RatePerKWh      float64  `yaml:"rate_per_kwh,omitempty"`   // Tariff (fallback: 0.18)
	Recommendations []string `yaml:"recommendations,omitempty"`
}

// ArchiveConfig controls the asynchronous durable write path
type ArchiveConfig struct {
	Disabled   bool `yaml:"disabled,omitempty"`
	BufferSize int  `yaml:"buffer_size,omitempty"` // Pending jobs before dropping (fallback: 1024)
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // e.g., "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`    // fallback: "greenmeter"
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: "greenmeter"
	Subscribe   bool   `yaml:"subscribe,omitempty"`    // Accept readings on <prefix>/ingest
}

// RedisConfig holds the recent-readings cache configuration
type RedisConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`                   // e.g., "localhost:6379"
	Password    string `yaml:"password,omitempty"`
	DB          int    `yaml:"db,omitempty"`
	RecentLimit int    `yaml:"recent_limit,omitempty"` // fallback: 1000
}

// SimulatorConfig holds settings for the sensor simulator
type SimulatorConfig struct {
	URL         string        `yaml:"url,omitempty"`      // fallback: "http://127.0.0.1:8081"
	Interval    time.Duration `yaml:"interval,omitempty"` // fallback: 5s
	Timeout     time.Duration `yaml:"timeout,omitempty"`  // fallback: 3s
	PowerValues []float64     `yaml:"power_values,omitempty"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`  // Optional JSON log file
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetAddr returns the HTTP listen address with a default of :8081
func (c *Config) GetAddr() string {
	if c.Server.Addr == "" {
		return ":8081"
	}
	return c.Server.Addr
}

// GetAllowedOrigins returns the CORS origins, allowing any origin by default
func (c *Config) GetAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.Server.AllowedOrigins
}

// GetRecommendations returns the configured tips, or nil to use the built-in list
func (c *Config) GetRecommendations() []string {
	if len(c.Dashboard.Recommendations) == 0 {
		return nil
	}
	return c.Dashboard.Recommendations
}

// GetArchiveBufferSize returns the archive queue size with a default of 1024
func (c *Config) GetArchiveBufferSize() int {
	if c.Archive.BufferSize <= 0 {
		return 1024
	}
	return c.Archive.BufferSize
}

// GetMQTTClientID returns the MQTT client id
func (c *Config) GetMQTTClientID() string {
	if c.MQTT.ClientID == "" {
		return "greenmeter"
	}
	return c.MQTT.ClientID
}

// GetMQTTTopicPrefix returns the MQTT topic prefix
func (c *Config) GetMQTTTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "greenmeter"
	}
	return c.MQTT.TopicPrefix
}

// GetRedisRecentLimit returns how many readings the Redis list keeps
func (c *Config) GetRedisRecentLimit() int {
	if c.Redis.RecentLimit <= 0 {
		return 1000
	}
	return c.Redis.RecentLimit
}

// GetSimulatorURL returns the base URL the simulator posts to
func (c *Config) GetSimulatorURL() string {
	if c.Simulator.URL == "" {
		return "http://127.0.0.1:8081"
	}
	return c.Simulator.URL
}

// GetSimulatorInterval returns the delay between simulated readings
func (c *Config) GetSimulatorInterval() time.Duration {
	if c.Simulator.Interval <= 0 {
		return 5 * time.Second
	}
	return c.Simulator.Interval
}

// GetSimulatorTimeout returns the per-request timeout of the simulator
func (c *Config) GetSimulatorTimeout() time.Duration {
	if c.Simulator.Timeout <= 0 {
		return 3 * time.Second
	}
	return c.Simulator.Timeout
}

// GetSimulatorPowerValues returns the candidate wattages for simulated readings
func (c *Config) GetSimulatorPowerValues() []float64 {
	if len(c.Simulator.PowerValues) == 0 {
		return []float64{120, 240, 360, 480, 600, 720, 960, 1080}
	}
	return c.Simulator.PowerValues
}

// GetLogLevel returns the configured log level name with a default of info
func (c *Config) GetLogLevel() string {
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}
