// Package config loads monitor settings from an optional YAML file, a .env file
// and UPTIME_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Monitor MonitorConfig `yaml:"monitor"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // file, memory or postgres
	Dir         string `yaml:"dir"`
	ItemsKey    string `yaml:"items_key"`
	PostgresURL string `yaml:"postgres_url"`
	Table       string `yaml:"table"`
}

type MonitorConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	MinInterval     int           `yaml:"min_interval"`
	Parallelism     int           `yaml:"parallelism"`
	ChecksPerSecond float64       `yaml:"checks_per_second"`
}

type LogConfig struct {
	Console    bool     `yaml:"console"`
	Files      []string `yaml:"files"`
	Debug      bool     `yaml:"debug"`
	CheckLevel string   `yaml:"check_level"` // none, error, info, debug
}

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver:   DriverFile,
			Dir:      "./data",
			ItemsKey: "monitoredItems",
			Table:    "kv_entries",
		},
		Monitor: MonitorConfig{
			Timeout:     10 * time.Second,
			MinInterval: 5,
			Parallelism: 10,
		},
		Log: LogConfig{
			Console:    true,
			CheckLevel: "info",
		},
	}
}

// UnmarshalYAML starts from the defaults so a partial file only overrides what it names.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type raw Config
	r := raw(Default())
	if err := value.Decode(&r); err != nil {
		return err
	}
	*c = Config(r)
	return nil
}

// Load reads path (optional), then .env and the environment, and validates the result.
func Load(path string) (*Config, error) {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyEnv(c *Config) {
	c.Server.Addr = getEnv("UPTIME_ADDR", c.Server.Addr)
	if origins := splitCSV(os.Getenv("UPTIME_CORS_ORIGINS")); origins != nil {
		c.Server.CORSOrigins = origins
	}
	c.Storage.Driver = getEnv("UPTIME_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Dir = getEnv("UPTIME_STORAGE_DIR", c.Storage.Dir)
	c.Storage.ItemsKey = getEnv("UPTIME_ITEMS_KEY", c.Storage.ItemsKey)
	c.Storage.PostgresURL = getEnv("UPTIME_POSTGRES_URL", c.Storage.PostgresURL)
	c.Storage.Table = getEnv("UPTIME_POSTGRES_TABLE", c.Storage.Table)
	c.Monitor.Timeout = getDuration("UPTIME_TIMEOUT", c.Monitor.Timeout)
	c.Monitor.MinInterval = getInt("UPTIME_MIN_INTERVAL", c.Monitor.MinInterval)
	c.Monitor.Parallelism = getInt("UPTIME_PARALLELISM", c.Monitor.Parallelism)
	c.Monitor.ChecksPerSecond = getFloat("UPTIME_CHECKS_PER_SECOND", c.Monitor.ChecksPerSecond)
	c.Log.Console = getBool("UPTIME_LOG_CONSOLE", c.Log.Console)
	if files := splitCSV(os.Getenv("UPTIME_LOG_FILES")); files != nil {
		c.Log.Files = files
	}
	c.Log.Debug = getBool("UPTIME_LOG_DEBUG", c.Log.Debug)
	c.Log.CheckLevel = getEnv("UPTIME_CHECK_LOG_LEVEL", c.Log.CheckLevel)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return fmt.Errorf("storage.dir cannot be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresURL) == "" {
			return fmt.Errorf("storage.postgres_url is required for the postgres driver")
		}
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return fmt.Errorf("storage.dir cannot be empty (check logs are kept on disk)")
		}
	default:
		return fmt.Errorf("storage.driver must be one of file, memory, postgres (got %q)", c.Storage.Driver)
	}
	if c.Monitor.Timeout <= 0 {
		return fmt.Errorf("monitor.timeout must be positive")
	}
	if c.Monitor.MinInterval <= 0 {
		return fmt.Errorf("monitor.min_interval must be positive")
	}
	if c.Monitor.Parallelism <= 0 {
		return fmt.Errorf("monitor.parallelism must be positive")
	}
	if c.Monitor.ChecksPerSecond < 0 {
		return fmt.Errorf("monitor.checks_per_second cannot be negative")
	}
	switch c.Log.CheckLevel {
	case "none", "error", "info", "debug":
	default:
		return fmt.Errorf("log.check_level must be one of none, error, info, debug")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
