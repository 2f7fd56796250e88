// Package config loads the proxy configuration from a YAML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendRedis   = "redis"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Config is the full proxy configuration.
type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		Origin string `yaml:"origin"`
	} `yaml:"server"`

	Cache struct {
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		LevelDB struct {
			Path string `yaml:"path"`
		} `yaml:"leveldb"`
	} `yaml:"cache"`

	// Generation is the deployment version tag; bumping it is the sole
	// trigger for garbage collection of prior cache generations.
	Generation string `yaml:"generation"`

	// Precache is the ordered list of absolute paths populated into
	// the static namespace at install time.
	Precache []string `yaml:"precache"`

	Static struct {
		Prefixes   []string `yaml:"prefixes"`
		Extensions []string `yaml:"extensions"`
		Manifest   []string `yaml:"manifest"`
	} `yaml:"static"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	// parsed
	originURL *url.URL
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Server.Origin == "" {
		return fmt.Errorf("server.origin is required")
	}
	c.Server.Origin = strings.TrimRight(c.Server.Origin, "/")
	u, err := url.Parse(c.Server.Origin)
	if err != nil {
		return fmt.Errorf("server.origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.origin: %q is not an absolute URL", c.Server.Origin)
	}
	c.originURL = u

	if c.Generation == "" {
		return fmt.Errorf("generation is required")
	}
	if strings.Contains(c.Generation, "-") {
		return fmt.Errorf("generation: %q must not contain a dash", c.Generation)
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = BackendLevelDB
	case BackendRedis, BackendLevelDB, BackendMemory:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Backend == BackendLevelDB && c.Cache.LevelDB.Path == "" {
		c.Cache.LevelDB.Path = "./data/cache"
	}

	for i, p := range c.Precache {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("precache[%d]: %q must be an absolute path", i, p)
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// OriginURL returns the parsed origin base URL.
func (c *Config) OriginURL() *url.URL {
	return c.originURL
}
