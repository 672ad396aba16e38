// Package config provides configuration management for the admin node.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the admin node.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Cluster     ClusterConfig     `mapstructure:"cluster"`
	Replicator  ReplicatorConfig  `mapstructure:"replicator"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ClusterConfig holds membership configuration.
type ClusterConfig struct {
	NodeName       string        `mapstructure:"node_name"`
	GossipEnabled  bool          `mapstructure:"gossip_enabled"`
	BindPort       int           `mapstructure:"bind_port"`
	SeedNodes      []string      `mapstructure:"seed_nodes"`
	AdminURL       string        `mapstructure:"admin_url"`
	GossipInterval time.Duration `mapstructure:"gossip_interval"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
}

// ReplicatorConfig holds member-to-member call configuration.
type ReplicatorConfig struct {
	PeerTimeout     time.Duration `mapstructure:"peer_timeout"`
	BroadcastFanout int           `mapstructure:"broadcast_fanout"`
}

// AdminConfig holds admin API limits and flags.
type AdminConfig struct {
	MaxDBsInfoCount int  `mapstructure:"max_dbs_info_count"`
	MaintenanceMode bool `mapstructure:"maintenance_mode"`
}

// CatalogConfig holds catalog store configuration.
type CatalogConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	InMemory bool   `mapstructure:"in_memory"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/admind/")
	}

	v.SetEnvPrefix("ADMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8091)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("cluster.node_name", "admind-1")
	v.SetDefault("cluster.gossip_enabled", false)
	v.SetDefault("cluster.bind_port", 7946)
	v.SetDefault("cluster.admin_url", "http://127.0.0.1:8091")

	v.SetDefault("replicator.peer_timeout", 30*time.Second)
	v.SetDefault("replicator.broadcast_fanout", 8)

	v.SetDefault("admin.max_dbs_info_count", 100)
	v.SetDefault("admin.maintenance_mode", false)

	v.SetDefault("catalog.data_dir", "/var/lib/quillstore/catalog")
	v.SetDefault("catalog.in_memory", false)

	v.SetDefault("rate_limiter.enabled", false)
	v.SetDefault("rate_limiter.requests_per_second", 100.0)
	v.SetDefault("rate_limiter.burst_size", 200)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Cluster.NodeName == "" {
		return fmt.Errorf("cluster.node_name is required")
	}
	if c.Cluster.AdminURL == "" {
		return fmt.Errorf("cluster.admin_url is required")
	}
	if c.Admin.MaxDBsInfoCount < 1 {
		return fmt.Errorf("admin.max_dbs_info_count must be >= 1")
	}
	if c.Replicator.BroadcastFanout < 1 {
		return fmt.Errorf("replicator.broadcast_fanout must be >= 1")
	}
	if !c.Catalog.InMemory && c.Catalog.DataDir == "" {
		return fmt.Errorf("catalog.data_dir is required unless catalog.in_memory is set")
	}
	if c.RateLimiter.Enabled && c.RateLimiter.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limiter.requests_per_second must be > 0 when enabled")
	}
	return nil
}
