package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Logger LoggerConfig `mapstructure:"logger"`
	RPC    RPCConfig    `mapstructure:"rpc"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Blocks BlocksConfig `mapstructure:"blocks"`
	Mode   ModeConfig   `mapstructure:",squash"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// RPCConfig holds upstream JSON-RPC settings.
type RPCConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	ReceiptsMethod string        `mapstructure:"receipts_method"`
	GapsMethod     string        `mapstructure:"gaps_method"`
}

// CacheConfig holds settings for the memoization layer.
type CacheConfig struct {
	// CleanupInterval of zero disables the janitor: expired entries are only dropped at lookup.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// BlocksConfig holds settings for the recent-blocks read endpoint.
type BlocksConfig struct {
	RecentCount int `mapstructure:"recent_count"`
}

// ModeConfig selects what the process does and against which endpoints.
type ModeConfig struct {
	Eth1         string `mapstructure:"eth1"`
	Serve        bool   `mapstructure:"serve"`
	Network      string `mapstructure:"network"`
	NetworksFile string `mapstructure:"networks_file"`
	Endpoints    bool   `mapstructure:"endpoints"`
	Tag          string `mapstructure:"tag"`
}

// Flags declares the command-line surface. Values are bound into viper by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("chainstate", pflag.ContinueOnError)
	fs.String("eth1", "http://127.0.0.1:8545", "Ethereum RPC endpoint served by --server")
	fs.StringP("addr", "a", "0.0.0.0:8000", "Listen address for --server")
	fs.Bool("server", false, "Start the read API server")
	fs.StringP("network", "n", "", "Check a single endpoint and exit")
	fs.StringP("networks-file", "f", "", "Check every endpoint listed in a file")
	fs.Bool("endpoints", false, "Print healthy endpoints from --networks-file instead of logging statuses")
	fs.StringP("tag", "t", "", "Comma separated tag query, a leading '-' excludes a tag")
	fs.String("config", "configs", "Directory holding config.yaml")
	return fs
}

// Load reads configuration from .env, config file, environment variables and parsed flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("app.name", "chainstate")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("rpc.read_timeout", "25s")
	v.SetDefault("rpc.receipts_method", "parity_getBlockReceipts")
	v.SetDefault("rpc.gaps_method", "parity_chainStatus")
	v.SetDefault("cache.cleanup_interval", "0s")
	v.SetDefault("blocks.recent_count", 10)
	v.SetDefault("eth1", "http://127.0.0.1:8545")

	configPath := "configs"
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("CHAINSTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindFlags maps flag names onto config keys.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"eth1":          "eth1",
		"addr":          "server.addr",
		"server":        "serve",
		"network":       "network",
		"networks-file": "networks_file",
		"endpoints":     "endpoints",
		"tag":           "tag",
	}
	for flag, key := range bindings {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func (c RPCConfig) GetReadTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return 25 * time.Second
	}
	return c.ReadTimeout
}

func (c CacheConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}

func (c BlocksConfig) GetRecentCount() int {
	if c.RecentCount <= 0 {
		return 10
	}
	return c.RecentCount
}
