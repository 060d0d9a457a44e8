// Package config loads TalkTo's runtime configuration via viper, with
// environment variables under the TALKTO_ prefix taking precedence over
// defaults.
package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the hub.
type Config struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	FrontendPort int    `mapstructure:"frontend_port"`
	Network      bool   `mapstructure:"network"`
	DataDir      string `mapstructure:"data_dir"`
	PromptsDir   string `mapstructure:"prompts_dir"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

// Load reads configuration from the environment (prefix TALKTO_) layered
// over sane defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("talkto")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 15377)
	v.SetDefault("frontend_port", 3000)
	v.SetDefault("network", false)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("prompts_dir", "./prompts")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "")
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if cfg.PromptsDir == "" {
		return fmt.Errorf("prompts_dir must not be empty")
	}
	return nil
}

// DBPath is the single-file SQLite database location.
func (c *Config) DBPath() string {
	return c.DataDir + "/talkto.db"
}

// AdvertisedBaseURL returns the base URL clients should use to reach the
// hub: the LAN IP when running in network mode, localhost otherwise.
func (c *Config) AdvertisedBaseURL() string {
	host := "localhost"
	if c.Network {
		if ip := firstNonLoopbackIPv4(); ip != "" {
			host = ip
		}
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

func firstNonLoopbackIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
