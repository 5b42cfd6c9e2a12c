package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port                    int  `mapstructure:"port"`
	EnableInternalEndpoints bool `mapstructure:"enable_internal_endpoints"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type SharingConfig struct {
	// MaxGroupNameLength caps generated agreement-scoped group names.
	MaxGroupNameLength int `mapstructure:"max_group_name_length"`
	// DefaultMemberAccessLevel is granted to plain members on synchronization.
	DefaultMemberAccessLevel string `mapstructure:"default_member_access_level"`
}

type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sharing    SharingConfig  `mapstructure:"sharing"`
	BuildDate  string         `mapstructure:"build_date"`
	DeployedAt string         `mapstructure:"deployed_at"`
}

var AppConfig *Config

// Load reads configuration from the environment with the INFOSHARE prefix,
// falling back to defaults.
func Load() *Config {
	v := viper.New()
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.enable_internal_endpoints", false)
	v.SetDefault("database.url", "")
	v.SetDefault("sharing.max_group_name_length", 100)
	v.SetDefault("sharing.default_member_access_level", "read")
	v.SetDefault("build_date", "null")
	v.SetDefault("deployed_at", time.Now().UTC().Format(time.RFC3339))

	v.SetEnvPrefix("INFOSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		slog.Error("failed to unmarshal config", "error", err)
		panic(err)
	}
	AppConfig = cfg
	return cfg
}

func GetPort() int {
	if AppConfig == nil {
		Load()
	}
	return AppConfig.Server.Port
}
