package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/skye-hx/watchparty/internal/logging"
)

// Server is the coordinator's configuration.
type Server struct {
	Host string         `mapstructure:"host"`
	Port int            `mapstructure:"port"`
	Log  logging.Config `mapstructure:"log"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadServer reads the coordinator configuration: defaults, optional
// config file, then environment overrides.
func LoadServer() (*Server, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service", "watchparty")

	v.BindEnv("port", "PORT")
	v.BindEnv("host", "HOST")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; env and defaults must suffice.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
