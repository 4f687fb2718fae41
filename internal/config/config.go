package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	AllowOrigin     []string      `mapstructure:"allow_origin"`
	RoomTTL         time.Duration `mapstructure:"room_ttl"`
	DefaultCapacity int           `mapstructure:"default_capacity"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	Secret          string        `mapstructure:"secret"`
}

// OriginAllowed reports whether a handshake Origin header may connect.
// An empty or "*" list allows any origin.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowOrigin) == 0 {
		return true
	}
	for _, o := range c.AllowOrigin {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5001)
	v.SetDefault("allow_origin", []string{"*"})
	v.SetDefault("room_ttl", "12h")
	v.SetDefault("default_capacity", 16)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("secret", "huddle-dev-secret")

	// Deployment overrides come from env vars (PORT, ALLOW_ORIGIN, ...).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
