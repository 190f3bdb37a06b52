package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/quiethours/scheduler/internal/logger"
	"github.com/quiethours/scheduler/internal/notify"
	"github.com/quiethours/scheduler/internal/storagebuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type Config struct {
	Logger    logger.Config
	Storage   storagebuilder.Config
	Identity  IdentityConfig
	Notifier  notify.Config
	Reminders RemindersConfig
}

type IdentityConfig struct {
	BaseURL    string
	ServiceKey string
	RedisAddr  string
	CacheTTL   time.Duration
}

type RemindersConfig struct {
	Period    time.Duration
	Lookahead time.Duration
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "memory")
	viper.SetDefault("notifier.notifierType", "log")
	viper.SetDefault("identity.cacheTTL", "15m")
	viper.SetDefault("reminders.period", "1m")
	viper.SetDefault("reminders.lookahead", "10m")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return config, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
