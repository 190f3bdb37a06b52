package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/quiethours/scheduler/internal/identity"
	"github.com/quiethours/scheduler/internal/logger"
	"github.com/quiethours/scheduler/internal/notify"
	"github.com/quiethours/scheduler/internal/scanner"
	"github.com/quiethours/scheduler/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/reminder.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		stor.Close(ctx)
	}()
	notifier, err := notify.New(config.Notifier)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	provider := newIdentityProvider(config.Identity)
	scan := scanner.New(stor, provider, notifier, config.Reminders.Lookahead)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("reminder scanner is running...")

	ticker := time.NewTicker(config.Reminders.Period)
	defer ticker.Stop()
	for {
		summary, err := scan.Run(ctx)
		if err != nil {
			log.Errorf("reminder scan failed: %v", err)
		} else if summary.BlocksScanned > 0 {
			log.Infof("reminder scan: %d claimed, %d sent, %d failed",
				summary.BlocksScanned, summary.Sent, summary.Failed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newIdentityProvider(config IdentityConfig) identity.Provider {
	var provider identity.Provider = identity.NewHTTPProvider(identity.Config{
		BaseURL:    config.BaseURL,
		ServiceKey: config.ServiceKey,
	})
	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		provider = identity.NewCachedProvider(provider, client, config.CacheTTL)
	}
	return provider
}
