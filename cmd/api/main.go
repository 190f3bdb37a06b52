package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/quiethours/scheduler/internal/app"
	"github.com/quiethours/scheduler/internal/identity"
	"github.com/quiethours/scheduler/internal/logger"
	"github.com/quiethours/scheduler/internal/notify"
	"github.com/quiethours/scheduler/internal/scanner"
	internalhttp "github.com/quiethours/scheduler/internal/server/http"
	"github.com/quiethours/scheduler/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/api.yaml", "Path to configuration file")
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
	notifier, err := notify.New(config.Notifier)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	provider := newIdentityProvider(config.Identity)

	blocks := app.New(stor)
	scan := scanner.New(stor, provider, notifier, config.Reminders.Lookahead)
	server := internalhttp.NewServer(config.HTTPServer, blocks, scan, provider)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("quiet hours api is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		err := stor.Close(ctx)
		if err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
		os.Exit(1) //nolint:gocritic
	}
	ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	err = stor.Close(ctx)
	if err != nil {
		log.Errorf("failed to close storage: %v", err)
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
