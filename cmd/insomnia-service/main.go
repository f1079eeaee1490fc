package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"insomnia-service/internal/config"
	"insomnia-service/internal/core"
	"insomnia-service/internal/logger"
	"insomnia-service/internal/messaging"
	"insomnia-service/internal/notify"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the TOML configuration file")

	// Overrides for the configuration file
	serviceLogLevel := flag.Int("log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	mode := flag.String("mode", "", "Initial insomnia mode (disabled, always, when-charging)")
	batterySource := flag.String("battery-source", "", "Charger state source (redis, gpio, sysfs)")
	redisHost := flag.String("redis-host", "", "Redis host")
	redisPort := flag.Int("redis-port", 0, "Redis port")

	flag.Parse()

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log":
			cfg.Logging.Level = *serviceLogLevel
		case "mode":
			cfg.Mode = *mode
		case "battery-source":
			cfg.Battery.Source = *batterySource
		case "redis-host":
			cfg.Redis.Host = *redisHost
		case "redis-port":
			cfg.Redis.Port = *redisPort
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l := logger.NewLogger(stdLogger, logger.LogLevel(cfg.Logging.Level))
	l.Infof("Starting insomnia service...")

	center := notify.NewCenter(l)
	redis := messaging.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, l, messaging.Callbacks{})

	battery, err := core.NewBatterySource(cfg.Battery, redis, center, l)
	if err != nil {
		l.Fatalf("Failed to create battery source: %v", err)
	}
	l.Infof("Using %s charger source", cfg.Battery.Source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	system := core.NewInsomniaSystem(cfg.InitialMode(), battery, redis, center, l)
	if err := system.Start(ctx); err != nil {
		system.Shutdown()
		l.Fatalf("Failed to start system: %v", err)
	}

	l.Infof("System started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	system.Shutdown()
	l.Infof("Shutdown complete")
}
