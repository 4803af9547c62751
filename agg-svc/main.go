package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"quickbite/agg-svc/internal/service"
	"quickbite/agg-svc/internal/storage"
	"quickbite/config"
	"quickbite/pkg/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	groupID := pflag.String("group", "", "Kafka consumer group (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if *groupID != "" {
		cfg.Kafka.GroupID = *groupID
	}

	lg := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Component:   "agg-svc",
		Environment: cfg.Environment,
	})

	rdb := config.MustInitRedis(cfg.Redis)
	defer rdb.Close()

	reader := config.NewKafkaReader(cfg.Kafka)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := service.NewConsumer(reader, storage.NewStore(rdb), lg)
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("Consumer failed:", err)
	}
}
