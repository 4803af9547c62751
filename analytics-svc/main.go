package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	httpapi "quickbite/analytics-svc/internal/api/http"
	"quickbite/analytics-svc/internal/service"
	"quickbite/analytics-svc/internal/storage"
	"quickbite/config"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	addr := pflag.String("addr", ":8083", "HTTP listen address")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	lg := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Component:   "analytics-svc",
		Environment: cfg.Environment,
	})

	db := config.MustInitPostgres(cfg.Postgres)
	defer db.Close()

	rdb := config.MustInitRedis(cfg.Redis)
	defer rdb.Close()

	svc := service.NewAnalyticsService(storage.NewReportRepository(db), storage.NewLeaderboards(rdb), lg)
	sessions := session.NewManager(
		session.NewRedisStore(rdb, cfg.Session.TTL),
		cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure,
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(svc, sessions, lg), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown", "error", err)
		}
	}()

	lg.Info("analytics service starting", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed:", err)
	}
}
