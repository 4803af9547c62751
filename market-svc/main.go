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

	"quickbite/config"
	httpapi "quickbite/market-svc/internal/api/http"
	"quickbite/market-svc/internal/mpesa"
	"quickbite/market-svc/internal/service"
	"quickbite/market-svc/internal/storage"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	addr := pflag.String("addr", "", "HTTP listen address (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	lg := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Component:   "market-svc",
		Environment: cfg.Environment,
	})

	db := config.MustInitPostgres(cfg.Postgres)
	defer db.Close()

	rdb := config.MustInitRedis(cfg.Redis)
	defer rdb.Close()

	writer := config.NewKafkaWriter(cfg.Kafka)
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}

	blobs := storage.NewDiskBlobs(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	publisher := storage.NewKafkaPublisher(writer)
	pending := storage.NewPendingPushes(rdb, cfg.Mpesa.PendingTTL)
	gateway := mpesa.NewClient(cfg.Mpesa, &http.Client{Timeout: 20 * time.Second})

	identity := service.NewIdentityService(repo, blobs, cfg.BcryptCost, lg)
	if cfg.Admin.Email != "" {
		if err := identity.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal("Failed to seed admin:", err)
		}
	}

	h := &httpapi.Handler{
		Identity: identity,
		Catalog:  service.NewCatalogService(repo, repo, blobs, lg),
		Orders:   service.NewOrderService(repo, repo, repo, pending, publisher, service.PNGQRGenerator{}, cfg.PublicURL, lg),
		Payments: service.NewPaymentService(repo, repo, pending, gateway, publisher, lg),
		Reviews:  service.NewReviewService(repo, lg),
		Sessions: session.NewManager(
			session.NewRedisStore(rdb, cfg.Session.TTL),
			cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure,
		),
		CallbackToken: cfg.Mpesa.CallbackToken,
		Log:           lg,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, cfg.Uploads.Dir, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown", "error", err)
		}
	}()

	lg.Info("market service starting", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed:", err)
	}
}
