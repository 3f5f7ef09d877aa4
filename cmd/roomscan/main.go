package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"roomscan/internal/app"
	"roomscan/internal/config"
	"roomscan/internal/entitlement"
	"roomscan/internal/scanclient"
	"roomscan/internal/server"
	"roomscan/internal/signin"
	"roomscan/internal/util"
	"roomscan/pkg/kvstore"
	"roomscan/pkg/storage"
	"roomscan/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	scanTimeout, err := config.ParseScanTimeout(cfg.ScanTimeout)
	if err != nil {
		log.Fatalf("failed to parse scan timeout: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var kv kvstore.KV
	if cfg.RedisAddr != "" {
		kv = kvstore.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, 0)
		slog.Info("state persistence", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		kv = kvstore.NewMemoryKV()
		slog.Info("state persistence", "backend", "memory")
	}

	var roomStore store.Store
	if cfg.DatabaseURL != "" {
		roomStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init room store: %v", err)
		}
		slog.Info("room store", "backend", "postgres")
	} else {
		roomStore = store.NewMemoryStore()
		slog.Info("room store", "backend", "memory")
	}

	var images storage.ImageStore
	if cfg.MinioEndpoint != "" {
		images, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init image store: %v", err)
		}
	}

	var verifier *signin.Verifier
	if cfg.SignInJWKSURL != "" {
		verifier, err = signin.NewVerifier(signin.Config{
			JWKSURL:  cfg.SignInJWKSURL,
			Issuer:   cfg.SignInIssuer,
			Audience: cfg.SignInAudience,
		})
		if err != nil {
			log.Fatalf("failed to init sign-in verifier: %v", err)
		}
	}

	appCore, err := app.New(app.Config{
		Limits: entitlement.Limits{
			FreeMonthlyScans: cfg.FreeMonthlyScanLimit,
			FreeRooms:        cfg.FreeRoomLimit,
			FreeMatches:      cfg.FreeMatchLimit,
			SoftPromptAfter:  cfg.SoftPromptAfterScans,
			HardGateAfter:    cfg.HardGateAfterScans,
		},
		KV:       kv,
		Store:    roomStore,
		Scans:    scanclient.NewClient(cfg.ScanServiceURL, scanTimeout),
		Images:   images,
		Verifier: verifier,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App: appCore,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
