package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sopatech/backstage/internal/albums"
	"github.com/sopatech/backstage/internal/artists"
	"github.com/sopatech/backstage/internal/config"
	"github.com/sopatech/backstage/internal/dashboard"
	"github.com/sopatech/backstage/internal/email"
	apphttp "github.com/sopatech/backstage/internal/http"
	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/infra"
	"github.com/sopatech/backstage/internal/managers"
	"github.com/sopatech/backstage/internal/media"
	"github.com/sopatech/backstage/internal/metrics"
	"github.com/sopatech/backstage/internal/musics"
	"github.com/sopatech/backstage/internal/scope"
	"github.com/sopatech/backstage/internal/users"
)

const resetTokenTTL = 15 * time.Minute

func main() {
	// --- Logger and config ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}
	config.LogConfigVars(logger, cfg)

	// --- Postgres ---
	pool, err := infra.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres init", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// --- Identity: token codec, role resolver, scope resolver ---
	codec := identity.NewCodec(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	resolver := identity.NewResolver(identity.NewStore(pool))
	scopes := scope.NewResolver(scope.NewStore(pool))

	// --- MAU: conditional insert to Postgres; increment the Prometheus
	// counter only when the row is new this month ---
	mauStore := metrics.NewMAUStore(pool)
	mauRecorder, err := metrics.NewMAURecorder(mauStore, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("register MAU counter", "err", err)
		os.Exit(1)
	}

	// --- Users: store, mailer, reset tokens, service, handler ---
	var mailer email.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		mailer = email.NewLogMailer(logger)
	}
	usersService := users.NewService(
		users.NewStore(pool),
		codec,
		mauRecorder,
		mailer,
		users.NewResetTokens(resetTokenTTL),
		cfg.ResetBaseURL,
		logger,
	)
	usersHandler := users.NewHandler(usersService)

	// --- Resource services and handlers ---
	artistsHandler := artists.NewHandler(artists.NewService(artists.NewStore(pool), scopes))
	managersHandler := managers.NewHandler(managers.NewService(managers.NewStore(pool)))
	albumsHandler := albums.NewHandler(albums.NewService(albums.NewStore(pool), scopes), media.NewStore(cfg.MediaDir))
	musicsHandler := musics.NewHandler(musics.NewService(musics.NewStore(pool), scopes))

	// --- Dashboard ---
	dashboardService := dashboard.NewService(dashboard.NewStore(pool), scopes, dashboard.Config{
		RecentWindow:      cfg.RecentWindow,
		TopArtistsAdmin:   cfg.TopArtistsAdmin,
		TopArtistsManager: cfg.TopArtistsManager,
	})
	dashboardHandler := dashboard.NewHandler(dashboardService)

	// --- Router and HTTP server ---
	r := apphttp.NewRouter(logger, codec, resolver, apphttp.Handlers{
		Users:     usersHandler,
		Artists:   artistsHandler,
		Managers:  managersHandler,
		Albums:    albumsHandler,
		Musics:    musicsHandler,
		Dashboard: dashboardHandler,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info("listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
