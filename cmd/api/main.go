package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"niceblog.org/internal/auth"
	"niceblog.org/internal/blog"
	"niceblog.org/internal/config"
	"niceblog.org/internal/httpapi"
	"niceblog.org/internal/obs"
	"niceblog.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

// logMailer writes confirmation and reset tokens to the service log.
// Stands in for a real delivery channel until one is wired up.
type logMailer struct{}

func (logMailer) SendConfirmation(_ context.Context, email, token string) error {
	obs.LogRequest(map[string]any{
		"level": "info",
		"msg":   "confirmation_token_issued",
		"email": email,
		"token": token,
	})
	return nil
}

func (logMailer) SendPasswordReset(_ context.Context, email, token string) error {
	obs.LogRequest(map[string]any{
		"level": "info",
		"msg":   "reset_token_issued",
		"email": email,
		"token": token,
	})
	return nil
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var store *pg.Store
	if cfg.PgDSN != "" {
		store, err = pg.Open(cfg.PgDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
	} else {
		log.Fatal("missing NICEBLOG_PG_DSN")
	}

	tokens, err := auth.NewTokens(cfg.AuthSecret)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	authSvc, err := auth.NewService(store, tokens,
		auth.WithAdminEmail(cfg.AdminEmail),
		auth.WithMailer(logMailer{}),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	if err := authSvc.EnsureRoles(context.Background()); err != nil {
		log.Fatalf("ensure roles: %v", err)
	}

	blogSvc, err := blog.NewService(store)
	if err != nil {
		log.Fatalf("blog service: %v", err)
	}

	api := httpapi.New(authSvc, blogSvc,
		httpapi.ReadyProbe{DB: store.DB()},
		version,
		httpapi.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting niceblog-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
