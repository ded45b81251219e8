package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usergate.org/internal/auth"
	"usergate.org/internal/config"
	"usergate.org/internal/httpapi"
	"usergate.org/internal/idp"
	"usergate.org/internal/obs"
	"usergate.org/internal/store/pg"
	"usergate.org/internal/stream"
	"usergate.org/internal/user"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, "")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	if !cfg.UseCognito() {
		log.Fatal("cognito is not configured: set USERGATE_COGNITO_USER_POOL_ID and USERGATE_COGNITO_CLIENT_ID")
	}
	provider, err := idp.NewCognitoProvider(ctx, cfg.AWSRegion, cfg.CognitoUserPoolID, cfg.CognitoClientID)
	if err != nil {
		log.Fatalf("cognito provider: %v", err)
	}

	var (
		db    *sql.DB
		store user.Store
	)
	if cfg.DatabaseURL != "" {
		pgStore, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pgStore.DB()
		store = pgStore
	} else {
		log.Println("no database configured, using in-memory user store")
		store = user.NewInMemory()
	}

	var verifier auth.TokenVerifier
	if cfg.OIDCIssuer != "" {
		verifier, err = auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			log.Fatalf("oidc verifier: %v", err)
		}
	} else {
		verifier, err = auth.NewHS256Verifier(cfg.DevJWTSecret, "")
		if err != nil {
			log.Fatalf("dev verifier: %v", err)
		}
		log.Println("using HS256 dev token verifier")
	}

	events := stream.New()
	users := user.NewService(provider, store,
		user.WithDefaultGroup(cfg.DefaultGroup),
		user.WithEvents(events),
	)

	api := httpapi.New(httpapi.Options{
		Ready:          httpapi.ReadyProbe{DB: db},
		Version:        version,
		Users:          users,
		Auth:           auth.NewService(provider),
		Verifier:       verifier,
		Events:         events,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting usergate-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
