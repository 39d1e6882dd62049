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

	"github.com/joho/godotenv"

	"github.com/Clark-Hu/book-reviews/internal/auth"
	"github.com/Clark-Hu/book-reviews/internal/config"
	httpserver "github.com/Clark-Hu/book-reviews/internal/http"
	"github.com/Clark-Hu/book-reviews/internal/repository"
	"github.com/Clark-Hu/book-reviews/internal/service"
	"github.com/Clark-Hu/book-reviews/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[book-reviews] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	if cfg.AutoMigrate {
		store.SetMigrationLogger(logger)
		if err := st.Migrate(dbCtx); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
	}

	var revoker *auth.Revoker
	if cfg.RedisURL != "" {
		revoker, err = auth.NewRevoker(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer revoker.Close()
		logger.Println("token revocation enabled")
	} else {
		logger.Println("REDIS_URL not set; logout will not revoke tokens")
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	repo := repository.New(st)
	svc := service.NewFromRepository(repo, service.Deps{
		Tokens:            tokens,
		Revoker:           revoker,
		Logger:            logger,
		EnrichConcurrency: cfg.EnrichConcurrency,
	})
	server := httpserver.New(cfg, st, svc, tokens, revoker, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	logger.Printf("listening on :%s", cfg.Port)

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
