package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/api"
	"github.com/openedu/videovault/internal/app"
	"github.com/openedu/videovault/internal/app/maintenance"
	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/cache"
	"github.com/openedu/videovault/internal/database"
	"github.com/openedu/videovault/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("videovault-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	var tokenCache cache.Store = cache.NewDatabaseStore(db)
	if cfg.Cache.Redis.Enabled {
		redisStore, redisErr := cache.NewRedisStore(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database cache", zap.Error(redisErr))
		} else {
			tokenCache = redisStore
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			defer redisStore.Close()
		}
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	tokenStore, err := iauth.NewTokenStore(db, iauth.TokenStoreConfig{Cache: tokenCache})
	if err != nil {
		return fmt.Errorf("initialise token store: %w", err)
	}

	sessionStore, err := iauth.NewSessionStore(db, cfg.Auth.SessionStoreConfig())
	if err != nil {
		return fmt.Errorf("initialise session store: %w", err)
	}

	loginService, err := iauth.NewLoginService(db, jwtService, tokenStore, sessionStore)
	if err != nil {
		return fmt.Errorf("initialise login service: %w", err)
	}

	cleaner := maintenance.NewCleaner(sessionStore, tokenStore,
		maintenance.WithSchedule(cfg.Maintenance.CleanupSchedule))
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown sweep failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Deps{
		DB:       db,
		JWT:      jwtService,
		Tokens:   tokenStore,
		Sessions: sessionStore,
		Login:    loginService,
		Config:   cfg,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.DatabaseClientConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("obtain database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
