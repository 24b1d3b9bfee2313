// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/keepsake/internal/auth"
	"github.com/jason-s-yu/keepsake/internal/cache"
	"github.com/jason-s-yu/keepsake/internal/config"
	"github.com/jason-s-yu/keepsake/internal/database"
	"github.com/jason-s-yu/keepsake/internal/handlers"
	"github.com/jason-s-yu/keepsake/internal/memstore"
	"github.com/jason-s-yu/keepsake/internal/middleware"
	"github.com/jason-s-yu/keepsake/internal/relationship"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if cfg.AuthPublicKeyPath != "" {
		if err := auth.InitFromPath(cfg.AuthPrivateKeyPath, cfg.AuthPublicKeyPath, cfg.TokenExpire); err != nil {
			return err
		}
	} else {
		logger.Warn("no auth keys configured, generating an ephemeral key pair")
		if err := auth.Init(cfg.TokenExpire); err != nil {
			return err
		}
	}

	var (
		store relationship.Store
		dir   cache.Directory
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memstore.NewStore()
		dir = memstore.NewDirectory()
	default:
		pool, err := database.ConnectDB(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		store = database.NewRelationshipStore(pool)
		dir = database.NewUserDirectory(pool)
	}

	if cfg.RedisEnabled {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		dir = cache.NewCachedDirectory(dir, rdb, cfg.UserCacheTTL, logger)
		logger.WithField("addr", cfg.RedisAddr).Info("user cache enabled")
	}

	svc := relationship.NewService(store, dir, logger)
	api := handlers.NewAPIServer(svc, dir, logger)

	var h http.Handler = api.Routes()
	h = middleware.Recover(logger)(h)
	h = middleware.LogMiddleware(logger)(h)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
