package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/internal/controllers"
	"github.com/biyonik/pgquery/internal/middleware"
	"github.com/biyonik/pgquery/internal/router"
	"github.com/biyonik/pgquery/pkg/cache"
	"github.com/biyonik/pgquery/pkg/database"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Supabase-compatible REST gateway",
		Long: `Start the REST gateway on /rest/v1/{table}.

Configuration is read from the environment, .env, .env.local and pgquery.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg, newLogger())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

// resultCache, config'e göre cache katmanını kurar. Redis kullanılıyorsa
// health check'e redis ping'i de eklenir.
func resultCache(cfg *config.Config, logger *log.Logger, health map[string]controllers.HealthCheck) (cache.Cache, func(), error) {
	if cfg.Cache.Driver != "redis" {
		c, err := cache.New(cache.Options{Driver: cfg.Cache.Driver, Prefix: cfg.Cache.Prefix, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		stop := func() {}
		if m, ok := c.(*cache.MemoryCache); ok {
			stop = m.Stop
		}
		return c, stop, nil
	}

	redisCfg := cache.DefaultRedisConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	client, err := cache.NewRedisClient(redisCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	health["redis"] = client.Ping
	return cache.NewRedisCache(client.Client(), logger, cfg.Cache.Prefix), func() { client.Close() }, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	health := map[string]controllers.HealthCheck{"database": db.PingContext}

	resCache, stopCache, err := resultCache(cfg, logger, health)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer stopCache()

	exec := buildExecutor(database.NewSQLExecutor(db), cfg, resCache, logger)
	client := database.NewClient(exec, database.WithLogger(logger))

	handler := router.Setup(router.Dependencies{
		Config: cfg,
		Client: client,
		Logger: logger,
		Health: health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("🚀 Gateway dinleniyor: http://localhost:%s/rest/v1", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Println("🧹 Sunucu kapatılıyor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("❌ Shutdown hatası: %v", err)
		return err
	}
	middleware.StopAllLimiters()
	logger.Println("✅ Sunucu kapatıldı")
	return nil
}
