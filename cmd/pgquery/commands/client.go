// Package commands implements the pgquery CLI commands.
package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/pkg/cache"
	"github.com/biyonik/pgquery/pkg/database"
	"golang.org/x/time/rate"
)

// ErrResultFailed, envelope bir hata taşıdığında döner. Envelope stdout'a
// yazılmış olduğundan main yalnızca çıkış kodunu ayarlar.
var ErrResultFailed = errors.New("query returned an error")

// ClientFactory, komutların kullanacağı Client'ı hazırlar. Dönen close
// fonksiyonu bağlantıyı kapatır.
type ClientFactory func(cfg *config.Config, logger *log.Logger) (*database.Client, func(), error)

// newLogger, CLI ve gateway'in ortak logger'ıdır.
func newLogger() *log.Logger {
	return log.New(os.Stderr, "[pgquery] ", log.LstdFlags)
}

// OpenClient, config'teki DATABASE_URL ile bağlanır ve executor zincirini kurar.
func OpenClient(cfg *config.Config, logger *log.Logger) (*database.Client, func(), error) {
	db, err := connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	exec := buildExecutor(database.NewSQLExecutor(db), cfg, nil, logger)
	client := database.NewClient(exec, database.WithLogger(logger))
	return client, func() { db.Close() }, nil
}

func connect(cfg *config.Config, logger *log.Logger) (*sql.DB, error) {
	db, err := database.Connect(database.ConnectionConfig{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnectTimeout:  cfg.DB.ConnectTimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return db, nil
}

// buildExecutor, SQL executor'ını config'e göre decorator'larla sarar:
// throttle (en içte), cache, logging (en dışta).
func buildExecutor(exec database.Executor, cfg *config.Config, c cache.Cache, logger *log.Logger) database.Executor {
	if cfg.Throttle.Enabled {
		exec = database.NewThrottledExecutor(exec, rate.NewLimiter(rate.Limit(cfg.Throttle.RPS), cfg.Throttle.Burst))
	}
	if c != nil {
		exec = database.NewCachedExecutor(exec, c, cfg.Cache.TTL, logger)
	}
	if cfg.IsDevelopment() {
		exec = database.NewLoggingExecutor(exec, logger)
	}
	return exec
}
