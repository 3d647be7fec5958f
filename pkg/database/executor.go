package database

import (
	"context"
	"database/sql"
	"fmt"
)

// -----------------------------------------------------------------------------
// Executor
// -----------------------------------------------------------------------------
// Builder SQL üretir, Executor çalıştırır. Builder bağlantı havuzu, retry veya
// transaction bilmez; bunlar Executor implementasyonlarının sorumluluğudur.
// Decorator'lar (logging, throttling, cache) aynı interface'i sarmalar.
// -----------------------------------------------------------------------------

// Executor, tek bir parametreli SQL komutunu çalıştırıp satırları döndürür.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// ExecutorFunc, sıradan bir fonksiyonu Executor olarak kullanmayı sağlar.
type ExecutorFunc func(ctx context.Context, query string, args ...any) ([]Row, error)

// Query, ExecutorFunc'i çağırır.
func (f ExecutorFunc) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return f(ctx, query, args...)
}

// QueryContexter, *sql.DB, *sql.Conn ve *sql.Tx'in ortak metodudur.
type QueryContexter interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLExecutor, database/sql üzerinden çalışan Executor'dır.
type SQLExecutor struct {
	db QueryContexter
}

// NewSQLExecutor, verilen bağlantı (veya transaction) için Executor oluşturur.
//
// Örnek:
//
//	db, _ := database.Connect(cfg)
//	client := database.NewClient(database.NewSQLExecutor(db))
//
//	tx, _ := db.BeginTx(ctx, nil)
//	txClient := database.NewClient(database.NewSQLExecutor(tx))
func NewSQLExecutor(db QueryContexter) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Query, komutu çalıştırır ve tüm satırları Row olarak döndürür.
func (e *SQLExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if e.db == nil {
		return nil, fmt.Errorf("sql executor has no connection")
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rowsToMaps(rows)
}
