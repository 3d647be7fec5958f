package database

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// executedStatement, fake executor'a ulaşan tek bir komuttur.
type executedStatement struct {
	SQL  string
	Args []any
	Info StatementInfo
}

// fakeExecutor, komutları kaydeden ve cevabı respond fonksiyonundan üreten
// test executor'ıdır.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []executedStatement
	respond func(stmt executedStatement) ([]Row, error)
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	info, _ := StatementInfoFrom(ctx)
	stmt := executedStatement{SQL: query, Args: args, Info: info}

	f.mu.Lock()
	f.calls = append(f.calls, stmt)
	f.mu.Unlock()

	if f.respond == nil {
		return []Row{}, nil
	}
	return f.respond(stmt)
}

func (f *fakeExecutor) Calls() []executedStatement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executedStatement(nil), f.calls...)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestClient(exec Executor) *Client {
	return NewClient(exec, WithLogger(quietLogger()))
}

// compile, zinciri derler ve hata olmadığını doğrular.
func compile(t *testing.T, qb *QueryBuilder) *Statement {
	t.Helper()
	stmt, _, err := qb.ToSQL()
	require.NoError(t, err)
	require.NotNil(t, stmt)
	return stmt
}
