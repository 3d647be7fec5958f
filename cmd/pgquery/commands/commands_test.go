package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/pkg/auth"
	"github.com/biyonik/pgquery/pkg/cache"
	"github.com/biyonik/pgquery/pkg/database"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statement struct {
	SQL   string
	Args  []any
	Count bool
}

// stubExecutor, komutları kaydeder ve sabit satırlar döndürür.
type stubExecutor struct {
	mu    sync.Mutex
	calls []statement
	rows  []database.Row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) ([]database.Row, error) {
	info, _ := database.StatementInfoFrom(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, statement{SQL: query, Args: args, Count: info.Count})
	if info.Count {
		return []database.Row{{"count": int64(len(s.rows))}}, nil
	}
	return s.rows, nil
}

// main, COUNT dışındaki ilk komutu döndürür.
func (s *stubExecutor) main(t *testing.T) statement {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if !c.Count {
			return c
		}
	}
	t.Fatal("executor was not called")
	return statement{}
}

func stubFactory(exec database.Executor) ClientFactory {
	return func(cfg *config.Config, logger *log.Logger) (*database.Client, func(), error) {
		return database.NewClient(exec, database.WithLogger(log.New(io.Discard, "", 0))), func() {}, nil
	}
}

// isolateConfig, config.Load'un çalışma dizinindeki dosyaları okumasını engeller.
func isolateConfig(t *testing.T) {
	t.Helper()
	original := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = original })

	t.Setenv("APP_ENV", "test")
	t.Setenv("CACHE_DRIVER", "none")
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789abcdefghijkl")
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestQueryCommand(t *testing.T) {
	isolateConfig(t)
	exec := &stubExecutor{rows: []database.Row{{"id": int64(1), "name": "Ada"}}}

	stdout, _, err := execute(t, NewQueryCommand(stubFactory(exec)), "",
		"users", "--eq", "status=active", "--gte", "age=18", "--not", "deleted_at=is.null",
		"--order", "name.desc", "--limit", "5", "--count")

	require.NoError(t, err)
	stmt := exec.main(t)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" >= $1 AND "deleted_at" IS NOT NULL AND "status" = $2 ORDER BY "name" DESC LIMIT 5`, stmt.SQL)
	assert.Equal(t, []any{"18", "active"}, stmt.Args)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Nil(t, env["error"])
	assert.Equal(t, float64(1), env["count"])
	assert.Len(t, env["data"], 1)
}

func TestQueryCommand_SingleNotFound(t *testing.T) {
	isolateConfig(t)
	exec := &stubExecutor{}

	stdout, stderr, err := execute(t, NewQueryCommand(stubFactory(exec)), "", "users", "--eq", "id=999", "--single")

	assert.ErrorIs(t, err, ErrResultFailed)
	assert.Contains(t, stdout, `"message": "Row not found"`)
	assert.Contains(t, stderr, "✗ Row not found")
	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = $1 LIMIT 1`, exec.main(t).SQL)
}

func TestQueryCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "filter without value", args: []string{"users", "--eq", "status"}, wantErr: "--eq expects col=value"},
		{name: "not without expression", args: []string{"users", "--not", "deleted_at"}, wantErr: "--not expects"},
		{name: "unsupported negation", args: []string{"users", "--not", "age=gt.1"}, wantErr: "not.gt is not supported"},
		{name: "missing table", args: []string{}, wantErr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			exec := &stubExecutor{}

			_, _, err := execute(t, NewQueryCommand(stubFactory(exec)), "", tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, exec.calls)
		})
	}
}

func TestQueryCommand_FactoryError(t *testing.T) {
	isolateConfig(t)
	failing := func(*config.Config, *log.Logger) (*database.Client, func(), error) {
		return nil, nil, errors.New("database: connection refused")
	}

	_, _, err := execute(t, NewQueryCommand(failing), "", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMutationCommands(t *testing.T) {
	tests := []struct {
		name     string
		cmd      func(ClientFactory) *cobra.Command
		stdin    string
		args     []string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "insert one row",
			cmd:      NewInsertCommand,
			args:     []string{"users", "--data", `{"name":"Ada","age":36}`},
			wantSQL:  `INSERT INTO "users" ("age", "name") VALUES ($1, $2)`,
			wantArgs: []any{"36", "Ada"},
		},
		{
			name:     "insert from stdin with returning",
			cmd:      NewInsertCommand,
			stdin:    `[{"name":"A"},{"name":"B"}]`,
			args:     []string{"users", "--data", "-", "--returning"},
			wantSQL:  `INSERT INTO "users" ("name") VALUES ($1), ($2) RETURNING *`,
			wantArgs: []any{"A", "B"},
		},
		{
			name:     "update with filters",
			cmd:      NewUpdateCommand,
			args:     []string{"users", "--data", `{"name":"Jane"}`, "--eq", "id=1", "--not", "deleted_at=is.null", "--returning"},
			wantSQL:  `UPDATE "users" SET "name" = $2 WHERE "deleted_at" IS NOT NULL AND "id" = $1 RETURNING *`,
			wantArgs: []any{"1", "Jane"},
		},
		{
			name:     "upsert with conflict target",
			cmd:      NewUpsertCommand,
			args:     []string{"users", "--data", `{"email":"a@x.io","name":"A"}`, "--on-conflict", "email"},
			wantSQL:  `INSERT INTO "users" ("email", "name") VALUES ($1, $2) ON CONFLICT ("email") DO UPDATE SET "name" = EXCLUDED."name" RETURNING *`,
			wantArgs: []any{"a@x.io", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			exec := &stubExecutor{}

			_, _, err := execute(t, tt.cmd(stubFactory(exec)), tt.stdin, tt.args...)

			require.NoError(t, err)
			stmt := exec.main(t)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestMutationCommands_Flags(t *testing.T) {
	upsert := NewUpsertCommand(stubFactory(&stubExecutor{}))
	assert.Nil(t, upsert.Flags().Lookup("returning"), "upsert always returns rows")
	assert.NotNil(t, upsert.Flags().Lookup("on-conflict"))

	insert := NewInsertCommand(stubFactory(&stubExecutor{}))
	assert.Nil(t, insert.Flags().Lookup("eq"), "insert has no filters")

	update := NewUpdateCommand(stubFactory(&stubExecutor{}))
	for _, op := range filterFlags {
		assert.NotNil(t, update.Flags().Lookup(op), op)
	}
}

func TestUpdateCommand_RequiresObject(t *testing.T) {
	isolateConfig(t)
	exec := &stubExecutor{}

	_, _, err := execute(t, NewUpdateCommand(stubFactory(exec)), "", "users", "--data", `[{"name":"A"}]`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
	assert.Empty(t, exec.calls)
}

func TestReadData(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"id": 12345678901234567}]`), 0o644))

	tests := []struct {
		name    string
		raw     string
		stdin   string
		want    any
		wantErr string
	}{
		{name: "inline object", raw: `{"name":"A"}`, want: map[string]any{"name": "A"}},
		{name: "stdin", raw: "-", stdin: `{"active":true}`, want: map[string]any{"active": true}},
		{name: "file keeps big numbers", raw: "@" + file, want: []any{map[string]any{"id": json.Number("12345678901234567")}}},
		{name: "missing", raw: "", wantErr: "--data is required"},
		{name: "missing file", raw: "@" + filepath.Join(dir, "nope.json"), wantErr: "no such file"},
		{name: "broken json", raw: `{"name":`, wantErr: "invalid --data JSON"},
		{name: "scalar", raw: `"text"`, wantErr: "object or array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readData(tt.raw, strings.NewReader(tt.stdin))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		res := &database.Result{Data: []database.Row{{"id": 1}}}

		require.NoError(t, printResult(&stdout, &stderr, res))
		assert.JSONEq(t, `{"data":[{"id":1}],"error":null,"count":null}`, stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("failure with code and hint", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		res := &database.Result{Error: &database.Error{Message: "relation does not exist", Code: "42P01", Hint: "check the table name"}}

		err := printResult(&stdout, &stderr, res)

		assert.ErrorIs(t, err, ErrResultFailed)
		assert.Contains(t, stdout.String(), `"code": "42P01"`)
		assert.Contains(t, stderr.String(), "✗ relation does not exist")
		assert.Contains(t, stderr.String(), "(42P01)")
		assert.Contains(t, stderr.String(), "hint: check the table name")
	})
}

func TestTokenCommand(t *testing.T) {
	isolateConfig(t)

	stdout, _, err := execute(t, NewTokenCommand(), "", "--role", "service_role", "--subject", "backend", "--expires", "0")
	require.NoError(t, err)

	claims, err := auth.ParseToken(strings.TrimSpace(stdout), &auth.JWTConfig{Secret: "cli-test-secret-0123456789abcdefghijkl"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleServiceRole, claims.Role)
	assert.Equal(t, "backend", claims.Subject)
	assert.Equal(t, "pgquery", claims.Issuer)
	assert.Nil(t, claims.ExpiresAt)
}

func TestTokenCommand_UnknownRole(t *testing.T) {
	isolateConfig(t)

	_, _, err := execute(t, NewTokenCommand(), "", "--role", "postgres")
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}

func TestBuildExecutor(t *testing.T) {
	base := &stubExecutor{}
	quiet := log.New(io.Discard, "", 0)

	t.Run("plain", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.App.Env = "production"
		assert.Same(t, base, buildExecutor(base, cfg, nil, quiet))
	})

	t.Run("all decorators", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.App.Env = "development"
		cfg.Throttle.Enabled = true
		cfg.Throttle.RPS = 10
		cfg.Throttle.Burst = 1
		cfg.Cache.TTL = time.Minute

		mem := cache.NewMemoryCache(quiet)
		defer mem.Stop()

		exec := buildExecutor(base, cfg, mem, quiet)
		assert.IsType(t, &database.LoggingExecutor{}, exec)

		client := database.NewClient(exec, database.WithLogger(quiet))
		for i := 0; i < 2; i++ {
			res := client.From("users").Select("*").Execute(context.Background())
			require.NoError(t, res.Err())
		}
		assert.Len(t, base.calls, 1, "second select is served from cache")
	})
}
