package database

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSelect(t *testing.T) {
	client := newTestClient(nil)

	tests := []struct {
		name     string
		qb       *QueryBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "all columns",
			qb:      client.From("users").Select("*"),
			wantSQL: `SELECT * FROM "users"`,
		},
		{
			name:    "empty select means all columns",
			qb:      client.From("users").Select(""),
			wantSQL: `SELECT * FROM "users"`,
		},
		{
			name:    "explicit columns",
			qb:      client.From("users").Select("id, name"),
			wantSQL: `SELECT "id", "name" FROM "users"`,
		},
		{
			name:     "single filter",
			qb:       client.From("users").Select("*").Eq("id", 1),
			wantSQL:  `SELECT * FROM "users" WHERE "id" = $1`,
			wantArgs: []any{1},
		},
		{
			name: "placeholders follow insertion order",
			qb: client.From("products").Select("*").
				Gte("price", 10).Lt("price", 100).Neq("status", "archived"),
			wantSQL:  `SELECT * FROM "products" WHERE "price" >= $1 AND "price" < $2 AND "status" != $3`,
			wantArgs: []any{10, 100, "archived"},
		},
		{
			name: "order and limit",
			qb: client.From("users").Select("*").
				Order("name").Order("created_at", Ascending(false)).Limit(10),
			wantSQL: `SELECT * FROM "users" ORDER BY "name" ASC, "created_at" DESC LIMIT 10`,
		},
		{
			name:    "limit zero is kept",
			qb:      client.From("users").Select("*").Limit(0),
			wantSQL: `SELECT * FROM "users" LIMIT 0`,
		},
		{
			name:    "single forces limit one",
			qb:      client.From("users").Select("*").Limit(50).Single(),
			wantSQL: `SELECT * FROM "users" LIMIT 1`,
		},
		{
			name:    "filters may precede select",
			qb:      client.From("users").Eq("active", true).Select("id"),
			wantSQL: `SELECT "id" FROM "users" WHERE "active" = $1`,
			wantArgs: []any{true},
		},
		{
			name:    "qualified column",
			qb:      client.From("users").Select("users.id"),
			wantSQL: `SELECT "users"."id" FROM "users"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := compile(t, tt.qb)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestCompileCount(t *testing.T) {
	client := newTestClient(nil)

	stmt, count, err := client.From("users").
		Select("id", CountExact()).
		Eq("active", true).
		Order("id").
		Limit(5).
		ToSQL()
	require.NoError(t, err)
	require.NotNil(t, count)

	assert.Equal(t, `SELECT "id" FROM "users" WHERE "active" = $1 ORDER BY "id" ASC LIMIT 5`, stmt.SQL)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "active" = $1`, count.SQL)
	assert.Equal(t, stmt.Args, count.Args)
}

func TestCompileCount_NotRequested(t *testing.T) {
	_, count, err := newTestClient(nil).From("users").Select("*").ToSQL()
	require.NoError(t, err)
	assert.Nil(t, count)
}

func TestCompileInsert(t *testing.T) {
	client := newTestClient(nil)

	t.Run("multi row with returning", func(t *testing.T) {
		stmt := compile(t, client.From("users").
			Insert([]Row{{"name": "A", "age": 1}, {"name": "B", "age": 2}}).
			Returning())

		assert.Equal(t, `INSERT INTO "users" ("age", "name") VALUES ($1, $2), ($3, $4) RETURNING *`, stmt.SQL)
		assert.Equal(t, []any{1, "A", 2, "B"}, stmt.Args)
	})

	t.Run("without returning", func(t *testing.T) {
		stmt := compile(t, client.From("users").Insert(Row{"name": "A"}))
		assert.Equal(t, `INSERT INTO "users" ("name") VALUES ($1)`, stmt.SQL)
	})

	t.Run("struct rows", func(t *testing.T) {
		type user struct {
			ID    int64  `db:"id,omitempty"`
			Name  string `db:"name"`
			Email string `db:"email"`
		}
		stmt := compile(t, client.From("users").Insert([]user{
			{Name: "A", Email: "a@x.io"},
			{Name: "B", Email: "b@x.io"},
		}))
		assert.Equal(t, `INSERT INTO "users" ("email", "name") VALUES ($1, $2), ($3, $4)`, stmt.SQL)
		assert.Equal(t, []any{"a@x.io", "A", "b@x.io", "B"}, stmt.Args)
	})

	t.Run("rows with different columns", func(t *testing.T) {
		_, _, err := client.From("users").
			Insert([]Row{{"name": "A"}, {"email": "b@x.io"}}).
			ToSQL()
		assert.ErrorIs(t, err, ErrRowShapeMismatch)
	})

	t.Run("empty row list", func(t *testing.T) {
		_, _, err := client.From("users").Insert([]Row{}).ToSQL()
		assert.ErrorIs(t, err, ErrEmptyMutation)
	})
}

func TestCompileUpdate(t *testing.T) {
	client := newTestClient(nil)

	t.Run("filter args come before set args", func(t *testing.T) {
		stmt := compile(t, client.From("users").
			Update(Row{"name": "Jane", "age": 30}).
			Eq("id", 1).
			Returning())

		assert.Equal(t, `UPDATE "users" SET "age" = $2, "name" = $3 WHERE "id" = $1 RETURNING *`, stmt.SQL)
		assert.Equal(t, []any{1, 30, "Jane"}, stmt.Args)
	})

	t.Run("without filter updates every row", func(t *testing.T) {
		stmt := compile(t, client.From("users").Update(Row{"active": false}))
		assert.Equal(t, `UPDATE "users" SET "active" = $1`, stmt.SQL)
	})

	t.Run("empty values", func(t *testing.T) {
		_, _, err := client.From("users").Update(Row{}).Eq("id", 1).ToSQL()
		assert.ErrorIs(t, err, ErrEmptyMutation)
	})
}

func TestCompileUpsert(t *testing.T) {
	client := newTestClient(nil)

	tests := []struct {
		name    string
		qb      *QueryBuilder
		wantSQL string
	}{
		{
			name: "default conflict target",
			qb:   client.From("users").Upsert(Row{"id": 1, "name": "A"}),
			wantSQL: `INSERT INTO "users" ("id", "name") VALUES ($1, $2) ` +
				`ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name" RETURNING *`,
		},
		{
			name: "composite conflict target",
			qb: client.From("memberships").
				Upsert(Row{"org_id": 1, "user_id": 2, "role": "admin"}, OnConflict("org_id, user_id")),
			wantSQL: `INSERT INTO "memberships" ("org_id", "role", "user_id") VALUES ($1, $2, $3) ` +
				`ON CONFLICT ("org_id", "user_id") DO UPDATE SET "role" = EXCLUDED."role" RETURNING *`,
		},
		{
			name: "only conflict columns",
			qb:   client.From("tags").Upsert(Row{"slug": "go"}, OnConflict("slug")),
			wantSQL: `INSERT INTO "tags" ("slug") VALUES ($1) ` +
				`ON CONFLICT ("slug") DO NOTHING RETURNING *`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := compile(t, tt.qb)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
		})
	}
}

func TestCompileUpsert_ConflictColumnsNeverUpdated(t *testing.T) {
	client := newTestClient(nil)

	tests := []struct {
		name       string
		rows       any
		onConflict string
		conflict   []string
	}{
		{"default target", Row{"id": 1, "name": "A", "email": "a@x.io"}, "", []string{"id"}},
		{"single column target", Row{"email": "a@x.io", "name": "A"}, "email", []string{"email"}},
		{"target with spaces", Row{"a": 1, "b": 2, "c": 3}, " a , b ", []string{"a", "b"}},
		{"target only", Row{"slug": "go"}, "slug", []string{"slug"}},
		{"multi row", []Row{{"id": 1, "qty": 2, "sku": "x"}, {"id": 2, "qty": 5, "sku": "y"}}, "sku", []string{"sku"}},
		{"target not in row", Row{"name": "A", "plan": "pro"}, "tenant_id, id", []string{"tenant_id", "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := compile(t, client.From("accounts").Upsert(tt.rows, OnConflict(tt.onConflict)))

			rows, err := normalizeRows(tt.rows)
			require.NoError(t, err)

			skip := make(map[string]bool)
			wantTarget := make([]string, len(tt.conflict))
			for i, c := range tt.conflict {
				skip[c] = true
				wantTarget[i] = `"` + c + `"`
			}
			var wantSets []string
			for _, c := range sortedKeys(rows[0]) {
				if !skip[c] {
					wantSets = append(wantSets, `"`+c+`" = EXCLUDED."`+c+`"`)
				}
			}

			assert.Contains(t, stmt.SQL, " ON CONFLICT ("+strings.Join(wantTarget, ", ")+")")
			assert.True(t, strings.HasSuffix(stmt.SQL, " RETURNING *"))

			if len(wantSets) == 0 {
				assert.Contains(t, stmt.SQL, " DO NOTHING RETURNING *")
				assert.NotContains(t, stmt.SQL, "DO UPDATE")
				return
			}
			_, setClause, ok := strings.Cut(strings.TrimSuffix(stmt.SQL, " RETURNING *"), " DO UPDATE SET ")
			require.True(t, ok, stmt.SQL)
			assert.Equal(t, strings.Join(wantSets, ", "), setClause)
			for c := range skip {
				assert.NotContains(t, setClause, `"`+c+`" =`)
			}
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	chains := map[string]func(c *Client) *QueryBuilder{
		"select": func(c *Client) *QueryBuilder {
			return c.From("orders").Select("*, products(title)", CountExact()).
				Eq("status", "paid").Gte("total", 10).Is("deleted_at", nil).
				Order("created_at", Ascending(false)).Limit(20)
		},
		"insert": func(c *Client) *QueryBuilder {
			return c.From("users").Insert([]Row{
				{"name": "A", "email": "a@x.io", "age": 1, "meta": map[string]any{"b": 1, "a": 2}, "tags": []any{"x"}},
				{"tags": []any{"y"}, "meta": map[string]any{}, "age": 2, "email": "b@x.io", "name": "B"},
			}).Returning()
		},
		"update": func(c *Client) *QueryBuilder {
			return c.From("users").
				Update(Row{"z": 1, "y": 2, "x": 3, "w": 4, "v": 5, "u": 6}).
				Eq("id", 9).Neq("role", "admin").Returning()
		},
		"upsert": func(c *Client) *QueryBuilder {
			return c.From("memberships").
				Upsert(Row{"user_id": 1, "org_id": 2, "role": "owner", "since": "2024"}, OnConflict("org_id,user_id"))
		},
	}

	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		build := chains[name]
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				first, firstCount, err := build(newTestClient(nil)).ToSQL()
				require.NoError(t, err)
				second, secondCount, err := build(newTestClient(nil)).ToSQL()
				require.NoError(t, err)

				assert.Equal(t, first.SQL, second.SQL)
				assert.Equal(t, first.Args, second.Args)
				assert.Equal(t, firstCount, secondCount)
			}
		})
	}
}

func TestChainErrors(t *testing.T) {
	client := newTestClient(nil)

	tests := []struct {
		name    string
		qb      *QueryBuilder
		wantErr error
	}{
		{
			name:    "no operation",
			qb:      client.From("users").Eq("id", 1),
			wantErr: ErrNoOperation,
		},
		{
			name:    "missing table",
			qb:      client.From("  ").Select("*"),
			wantErr: ErrMissingTable,
		},
		{
			name:    "select after insert",
			qb:      client.From("users").Insert(Row{"name": "A"}).Select("*"),
			wantErr: ErrSelectAfterMutation,
		},
		{
			name:    "insert after select",
			qb:      client.From("users").Select("*").Insert(Row{"name": "A"}),
			wantErr: ErrOperationConflict,
		},
		{
			name:    "update after upsert",
			qb:      client.From("users").Upsert(Row{"id": 1}).Update(Row{"name": "A"}),
			wantErr: ErrOperationConflict,
		},
		{
			name:    "returning without mutation",
			qb:      client.From("users").Select("*").Returning(),
			wantErr: ErrNoOperation,
		},
		{
			name:    "negative limit",
			qb:      client.From("users").Select("*").Limit(-1),
			wantErr: ErrUnsupportedValue,
		},
		{
			name:    "first error wins",
			qb:      client.From("users").Not("a", "gt", 1).Select("*").Insert(Row{"a": 1}),
			wantErr: ErrUnsupportedOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.qb.ToSQL()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestOperation_SameOperationTwice(t *testing.T) {
	qb := newTestClient(nil).From("users").Select("id").Select("name")
	stmt := compile(t, qb)
	assert.Equal(t, `SELECT "name" FROM "users"`, stmt.SQL)
	assert.Equal(t, OpSelect, qb.Operation())
}

func TestClient_FromReturnsIndependentBuilders(t *testing.T) {
	client := newTestClient(nil)

	a := client.From("users").Select("*").Eq("id", 1)
	b := client.From("users").Select("*")

	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = $1`, compile(t, a).SQL)
	assert.Equal(t, `SELECT * FROM "users"`, compile(t, b).SQL)
	assert.Equal(t, "users", b.Table())
}
