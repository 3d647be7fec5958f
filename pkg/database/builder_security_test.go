package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// SQL INJECTION GÜVENLİK TESTLERİ
// -----------------------------------------------------------------------------
// Bu testler, SQL injection saldırılarına karşı korumanın çalıştığını doğrular.
// Identifier'lar whitelist regex'inden geçmek zorundadır; değerler ise her
// zaman $n placeholder'ı ile bağlanır ve SQL metnine hiç girmez.
// -----------------------------------------------------------------------------

var maliciousIdentifiers = []struct {
	name  string
	input string
}{
	{name: "DROP TABLE attack", input: "id; DROP TABLE users--"},
	{name: "OR injection", input: "id' OR '1'='1"},
	{name: "UNION attack", input: "id UNION SELECT * FROM passwords--"},
	{name: "Comment injection", input: "id--"},
	{name: "Inline comment", input: "id/**/OR/**/1=1"},
	{name: "Quote injection", input: "id'"},
	{name: "Double quote injection", input: `id"`},
	{name: "Space injection", input: "id name"},
	{name: "Too many dots", input: "a.b.c"},
}

// TestSQLInjection_Table_MaliciousName tests SQL injection prevention in From
func TestSQLInjection_Table_MaliciousName(t *testing.T) {
	client := newTestClient(nil)

	for _, tc := range maliciousIdentifiers {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := client.From(tc.input).Select("*").ToSQL()
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

// TestSQLInjection_Filter_MaliciousColumn tests SQL injection prevention in filters
func TestSQLInjection_Filter_MaliciousColumn(t *testing.T) {
	client := newTestClient(nil)

	for _, tc := range maliciousIdentifiers {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := client.From("users").Select("*").Eq(tc.input, 1).ToSQL()
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

// TestSQLInjection_Order_MaliciousColumn tests SQL injection prevention in Order
func TestSQLInjection_Order_MaliciousColumn(t *testing.T) {
	client := newTestClient(nil)

	for _, tc := range maliciousIdentifiers {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := client.From("users").Select("*").Order(tc.input).ToSQL()
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

// TestSQLInjection_Select_MaliciousColumn tests SQL injection prevention in Select
func TestSQLInjection_Select_MaliciousColumn(t *testing.T) {
	client := newTestClient(nil)

	inputs := []string{
		"id; DROP TABLE users--",
		"id' OR '1'='1",
		"COUNT(*) FROM passwords--",
		"a(b), c(d)",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, _, err := client.From("users").Select(input).ToSQL()
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

// TestSQLInjection_Mutation_MaliciousColumn tests SQL injection prevention in row keys
func TestSQLInjection_Mutation_MaliciousColumn(t *testing.T) {
	client := newTestClient(nil)
	bad := Row{"name; DROP TABLE users--": "x"}

	t.Run("insert", func(t *testing.T) {
		_, _, err := client.From("users").Insert(bad).ToSQL()
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
	t.Run("update", func(t *testing.T) {
		_, _, err := client.From("users").Update(bad).ToSQL()
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
	t.Run("upsert conflict target", func(t *testing.T) {
		_, _, err := client.From("users").Upsert(Row{"id": 1}, OnConflict("id) DO NOTHING; --")).ToSQL()
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
}

// TestSQLInjection_ValuesAreBound tests that hostile values never reach the SQL text
func TestSQLInjection_ValuesAreBound(t *testing.T) {
	client := newTestClient(nil)

	values := []string{
		"'; DROP TABLE users--",
		"' OR '1'='1",
		"admin' UNION SELECT * FROM passwords--",
	}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			stmt := compile(t, client.From("users").Select("*").Eq("name", v))
			assert.Equal(t, `SELECT * FROM "users" WHERE "name" = $1`, stmt.SQL)
			assert.Equal(t, []any{v}, stmt.Args)
		})
	}
}

// TestSQLInjection_JSONPathKey tests that JSON keys are emitted as escaped literals
func TestSQLInjection_JSONPathKey(t *testing.T) {
	stmt := compile(t, newTestClient(nil).From("users").Select("*").Eq("meta->x' OR '1'='1", 1))
	assert.Equal(t, `SELECT * FROM "users" WHERE "meta"->>'x'' OR ''1''=''1' = $1`, stmt.SQL)
}

// TestValidIdentifiers tests that ordinary identifiers are accepted
func TestValidIdentifiers(t *testing.T) {
	g := NewPostgresGrammar()

	tests := []struct {
		input string
		want  string
	}{
		{"users", `"users"`},
		{"user_id", `"user_id"`},
		{"Users2", `"Users2"`},
		{"users.id", `"users"."id"`},
		{"users.*", `"users".*`},
		{"*", `*`},
		{"  name  ", `"name"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := g.Wrap(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEmptyIdentifiers tests that empty identifier parts are rejected
func TestEmptyIdentifiers(t *testing.T) {
	g := NewPostgresGrammar()

	for _, input := range []string{"", ".", "users.", ".id"} {
		t.Run(input, func(t *testing.T) {
			_, err := g.Wrap(input)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}
