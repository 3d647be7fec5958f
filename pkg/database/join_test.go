package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_Compile(t *testing.T) {
	client := newTestClient(nil)

	t.Run("embedded columns", func(t *testing.T) {
		stmt := compile(t, client.From("orders").
			Select("*, products(title, price)").
			Eq("status", "paid").
			Order("created_at", Ascending(false)))

		assert.Equal(t,
			`SELECT "orders".*, "products"."title" AS "products_title", "products"."price" AS "products_price" `+
				`FROM "orders" LEFT JOIN "products" ON "orders"."product_id" = "products"."id" `+
				`WHERE "orders"."status" = $1 ORDER BY "orders"."created_at" DESC`,
			stmt.SQL)
		assert.Equal(t, []any{"paid"}, stmt.Args)
	})

	t.Run("embedded star", func(t *testing.T) {
		stmt := compile(t, client.From("posts").Select("id, categories(*)"))
		assert.Equal(t,
			`SELECT "posts"."id", CASE WHEN "categories"."id" IS NULL THEN NULL ELSE to_jsonb("categories".*) END AS "categories" `+
				`FROM "posts" LEFT JOIN "categories" ON "posts"."category_id" = "categories"."id"`,
			stmt.SQL)
	})

	t.Run("foreign key hint", func(t *testing.T) {
		stmt := compile(t, client.From("orders").Select("id, products!main_product_id(title)"))
		assert.Contains(t, stmt.SQL, `ON "orders"."main_product_id" = "products"."id"`)
	})

	t.Run("json path filter is qualified", func(t *testing.T) {
		stmt := compile(t, client.From("orders").Select("*, products(title)").Eq("meta->source", "web"))
		assert.Contains(t, stmt.SQL, `WHERE "orders"."meta"->>'source' = $1`)
	})

	t.Run("count keeps the join", func(t *testing.T) {
		_, count, err := client.From("orders").Select("*, products(title)", CountExact()).Eq("status", "paid").ToSQL()
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT COUNT(*) FROM "orders" LEFT JOIN "products" ON "orders"."product_id" = "products"."id" `+
				`WHERE "orders"."status" = $1`,
			count.SQL)
	})

	t.Run("count filtered on embedded column", func(t *testing.T) {
		stmt, count, err := client.From("orders").
			Select("*, products(title)", CountExact()).
			Eq("products.title", "x").
			ToSQL()
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL, `WHERE "products"."title" = $1`)
		assert.Equal(t,
			`SELECT COUNT(*) FROM "orders" LEFT JOIN "products" ON "orders"."product_id" = "products"."id" `+
				`WHERE "products"."title" = $1`,
			count.SQL)
		assert.Equal(t, []any{"x"}, count.Args)
	})
}

func TestSingularize(t *testing.T) {
	tests := map[string]string{
		"products":   "product",
		"categories": "category",
		"addresses":  "address",
		"boxes":      "box",
		"branches":   "branch",
		"wishes":     "wish",
		"glass":      "glass",
		"person":     "person",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, singularize(in))
		})
	}
}

func TestReshapeJoin(t *testing.T) {
	join := &JoinSpec{Table: "products", Columns: []string{"title", "price"}, ForeignKey: "product_id"}

	rows := []Row{
		{"id": 1, "products_title": "Book", "products_price": 12},
		{"id": 2, "products_title": nil, "products_price": nil},
	}
	reshapeJoin(rows, join)

	assert.Equal(t, Row{"id": 1, "products": Row{"title": "Book", "price": 12}}, rows[0])
	assert.Equal(t, Row{"id": 2, "products": nil}, rows[1])
}

func TestReshapeJoin_StarIsUntouched(t *testing.T) {
	rows := []Row{{"id": 1, "categories": map[string]any{"id": 3}}}
	reshapeJoin(rows, &JoinSpec{Table: "categories", Columns: []string{"*"}})
	assert.Equal(t, map[string]any{"id": 3}, rows[0]["categories"])
}
