package response

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/biyonik/pgquery/pkg/database"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run, zinciri verilen satırlar veya hata ile çalıştırır.
func run(rows []database.Row, err error, chain func(*database.Client) *database.QueryBuilder) *database.Result {
	exec := database.ExecutorFunc(func(ctx context.Context, query string, args ...any) ([]database.Row, error) {
		return rows, err
	})
	client := database.NewClient(exec, database.WithLogger(log.New(io.Discard, "", 0)))
	return chain(client).Execute(context.Background())
}

func selectAll(c *database.Client) *database.QueryBuilder {
	return c.From("users").Select("*")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		res  *database.Result
		want int
	}{
		{
			name: "nil result",
			res:  nil,
			want: http.StatusOK,
		},
		{
			name: "success",
			res:  run([]database.Row{{"id": 1}}, nil, selectAll),
			want: http.StatusOK,
		},
		{
			name: "single without rows",
			res: run(nil, nil, func(c *database.Client) *database.QueryBuilder {
				return c.From("users").Select("*").Eq("id", 999).Single()
			}),
			want: http.StatusNotFound,
		},
		{
			name: "chain error",
			res: run(nil, nil, func(c *database.Client) *database.QueryBuilder {
				return c.From("users; DROP TABLE users").Select("*")
			}),
			want: http.StatusBadRequest,
		},
		{
			name: "unique violation",
			res:  run(nil, &pq.Error{Code: "23505", Message: "duplicate key"}, selectAll),
			want: http.StatusConflict,
		},
		{
			name: "undefined table",
			res:  run(nil, &pq.Error{Code: "42P01", Message: "relation does not exist"}, selectAll),
			want: http.StatusNotFound,
		},
		{
			name: "undefined column",
			res:  run(nil, &pq.Error{Code: "42703", Message: "column does not exist"}, selectAll),
			want: http.StatusBadRequest,
		},
		{
			name: "invalid text representation",
			res:  run(nil, &pq.Error{Code: "22P02", Message: "invalid input syntax"}, selectAll),
			want: http.StatusBadRequest,
		},
		{
			name: "connection failure",
			res:  run(nil, &pq.Error{Code: "08006", Message: "connection failure"}, selectAll),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.res, http.StatusOK))
		})
	}
}

func TestResult_Envelope(t *testing.T) {
	res := run([]database.Row{{"id": int64(1)}, {"id": int64(2)}}, nil, func(c *database.Client) *database.QueryBuilder {
		return c.From("users").Select("*", database.CountExact())
	})
	w := httptest.NewRecorder()

	require.NoError(t, Result(w, http.StatusOK, res))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.Nil(t, body["error"])
	assert.Len(t, body["data"], 2)
}

func TestResult_ErrorEnvelope(t *testing.T) {
	res := run(nil, &pq.Error{Code: "23505", Message: "duplicate key", Detail: "Key (email) already exists."}, func(c *database.Client) *database.QueryBuilder {
		return c.From("users").Insert(database.Row{"email": "a@b.c"})
	})
	w := httptest.NewRecorder()

	require.NoError(t, Result(w, http.StatusCreated, res))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Data  any            `json:"data"`
		Error database.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Data)
	assert.Equal(t, "duplicate key", body.Error.Message)
	assert.Equal(t, "23505", body.Error.Code)
	assert.Equal(t, "Key (email) already exists.", body.Error.Details)
}

func TestContentRange(t *testing.T) {
	count := func(n int64) *int64 { return &n }

	tests := []struct {
		name string
		res  *database.Result
		want string
	}{
		{"rows with total", &database.Result{Data: []database.Row{{}, {}, {}}, Count: count(42)}, "0-2/42"},
		{"no rows", &database.Result{Data: []database.Row{}, Count: count(0)}, "*/0"},
		{"single row", &database.Result{Data: database.Row{"id": 1}, Count: count(1)}, "0-0/1"},
		{"unknown total", &database.Result{Data: []database.Row{{}}}, "0-0/*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentRange(tt.res))
		})
	}
}

func TestResult_ContentRangeHeaderOnlyWithCount(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Result(w, http.StatusOK, &database.Result{Data: []database.Row{}}))
	assert.Empty(t, w.Header().Get("Content-Range"))

	n := int64(5)
	w = httptest.NewRecorder()
	require.NoError(t, Result(w, http.StatusOK, &database.Result{Data: []database.Row{{}}, Count: &n}))
	assert.Equal(t, "0-0/5", w.Header().Get("Content-Range"))
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(http.ResponseWriter)
		want int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "") }, http.StatusBadRequest},
		{"invalid json", InvalidJSON, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "") }, http.StatusNotFound},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "") }, http.StatusTooManyRequests},
		{"server error", func(w http.ResponseWriter) { ServerError(w, "") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.fn(w)

			assert.Equal(t, tt.want, w.Code)
			var body map[string]map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"]["message"])
		})
	}
}
