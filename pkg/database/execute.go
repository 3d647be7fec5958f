package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// -----------------------------------------------------------------------------
// EXECUTE
// -----------------------------------------------------------------------------
// Execute zinciri derler, Executor'a gönderir ve sonucu envelope'a sarar.
// Hiçbir koşulda panic veya Go error dışarı sızmaz: builder hatası, sürücü
// hatası, hatta Executor içindeki bir panic bile Result.Error'a dönüşür.
// -----------------------------------------------------------------------------

// Execute, zinciri çalıştırır.
//
// Örnek:
//
//	res := client.From("users").Select("*").Eq("status", "active").Execute(ctx)
//	if res.Error != nil {
//	    log.Printf("query failed: %s", res.Error.Message)
//	}
func (qb *QueryBuilder) Execute(ctx context.Context) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(fmt.Errorf("query execution panicked: %v", r))
			qb.logFailure(result)
		}
	}()

	result = qb.execute(ctx)
	if result.Error != nil {
		qb.logFailure(result)
	}
	return result
}

func (qb *QueryBuilder) execute(ctx context.Context) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if qb.err != nil {
		return failure(qb.err)
	}
	if qb.executor == nil {
		return failure(fmt.Errorf("query builder has no executor"))
	}

	stmt, countStmt, err := qb.ToSQL()
	if err != nil {
		return failure(err)
	}

	info := StatementInfo{Operation: qb.op, Table: qb.table, Tables: qb.tables()}
	rows, err := qb.executor.Query(WithStatementInfo(ctx, info), stmt.SQL, stmt.Args...)
	if err != nil {
		return failure(err)
	}
	reshapeJoin(rows, qb.join)

	result := &Result{}
	if countStmt != nil {
		info.Count = true
		countRows, err := qb.executor.Query(WithStatementInfo(ctx, info), countStmt.SQL, countStmt.Args...)
		if err != nil {
			return failure(err)
		}
		n, err := parseCount(countRows)
		if err != nil {
			return failure(err)
		}
		result.Count = &n
	}

	if qb.op.IsMutation() && !qb.returning {
		return result
	}

	if qb.single {
		if len(rows) == 0 {
			return failure(ErrRowNotFound)
		}
		result.Data = rows[0]
		return result
	}

	result.Data = rows
	return result
}

// Go, Execute'u ayrı bir goroutine'de çalıştırır. Dönen kanal tam olarak bir
// Result taşır ve sonra kapanır.
//
// Örnek:
//
//	pending := client.From("orders").Select("*").Go(ctx)
//	// ... başka işler ...
//	res := <-pending
func (qb *QueryBuilder) Go(ctx context.Context) <-chan *Result {
	ch := make(chan *Result, 1)
	go func() {
		defer close(ch)
		ch <- qb.Execute(ctx)
	}()
	return ch
}

// parseCount, COUNT(*) sorgusunun tek satırlık sonucunu okur.
func parseCount(rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	for _, v := range rows[0] {
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case float64:
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case []byte:
			return strconv.ParseInt(string(n), 10, 64)
		case string:
			return strconv.ParseInt(n, 10, 64)
		default:
			return 0, fmt.Errorf("unexpected count value %T", v)
		}
	}
	return 0, fmt.Errorf("count query returned an empty row")
}

func (qb *QueryBuilder) logFailure(result *Result) {
	if qb.logger == nil || result == nil || result.Error == nil {
		return
	}
	qb.logger.Printf("❌ %s %q başarısız: %s", qb.op, qb.table, result.Error.Message)
}
