package database

import (
	"fmt"
	"log"
	"strings"
)

// -----------------------------------------------------------------------------
// QUERY BUILDER: TEMEL
// -----------------------------------------------------------------------------
// Bu dosya, QueryBuilder'ın ana gövdesini içerir. Builder; tablo, operation,
// projeksiyon, where'lar, order, limit ve mutation değerleri gibi state
// bilgilerini tutar ve Execute çağrıldığında tek bir parametreli SQL komutuna
// derlenir.
//
// TASARIM KURALLARI:
// - Her Client.From çağrısı yeni ve bağımsız bir builder üretir
// - Zincir tek kullanımlıktır; Execute sonrası builder yeniden kullanılmaz
// - Zincir sırasında oluşan hatalar panic atmaz, ilk hata saklanır ve
//   Execute sırasında Result.Error olarak döner
// -----------------------------------------------------------------------------

// QueryBuilder, tek bir tabloya bağlı fluent sorgu zinciridir.
type QueryBuilder struct {
	executor Executor
	grammar  Grammar
	logger   *log.Logger

	table      string
	op         Operation
	columns    []string
	countExact bool
	join       *JoinSpec
	wheres     []WhereClause
	orders     []OrderClause
	limit      int
	hasLimit   bool
	single     bool
	rows       []Row
	values     Row
	onConflict string
	returning  bool

	err error
}

// newBuilder, verilen tabloya bağlı boş bir zincir oluşturur.
func newBuilder(executor Executor, grammar Grammar, logger *log.Logger, table string) *QueryBuilder {
	qb := &QueryBuilder{
		executor:   executor,
		grammar:    grammar,
		logger:     logger,
		table:      strings.TrimSpace(table),
		columns:    []string{"*"},
		onConflict: "id",
	}
	if qb.table == "" {
		qb.fail(ErrMissingTable)
	}
	return qb
}

// fail, zincirdeki ilk hatayı saklar. Sonraki hatalar yok sayılır; kullanıcıya
// her zaman kök neden gösterilir.
func (qb *QueryBuilder) fail(err error) {
	if qb.err == nil {
		qb.err = err
	}
}

// setOperation, tagged state geçişini uygular. Aynı operation'ın tekrar
// seçilmesi serbesttir; farklı bir operation'a geçiş reddedilir.
func (qb *QueryBuilder) setOperation(op Operation) bool {
	if qb.op != OpNone && qb.op != op {
		qb.fail(fmt.Errorf("%w: %s already set, cannot switch to %s", ErrOperationConflict, qb.op, op))
		return false
	}
	qb.op = op
	return true
}

// Table, zincirin bağlı olduğu tablo adını döndürür.
func (qb *QueryBuilder) Table() string {
	return qb.table
}

// Operation, zincirde seçilmiş operation'ı döndürür.
func (qb *QueryBuilder) Operation() Operation {
	return qb.op
}

// Select, sorgudan döndürülecek kolonları belirler.
//
// Kolon string'i Supabase formatındadır; virgülle ayrılmış kolonlar ve en
// fazla bir embedded relation içerebilir.
//
// Örnek:
//
//	client.From("orders").Select("*")
//	client.From("orders").Select("id, total", CountExact())
//	client.From("orders").Select("*, products(title, price)")
//
// Not: Bir mutation (Insert/Update/Upsert) seçildikten sonra Select
// çağrılamaz; etkilenen satırları geri almak için Returning kullanılır.
func (qb *QueryBuilder) Select(columns string, opts ...SelectOption) *QueryBuilder {
	if qb.op.IsMutation() {
		qb.fail(fmt.Errorf("%w (%s on %q)", ErrSelectAfterMutation, qb.op, qb.table))
		return qb
	}
	if !qb.setOperation(OpSelect) {
		return qb
	}

	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}
	qb.countExact = o.countExact

	projection, join, err := parseSelect(columns)
	if err != nil {
		qb.fail(err)
		return qb
	}
	qb.columns = projection
	qb.join = join
	return qb
}

// Insert, bir veya birden fazla satır ekleyen zinciri başlatır.
//
// Parametre:
//   - rows: Row, []Row, struct, *struct veya struct slice'ı
//
// Tüm satırlar aynı kolon kümesine sahip olmalıdır; aksi halde Execute
// ErrRowShapeMismatch döner.
//
// Örnek:
//
//	client.From("users").Insert([]Row{{"name": "A"}, {"name": "B"}}).Returning()
func (qb *QueryBuilder) Insert(rows any) *QueryBuilder {
	if !qb.setOperation(OpInsert) {
		return qb
	}
	normalized, err := normalizeRows(rows)
	if err != nil {
		qb.fail(err)
		return qb
	}
	qb.rows = normalized
	return qb
}

// Update, verilen kolon → değer eşlemesi ile UPDATE zinciri başlatır.
//
// UYARI: Filtre eklenmeden çalıştırılan Update tablodaki TÜM satırları
// günceller. Bu davranış uyumluluk için korunmuştur.
//
// Örnek:
//
//	client.From("users").Update(Row{"name": "Jane"}).Eq("id", 1)
func (qb *QueryBuilder) Update(values any) *QueryBuilder {
	if !qb.setOperation(OpUpdate) {
		return qb
	}
	rows, err := normalizeRows(values)
	if err != nil {
		qb.fail(err)
		return qb
	}
	if len(rows) != 1 {
		qb.fail(fmt.Errorf("%w: update expects exactly one value mapping, got %d", ErrEmptyMutation, len(rows)))
		return qb
	}
	qb.values = rows[0]
	return qb
}

// Upsert, insert-or-update zinciri başlatır. Conflict target varsayılan
// olarak "id" kolonudur. Upsert her zaman etkilenen satırları döndürür.
//
// Örnek:
//
//	client.From("users").Upsert(Row{"id": 1, "name": "Jane"}, OnConflict("id"))
func (qb *QueryBuilder) Upsert(rows any, opts ...UpsertOption) *QueryBuilder {
	if !qb.setOperation(OpUpsert) {
		return qb
	}
	normalized, err := normalizeRows(rows)
	if err != nil {
		qb.fail(err)
		return qb
	}
	qb.rows = normalized
	for _, opt := range opts {
		opt(qb)
	}
	qb.returning = true
	return qb
}

// Returning, mutation komutunun etkilenen satırları (RETURNING *) geri
// döndürmesini ister.
func (qb *QueryBuilder) Returning() *QueryBuilder {
	if !qb.op.IsMutation() {
		qb.fail(fmt.Errorf("%w: returning requires insert, update or upsert", ErrNoOperation))
		return qb
	}
	qb.returning = true
	return qb
}

// Order, sonuçları belirtilen kolona göre sıralar. Varsayılan yön artandır.
//
// Örnek:
//
//	qb.Order("name")
//	qb.Order("created_at", Ascending(false))
//	qb.Order("meta->rank")
func (qb *QueryBuilder) Order(column string, opts ...OrderOption) *QueryBuilder {
	clause := OrderClause{Column: strings.TrimSpace(column), Direction: OrderAsc}
	for _, opt := range opts {
		opt(&clause)
	}
	qb.orders = append(qb.orders, clause)
	return qb
}

// Limit, döndürülecek maksimum satır sayısını belirler.
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	if n < 0 {
		qb.fail(fmt.Errorf("%w: limit must not be negative, got %d", ErrUnsupportedValue, n))
		return qb
	}
	qb.limit = n
	qb.hasLimit = true
	return qb
}

// Single, tek satır modunu açar ve limiti 1'e sabitler. Hiç satır dönmezse
// Result.Error "Row not found" olur; birden fazla eşleşme hata değildir.
func (qb *QueryBuilder) Single() *QueryBuilder {
	qb.single = true
	qb.limit = 1
	qb.hasLimit = true
	return qb
}

// effectiveLimit, derlenecek LIMIT değerini döndürür.
func (qb *QueryBuilder) effectiveLimit() (int, bool) {
	if qb.single {
		return 1, true
	}
	return qb.limit, qb.hasLimit
}

// tables, zincirin okuduğu veya yazdığı tüm tabloları döndürür.
func (qb *QueryBuilder) tables() []string {
	if qb.join != nil {
		return []string{qb.table, qb.join.Table}
	}
	return []string{qb.table}
}

// ToSQL, builder state'ini birincil SQL komutuna ve (count istenmişse) aynı
// WHERE koşullarını paylaşan COUNT komutuna derler.
//
// Örnek:
//
//	stmt, _, err := client.From("users").Select("*").Eq("id", 1).ToSQL()
//	// stmt.SQL:  SELECT * FROM "users" WHERE "id" = $1
//	// stmt.Args: [1]
func (qb *QueryBuilder) ToSQL() (*Statement, *Statement, error) {
	if qb.err != nil {
		return nil, nil, qb.err
	}
	if qb.grammar == nil {
		return nil, nil, fmt.Errorf("query builder has no grammar")
	}

	switch qb.op {
	case OpSelect:
		stmt, err := qb.grammar.CompileSelect(qb)
		if err != nil {
			return nil, nil, err
		}
		if !qb.countExact {
			return stmt, nil, nil
		}
		count, err := qb.grammar.CompileCount(qb)
		if err != nil {
			return nil, nil, err
		}
		return stmt, count, nil
	case OpInsert:
		stmt, err := qb.grammar.CompileInsert(qb)
		return stmt, nil, err
	case OpUpdate:
		stmt, err := qb.grammar.CompileUpdate(qb)
		return stmt, nil, err
	case OpUpsert:
		stmt, err := qb.grammar.CompileUpsert(qb)
		return stmt, nil, err
	default:
		return nil, nil, ErrNoOperation
	}
}
