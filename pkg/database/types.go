// -----------------------------------------------------------------------------
// Database Types - Query Builder İçin Yardımcı Tipler
// -----------------------------------------------------------------------------
// Bu dosya, QueryBuilder'ın biriktirdiği state'i temsil eden internal tipleri
// içerir. Operation, OrderClause, WhereClause ve JoinSpec gibi yapılar burada
// tanımlanır. Kullanıcı input'u hiçbir zaman doğrudan SQL'e yazılmaz; kolon
// adları grammar tarafından quote edilir, değerler ise $n placeholder'ları ile
// bağlanır.
// -----------------------------------------------------------------------------

package database

// Row, sorgudan dönen tek bir satırı temsil eder (kolon adı -> değer).
// Join reshape sonrası iç içe ilişki objeleri de Row olarak taşınır.
type Row = map[string]any

// Operation, bir zincirin derleneceği SQL komutunu belirten tagged state'tir.
// Bir zincirde en fazla bir operation set edilebilir.
type Operation int

const (
	OpNone Operation = iota
	OpSelect
	OpInsert
	OpUpdate
	OpUpsert
)

// String, operation'ın log ve hata mesajlarında kullanılan adını döndürür.
func (o Operation) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpUpsert:
		return "upsert"
	default:
		return "none"
	}
}

// IsMutation, operation'ın veri değiştiren bir komut olup olmadığını söyler.
func (o Operation) IsMutation() bool {
	return o == OpInsert || o == OpUpdate || o == OpUpsert
}

// OrderDirection, ORDER BY için izin verilen yönleri temsil eder.
// Enum-like yapı sayesinde yön bilgisi hiçbir zaman kullanıcı string'inden
// SQL'e taşınmaz.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// OrderClause, bir ORDER BY ifadesini temsil eder.
//
// Örnek:
//
//	OrderClause{Column: "created_at", Direction: OrderDesc}
//	→ SQL: ORDER BY "created_at" DESC
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// WhereClause, tek bir WHERE koşulunu temsil eder. Koşullar her zaman AND ile
// birleştirilir; gruplama ve OR desteklenmez.
//
// Alanlar:
//   - Column: Koşulun uygulandığı kolon (JSON path olabilir: "meta->color")
//   - Operator: =, !=, >, >=, <, <=, IS, IS NOT
//   - Value: Bağlanacak değer (Bound false ise kullanılmaz)
//   - Bound: true ise değer $n placeholder'ı ile bağlanır, false ise
//     operator'den sonra NULL yazılır
type WhereClause struct {
	Column   string
	Operator string
	Value    any
	Bound    bool
}

// JoinSpec, Supabase tarzı embedded relation ifadesinden ("products(title)")
// çıkarılan tek seviyeli LEFT JOIN tanımıdır.
//
// Alanlar:
//   - Table: Join yapılacak hedef tablo
//   - Columns: Hedef tablodan istenen kolonlar
//   - ForeignKey: Ana tablodaki FK kolonu (varsayılan: tekil(Table) + "_id")
type JoinSpec struct {
	Table      string
	Columns    []string
	ForeignKey string
}

// Alias, join kolonunun sonuç satırındaki düz (flat) adını döndürür.
// Örnek: products + title → products_title
func (j *JoinSpec) Alias(column string) string {
	return j.Table + "_" + column
}

// Statement, derlenmiş tek bir SQL komutu ve onun pozisyonel parametreleridir.
type Statement struct {
	SQL  string
	Args []any
}

// SelectOption, Select çağrısını özelleştirir.
type SelectOption func(*selectOptions)

type selectOptions struct {
	countExact bool
}

// CountExact, select ile birlikte aynı WHERE koşullarını paylaşan bir
// COUNT(*) sorgusu çalıştırılmasını ister.
func CountExact() SelectOption {
	return func(o *selectOptions) { o.countExact = true }
}

// OrderOption, Order çağrısını özelleştirir.
type OrderOption func(*OrderClause)

// Ascending, sıralama yönünü belirler. Varsayılan artan sıradır; yalnızca
// Ascending(false) azalan sıralama üretir.
func Ascending(asc bool) OrderOption {
	return func(o *OrderClause) {
		if asc {
			o.Direction = OrderAsc
		} else {
			o.Direction = OrderDesc
		}
	}
}

// UpsertOption, Upsert çağrısını özelleştirir.
type UpsertOption func(*QueryBuilder)

// OnConflict, upsert için conflict target kolon listesini virgülle ayrılmış
// olarak belirler. Varsayılan "id".
func OnConflict(columns string) UpsertOption {
	return func(qb *QueryBuilder) { qb.onConflict = columns }
}
