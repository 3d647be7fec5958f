package database

// -----------------------------------------------------------------------------
// Grammar Interface
// -----------------------------------------------------------------------------
// Grammar, builder state'ini SQL lehçesine özgü komutlara derler. Tüm compile
// metotları hata döner; geçersiz identifier veya eksik mutation değeri panic
// üretmez, Result.Error alanına taşınır.
// -----------------------------------------------------------------------------

// Grammar, SQL lehçesine özgü sorgu üretimini tanımlar.
type Grammar interface {
	// Wrap, identifier'ları (tablo/kolon adları) lehçeye göre sarmalar.
	// PostgreSQL: çift tırnak ("table"), "table.column" → "table"."column"
	Wrap(value string) (string, error)

	// WrapColumn, Wrap'e ek olarak JSON path ifadelerini ("meta->color")
	// metin çıkarımına ("meta"->>'color') dönüştürür.
	WrapColumn(column string) (string, error)

	// CompileSelect, SELECT komutunu üretir.
	CompileSelect(qb *QueryBuilder) (*Statement, error)

	// CompileCount, SELECT ile aynı WHERE koşullarını ve parametreleri
	// paylaşan COUNT(*) komutunu üretir.
	CompileCount(qb *QueryBuilder) (*Statement, error)

	// CompileInsert, çok satırlı INSERT komutunu üretir.
	CompileInsert(qb *QueryBuilder) (*Statement, error)

	// CompileUpdate, UPDATE komutunu üretir. Filtre parametreleri SET
	// parametrelerinden önce numaralanır.
	CompileUpdate(qb *QueryBuilder) (*Statement, error)

	// CompileUpsert, INSERT ... ON CONFLICT DO UPDATE komutunu üretir.
	CompileUpsert(qb *QueryBuilder) (*Statement, error)
}
