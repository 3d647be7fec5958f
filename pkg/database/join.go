package database

import (
	"fmt"
	"regexp"
	"strings"
)

// -----------------------------------------------------------------------------
// JOIN OPERATIONS
// -----------------------------------------------------------------------------
// Supabase tarzı embedded relation desteği. Select string'i içindeki
// "products(title, price)" ifadesi tek seviyeli bir LEFT JOIN'e dönüşür:
//
//	SELECT "orders".*, "products"."title" AS "products_title" ...
//	FROM "orders" LEFT JOIN "products" ON "orders"."product_id" = "products"."id"
//
// Satırlar geldikten sonra "products_*" kolonları satırdan çıkarılıp
// "products" anahtarı altında iç içe bir objeye taşınır.
//
// FK kolonu açıkça da verilebilir: "products!main_product_id(title)".
// -----------------------------------------------------------------------------

var relationPattern = regexp.MustCompile(`([A-Za-z0-9_]+)\s*(?:!\s*([A-Za-z0-9_]+))?\s*\(([^()]*)\)`)

// parseSelect, select string'ini dış projeksiyon ve opsiyonel join tanımına ayırır.
func parseSelect(columns string) ([]string, *JoinSpec, error) {
	columns = strings.TrimSpace(columns)
	if columns == "" {
		return []string{"*"}, nil, nil
	}

	var join *JoinSpec
	if loc := relationPattern.FindStringSubmatchIndex(columns); loc != nil {
		target := columns[loc[2]:loc[3]]
		fk := ""
		if loc[4] >= 0 {
			fk = columns[loc[4]:loc[5]]
		}
		inner := splitColumns(columns[loc[6]:loc[7]])
		if fk == "" {
			fk = singularize(target) + "_id"
		}
		join = &JoinSpec{Table: target, Columns: inner, ForeignKey: fk}
		columns = columns[:loc[0]] + columns[loc[1]:]
	}

	outer := splitColumns(columns)
	for _, col := range outer {
		if strings.ContainsAny(col, "()") {
			return nil, nil, fmt.Errorf("%w: only one embedded relation is supported, got %q", ErrInvalidIdentifier, col)
		}
	}
	return outer, join, nil
}

// splitColumns, virgülle ayrılmış kolon listesini temizler. Boş liste "*" olur.
func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// selectsAll, kolon listesinde "*" olup olmadığını kontrol eder.
func selectsAll(columns []string) bool {
	for _, c := range columns {
		if c == "*" {
			return true
		}
	}
	return false
}

// singularize, tablo adından FK kolonu türetmek için basit bir tekilleştirme yapar.
//
//	categories → category, addresses → address, boxes → box, orders → order
func singularize(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(lower, "sses"),
		strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"),
		strings.HasSuffix(lower, "shes"):
		return name[:len(name)-2]
	case strings.HasSuffix(lower, "ss"):
		return name
	case strings.HasSuffix(lower, "s") && len(name) > 1:
		return name[:len(name)-1]
	default:
		return name
	}
}

// reshapeJoin, join alias kolonlarını iç içe objeye taşır. LEFT JOIN eşleşme
// bulamadığında (tüm join kolonları NULL) ilişki anahtarı nil olur.
func reshapeJoin(rows []Row, join *JoinSpec) {
	if join == nil {
		return
	}
	if selectsAll(join.Columns) {
		// to_jsonb ile tüm satır zaten tek kolon olarak geldi.
		return
	}

	for _, row := range rows {
		nested := make(Row, len(join.Columns))
		matched := false
		for _, col := range join.Columns {
			alias := join.Alias(col)
			v := row[alias]
			delete(row, alias)
			nested[col] = v
			if v != nil {
				matched = true
			}
		}
		if matched {
			row[join.Table] = nested
		} else {
			row[join.Table] = nil
		}
	}
}
