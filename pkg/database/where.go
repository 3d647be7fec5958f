package database

import (
	"fmt"
	"reflect"
	"strings"
)

// -----------------------------------------------------------------------------
// WHERE OPERATIONS
// -----------------------------------------------------------------------------
// Her filtre metodu tam olarak bir WHERE koşulu ekler. Koşullar AND ile
// birleştirilir. Değer taşıyan koşullar derleme sırasında eklenme sırasına
// göre $1, $2, ... placeholder'ları alır; bu sıra hiçbir zaman değişmez.
// -----------------------------------------------------------------------------

func (qb *QueryBuilder) where(column, operator string, value any) *QueryBuilder {
	qb.wheres = append(qb.wheres, WhereClause{
		Column:   strings.TrimSpace(column),
		Operator: operator,
		Value:    value,
		Bound:    true,
	})
	return qb
}

// Eq, kolonun değere eşit olmasını şart koşar.
//
//	qb.Eq("status", "active") → "status" = $1
func (qb *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	return qb.where(column, "=", value)
}

// Neq, kolonun değere eşit olmamasını şart koşar.
func (qb *QueryBuilder) Neq(column string, value any) *QueryBuilder {
	return qb.where(column, "!=", value)
}

// Gt, kolon > değer koşulu ekler.
func (qb *QueryBuilder) Gt(column string, value any) *QueryBuilder {
	return qb.where(column, ">", value)
}

// Gte, kolon >= değer koşulu ekler.
func (qb *QueryBuilder) Gte(column string, value any) *QueryBuilder {
	return qb.where(column, ">=", value)
}

// Lt, kolon < değer koşulu ekler.
func (qb *QueryBuilder) Lt(column string, value any) *QueryBuilder {
	return qb.where(column, "<", value)
}

// Lte, kolon <= değer koşulu ekler.
func (qb *QueryBuilder) Lte(column string, value any) *QueryBuilder {
	return qb.where(column, "<=", value)
}

// Is, IS karşılaştırması ekler.
//
//	qb.Is("deleted_at", nil) → "deleted_at" IS NULL
//	qb.Is("verified", true)  → "verified" IS TRUE
//	qb.Is("code", "x")       → "code" IS NOT DISTINCT FROM $1
//
// PostgreSQL IS operatörünün sağında yalnızca NULL/TRUE/FALSE literal'ine izin
// verdiği için diğer değerler null-safe eşitlik ile bağlanır.
func (qb *QueryBuilder) Is(column string, value any) *QueryBuilder {
	column = strings.TrimSpace(column)
	if isNil(value) {
		qb.wheres = append(qb.wheres, WhereClause{Column: column, Operator: "IS"})
		return qb
	}
	if b, ok := value.(bool); ok {
		qb.wheres = append(qb.wheres, WhereClause{Column: column, Operator: "IS", Value: b})
		return qb
	}
	return qb.where(column, "IS NOT DISTINCT FROM", value)
}

// Not, bir koşulun olumsuzunu ekler. Yalnızca "is" ve "eq" desteklenir:
//
//	qb.Not("deleted_at", "is", nil) → "deleted_at" IS NOT NULL
//	qb.Not("verified", "is", true)  → "verified" IS NOT TRUE
//	qb.Not("status", "eq", "x")     → "status" != $1
//
// Desteklenmeyen her kombinasyon sessizce yok sayılmaz; zincir
// ErrUnsupportedOperator ile başarısız olur.
func (qb *QueryBuilder) Not(column string, operator string, value any) *QueryBuilder {
	column = strings.TrimSpace(column)
	switch strings.ToLower(strings.TrimSpace(operator)) {
	case "is":
		if isNil(value) {
			qb.wheres = append(qb.wheres, WhereClause{Column: column, Operator: "IS NOT"})
			return qb
		}
		if b, ok := value.(bool); ok {
			qb.wheres = append(qb.wheres, WhereClause{Column: column, Operator: "IS NOT", Value: b})
			return qb
		}
		qb.fail(fmt.Errorf("%w: not(%q, is, %v) only accepts null or a boolean", ErrUnsupportedOperator, column, value))
		return qb
	case "eq":
		return qb.where(column, "!=", value)
	default:
		qb.fail(fmt.Errorf("%w: not(%q, %q)", ErrUnsupportedOperator, column, operator))
		return qb
	}
}

// isNil, hem untyped nil'i hem de nil pointer/map/slice değerlerini yakalar.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
