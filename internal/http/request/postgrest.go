package request

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/biyonik/pgquery/pkg/database"
)

// -----------------------------------------------------------------------------
// PostgREST Query Syntax
// -----------------------------------------------------------------------------
// Supabase istemcilerinin REST isteklerinde kullandığı query string formatını
// builder çağrılarına çevirir:
//
//	?select=*,products(title)       → Select("*,products(title)")
//	?status=eq.active                → Eq("status", "active")
//	?deleted_at=is.null              → Is("deleted_at", nil)
//	?deleted_at=not.is.null          → Not("deleted_at", "is", nil)
//	?meta->color=neq.red             → Neq("meta->color", "red")
//	?order=name.asc,created_at.desc  → Order("name"), Order("created_at", Ascending(false))
//	?limit=10&count=exact&single=true
//
// Filtreler kolon adına göre alfabetik sırayla uygulanır; aynı kolon için
// birden fazla değer verilmişse verildiği sırayla eklenir.
// -----------------------------------------------------------------------------

var reservedParams = map[string]bool{
	"select":      true,
	"order":       true,
	"limit":       true,
	"count":       true,
	"single":      true,
	"on_conflict": true,
}

var filterOperators = map[string]bool{
	"eq":  true,
	"neq": true,
	"gt":  true,
	"gte": true,
	"lt":  true,
	"lte": true,
	"is":  true,
}

// Filter, tek bir kolon filtresidir.
type Filter struct {
	Column   string
	Operator string
	Negated  bool
	Value    any
}

// Order, tek bir sıralama ifadesidir.
type Order struct {
	Column    string
	Ascending bool
}

// Params, ayrıştırılmış query parametreleridir.
type Params struct {
	Select     string
	Filters    []Filter
	Orders     []Order
	Limit      int
	HasLimit   bool
	Count      bool
	Single     bool
	OnConflict string
}

// ParseParams, URL query değerlerini Params'a ayrıştırır.
func ParseParams(values url.Values) (*Params, error) {
	p := &Params{Select: values.Get("select")}

	if raw := values.Get("order"); raw != "" {
		orders, err := parseOrder(raw)
		if err != nil {
			return nil, err
		}
		p.Orders = orders
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid limit: %q", raw)
		}
		p.Limit, p.HasLimit = n, true
	}

	if raw := values.Get("count"); raw != "" {
		if raw != "exact" {
			return nil, fmt.Errorf("unsupported count mode: %q", raw)
		}
		p.Count = true
	}

	if raw := values.Get("single"); raw != "" {
		single, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid single flag: %q", raw)
		}
		p.Single = single
	}

	p.OnConflict = values.Get("on_conflict")

	columns := make([]string, 0, len(values))
	for key := range values {
		if !reservedParams[key] {
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)

	for _, column := range columns {
		for _, raw := range values[column] {
			f, err := ParseFilter(column, raw)
			if err != nil {
				return nil, err
			}
			p.Filters = append(p.Filters, f)
		}
	}

	return p, nil
}

// ParseFilter, "op.value" veya "not.op.value" biçimindeki tek bir filtreyi ayrıştırır.
func ParseFilter(column, raw string) (Filter, error) {
	f := Filter{Column: column}

	rest := raw
	if strings.HasPrefix(rest, "not.") {
		f.Negated = true
		rest = strings.TrimPrefix(rest, "not.")
	}

	op, value, ok := strings.Cut(rest, ".")
	if !ok || !filterOperators[op] {
		return Filter{}, fmt.Errorf("invalid filter for %q: %q", column, raw)
	}
	f.Operator = op
	f.Value = literal(value)

	if op == "is" {
		if _, isBool := f.Value.(bool); f.Value != nil && !isBool {
			return Filter{}, fmt.Errorf("is filter for %q accepts null, true or false", column)
		}
	}
	if f.Negated && op != "is" && op != "eq" {
		return Filter{}, fmt.Errorf("not.%s is not supported for %q", op, column)
	}
	return f, nil
}

// literal, PostgREST literal'lerini tipli değerlere çevirir. Diğer her şey
// metin olarak bağlanır; PostgreSQL kolon tipine göre dönüştürür.
func literal(value string) any {
	switch value {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}

func parseOrder(raw string) ([]Order, error) {
	var orders []Order
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		o := Order{Column: part, Ascending: true}
		for _, suffix := range []string{".asc", ".desc"} {
			if strings.HasSuffix(part, suffix) {
				o.Column = strings.TrimSuffix(part, suffix)
				o.Ascending = suffix == ".asc"
				break
			}
		}
		if o.Column == "" {
			return nil, fmt.Errorf("invalid order: %q", raw)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ApplyFilters, filtreleri zincire ekler.
func (p *Params) ApplyFilters(qb *database.QueryBuilder) *database.QueryBuilder {
	for _, f := range p.Filters {
		if f.Negated {
			qb = qb.Not(f.Column, f.Operator, f.Value)
			continue
		}
		switch f.Operator {
		case "eq":
			qb = qb.Eq(f.Column, f.Value)
		case "neq":
			qb = qb.Neq(f.Column, f.Value)
		case "gt":
			qb = qb.Gt(f.Column, f.Value)
		case "gte":
			qb = qb.Gte(f.Column, f.Value)
		case "lt":
			qb = qb.Lt(f.Column, f.Value)
		case "lte":
			qb = qb.Lte(f.Column, f.Value)
		case "is":
			qb = qb.Is(f.Column, f.Value)
		}
	}
	return qb
}

// ApplyShaping, sıralama, limit ve single ayarlarını zincire ekler.
func (p *Params) ApplyShaping(qb *database.QueryBuilder) *database.QueryBuilder {
	for _, o := range p.Orders {
		qb = qb.Order(o.Column, database.Ascending(o.Ascending))
	}
	if p.HasLimit {
		qb = qb.Limit(p.Limit)
	}
	if p.Single {
		qb = qb.Single()
	}
	return qb
}

// SelectOptions, select için builder seçeneklerini döndürür.
func (p *Params) SelectOptions() []database.SelectOption {
	if p.Count {
		return []database.SelectOption{database.CountExact()}
	}
	return nil
}
