package database

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// PostgreSQL Grammar
// -----------------------------------------------------------------------------
// - Identifier'lar çift tırnak ile sarmalanır ve whitelist regex'inden geçer
// - Değerler $1, $2, ... pozisyonel placeholder'ları ile bağlanır
// - Placeholder numaraları eklenme sırasını takip eder, asla yeniden
//   numaralandırılmaz
// - Tüm compile metotları panic yerine error döner
// -----------------------------------------------------------------------------

type PostgresGrammar struct{}

func NewPostgresGrammar() *PostgresGrammar {
	return &PostgresGrammar{}
}

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var allowedOperators = map[string]bool{
	"=":                    true,
	"!=":                   true,
	"<":                    true,
	">":                    true,
	"<=":                   true,
	">=":                   true,
	"IS":                   true,
	"IS NOT":               true,
	"IS NOT DISTINCT FROM": true,
}

// binder, pozisyonel parametreleri biriktirir ve her değer için sıradaki
// placeholder'ı üretir.
type binder struct {
	args []any
}

func (b *binder) bind(value any) (string, error) {
	coerced, err := coerceValue(value)
	if err != nil {
		return "", err
	}
	b.args = append(b.args, coerced)
	return "$" + strconv.Itoa(len(b.args)), nil
}

// Wrap, tablo ve kolon isimlerini çift tırnak ile sarmalar.
func (g *PostgresGrammar) Wrap(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "*" {
		return value, nil
	}

	parts := strings.Split(value, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q (too many dots)", ErrInvalidIdentifier, value)
	}

	wrapped := make([]string, len(parts))
	for i, part := range parts {
		if i == len(parts)-1 && part == "*" && len(parts) == 2 {
			wrapped[i] = "*"
			continue
		}
		if !validIdentifierPattern.MatchString(part) {
			return "", fmt.Errorf("%w: %q (contains unsafe characters)", ErrInvalidIdentifier, value)
		}
		wrapped[i] = `"` + part + `"`
	}
	return strings.Join(wrapped, "."), nil
}

// WrapColumn, JSON path farkındalıklı kolon çözümlemesi yapar.
//
//	meta->color        → "meta"->>'color'
//	meta->size->width  → "meta"->'size'->>'width'
//	name               → "name"
func (g *PostgresGrammar) WrapColumn(column string) (string, error) {
	if !strings.Contains(column, "->") {
		return g.Wrap(column)
	}

	segments := strings.Split(column, "->")
	base, err := g.Wrap(segments[0])
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(base)
	keys := segments[1:]
	for i, key := range keys {
		// "a->>b" yazımı da kabul edilir; split sonrası anahtar ">" ile başlar.
		key = strings.TrimSpace(strings.TrimPrefix(key, ">"))
		if key == "" {
			return "", fmt.Errorf("%w: %q (empty JSON key)", ErrInvalidIdentifier, column)
		}
		if i == len(keys)-1 {
			sb.WriteString("->>")
		} else {
			sb.WriteString("->")
		}
		sb.WriteString("'" + strings.ReplaceAll(key, "'", "''") + "'")
	}
	return sb.String(), nil
}

// column, join varsa kolonu ana tablo ile niteleyerek çözer.
func (g *PostgresGrammar) column(qb *QueryBuilder, column string) (string, error) {
	if qb.join != nil {
		base, rest, _ := strings.Cut(column, "->")
		if !strings.Contains(base, ".") {
			column = qb.table + "." + base
			if rest != "" {
				column += "->" + rest
			}
		}
	}
	return g.WrapColumn(column)
}

func (g *PostgresGrammar) validateOperator(operator string) error {
	if !allowedOperators[strings.ToUpper(strings.TrimSpace(operator))] {
		return fmt.Errorf("invalid SQL operator: %s (not in whitelist)", operator)
	}
	return nil
}

// compileWheres, WHERE koşullarını AND ile birleştirir ve değerleri binder'a ekler.
func (g *PostgresGrammar) compileWheres(qb *QueryBuilder, b *binder) (string, error) {
	if len(qb.wheres) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(qb.wheres))
	for _, w := range qb.wheres {
		if err := g.validateOperator(w.Operator); err != nil {
			return "", fmt.Errorf("where clause error: %w", err)
		}
		col, err := g.column(qb, w.Column)
		if err != nil {
			return "", fmt.Errorf("where column wrap error: %w", err)
		}

		if !w.Bound {
			literal := "NULL"
			if v, ok := w.Value.(bool); ok {
				literal = strings.ToUpper(strconv.FormatBool(v))
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", col, w.Operator, literal))
			continue
		}

		placeholder, err := b.bind(w.Value)
		if err != nil {
			return "", fmt.Errorf("where value error on %q: %w", w.Column, err)
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", col, w.Operator, placeholder))
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

// compileProjection, SELECT listesini üretir.
func (g *PostgresGrammar) compileProjection(qb *QueryBuilder) (string, error) {
	if qb.join == nil {
		cols := make([]string, len(qb.columns))
		for i, c := range qb.columns {
			wrapped, err := g.Wrap(c)
			if err != nil {
				return "", fmt.Errorf("column wrap error: %w", err)
			}
			cols[i] = wrapped
		}
		return strings.Join(cols, ", "), nil
	}

	cols := make([]string, 0, len(qb.columns)+len(qb.join.Columns))
	for _, c := range qb.columns {
		name := c
		if !strings.Contains(c, ".") {
			name = qb.table + "." + c
		}
		wrapped, err := g.Wrap(name)
		if err != nil {
			return "", fmt.Errorf("column wrap error: %w", err)
		}
		cols = append(cols, wrapped)
	}

	target, err := g.Wrap(qb.join.Table)
	if err != nil {
		return "", fmt.Errorf("join table wrap error: %w", err)
	}

	if selectsAll(qb.join.Columns) {
		alias, _ := g.Wrap(qb.join.Table)
		cols = append(cols, fmt.Sprintf(`CASE WHEN %s."id" IS NULL THEN NULL ELSE to_jsonb(%s.*) END AS %s`, target, target, alias))
		return strings.Join(cols, ", "), nil
	}

	for _, c := range qb.join.Columns {
		wrapped, err := g.Wrap(qb.join.Table + "." + c)
		if err != nil {
			return "", fmt.Errorf("join column wrap error: %w", err)
		}
		alias, err := g.Wrap(qb.join.Alias(c))
		if err != nil {
			return "", fmt.Errorf("join alias wrap error: %w", err)
		}
		cols = append(cols, wrapped+" AS "+alias)
	}
	return strings.Join(cols, ", "), nil
}

// compileFrom, FROM (ve varsa LEFT JOIN) bölümünü üretir.
func (g *PostgresGrammar) compileFrom(qb *QueryBuilder) (string, error) {
	table, err := g.Wrap(qb.table)
	if err != nil {
		return "", fmt.Errorf("table wrap error: %w", err)
	}
	if qb.join == nil {
		return " FROM " + table, nil
	}

	target, err := g.Wrap(qb.join.Table)
	if err != nil {
		return "", fmt.Errorf("join table wrap error: %w", err)
	}
	fk, err := g.Wrap(qb.table + "." + qb.join.ForeignKey)
	if err != nil {
		return "", fmt.Errorf("foreign key wrap error: %w", err)
	}
	return fmt.Sprintf(" FROM %s LEFT JOIN %s ON %s = %s.\"id\"", table, target, fk, target), nil
}

// CompileSelect, QueryBuilder'dan SELECT sorgusu üretir.
func (g *PostgresGrammar) CompileSelect(qb *QueryBuilder) (*Statement, error) {
	projection, err := g.compileProjection(qb)
	if err != nil {
		return nil, err
	}
	from, err := g.compileFrom(qb)
	if err != nil {
		return nil, err
	}

	b := &binder{}
	where, err := g.compileWheres(qb, b)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(projection)
	sb.WriteString(from)
	sb.WriteString(where)

	if len(qb.orders) > 0 {
		orders := make([]string, len(qb.orders))
		for i, o := range qb.orders {
			col, err := g.column(qb, o.Column)
			if err != nil {
				return nil, fmt.Errorf("order column wrap error: %w", err)
			}
			orders[i] = col + " " + string(o.Direction)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	if limit, ok := qb.effectiveLimit(); ok {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}

	return &Statement{SQL: sb.String(), Args: b.args}, nil
}

// CompileCount, aynı FROM/JOIN ve WHERE koşulları ile COUNT(*) sorgusu
// üretir. Filtreler join edilen tabloya referans verebildiği için join
// korunur; to-one LEFT JOIN satır sayısını değiştirmez.
func (g *PostgresGrammar) CompileCount(qb *QueryBuilder) (*Statement, error) {
	from, err := g.compileFrom(qb)
	if err != nil {
		return nil, err
	}
	b := &binder{}
	where, err := g.compileWheres(qb, b)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: "SELECT COUNT(*)" + from + where, Args: b.args}, nil
}

// insertColumns, ilk satırın kolonlarını sıralı olarak döndürür ve diğer
// satırların aynı kolon kümesine sahip olduğunu doğrular.
func insertColumns(rows []Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to insert", ErrEmptyMutation)
	}
	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: first row has no columns", ErrEmptyMutation)
	}
	for i, row := range rows[1:] {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRowShapeMismatch, i+1, len(row), len(columns))
		}
		for _, c := range columns {
			if _, ok := row[c]; !ok {
				return nil, fmt.Errorf("%w: row %d is missing column %q", ErrRowShapeMismatch, i+1, c)
			}
		}
	}
	return columns, nil
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compileInsertBody, INSERT INTO ... VALUES ... kısmını üretir.
func (g *PostgresGrammar) compileInsertBody(qb *QueryBuilder, b *binder) (string, []string, error) {
	columns, err := insertColumns(qb.rows)
	if err != nil {
		return "", nil, err
	}
	table, err := g.Wrap(qb.table)
	if err != nil {
		return "", nil, fmt.Errorf("table wrap error: %w", err)
	}

	wrappedCols := make([]string, len(columns))
	for i, c := range columns {
		if wrappedCols[i], err = g.Wrap(c); err != nil {
			return "", nil, fmt.Errorf("column wrap error: %w", err)
		}
	}

	tuples := make([]string, len(qb.rows))
	for i, row := range qb.rows {
		placeholders := make([]string, len(columns))
		for j, c := range columns {
			if placeholders[j], err = b.bind(row[c]); err != nil {
				return "", nil, fmt.Errorf("value error on %q: %w", c, err)
			}
		}
		tuples[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table,
		strings.Join(wrappedCols, ", "),
		strings.Join(tuples, ", "),
	)
	return sql, columns, nil
}

// CompileInsert, INSERT sorgusu üretir.
func (g *PostgresGrammar) CompileInsert(qb *QueryBuilder) (*Statement, error) {
	b := &binder{}
	sql, _, err := g.compileInsertBody(qb, b)
	if err != nil {
		return nil, err
	}
	if qb.returning {
		sql += " RETURNING *"
	}
	return &Statement{SQL: sql, Args: b.args}, nil
}

// CompileUpsert, INSERT ... ON CONFLICT (...) DO UPDATE SET ... sorgusu üretir.
// Conflict target'taki kolonlar SET listesine hiçbir zaman girmez; güncellenecek
// kolon kalmazsa DO NOTHING üretilir.
func (g *PostgresGrammar) CompileUpsert(qb *QueryBuilder) (*Statement, error) {
	b := &binder{}
	sql, columns, err := g.compileInsertBody(qb, b)
	if err != nil {
		return nil, err
	}

	conflict := splitConflictColumns(qb.onConflict)
	wrappedConflict := make([]string, len(conflict))
	skip := make(map[string]bool, len(conflict))
	for i, c := range conflict {
		if wrappedConflict[i], err = g.Wrap(c); err != nil {
			return nil, fmt.Errorf("conflict column wrap error: %w", err)
		}
		skip[c] = true
	}

	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		if skip[c] {
			continue
		}
		wrapped, _ := g.Wrap(c)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", wrapped, wrapped))
	}

	sql += " ON CONFLICT (" + strings.Join(wrappedConflict, ", ") + ")"
	if len(sets) == 0 {
		sql += " DO NOTHING"
	} else {
		sql += " DO UPDATE SET " + strings.Join(sets, ", ")
	}
	sql += " RETURNING *"

	return &Statement{SQL: sql, Args: b.args}, nil
}

func splitConflictColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"id"}
	}
	return out
}

// CompileUpdate, UPDATE sorgusu üretir. WHERE parametreleri önce bağlanır
// ($1..$N), SET değerleri onları takip eder ($N+1..$N+M).
func (g *PostgresGrammar) CompileUpdate(qb *QueryBuilder) (*Statement, error) {
	if len(qb.values) == 0 {
		return nil, fmt.Errorf("%w: update has no values", ErrEmptyMutation)
	}
	table, err := g.Wrap(qb.table)
	if err != nil {
		return nil, fmt.Errorf("table wrap error: %w", err)
	}

	b := &binder{}
	where, err := g.compileWheres(qb, b)
	if err != nil {
		return nil, err
	}

	columns := sortedKeys(qb.values)
	sets := make([]string, len(columns))
	for i, c := range columns {
		wrapped, err := g.Wrap(c)
		if err != nil {
			return nil, fmt.Errorf("column wrap error: %w", err)
		}
		placeholder, err := b.bind(qb.values[c])
		if err != nil {
			return nil, fmt.Errorf("value error on %q: %w", c, err)
		}
		sets[i] = wrapped + " = " + placeholder
	}

	sql := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + where
	if qb.returning {
		sql += " RETURNING *"
	}
	return &Statement{SQL: sql, Args: b.args}, nil
}
