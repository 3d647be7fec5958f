package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// RESULT
// -----------------------------------------------------------------------------
// Result, her Execute çağrısının döndürdüğü envelope'tur:
//
//	{"data": [...] | {...} | null, "error": null | {...}, "count": null | n}
//
// Error dolu ise Data nil'dir. Count yalnızca CountExact istendiğinde dolar.
// -----------------------------------------------------------------------------

// Result, sorgu sonucunu taşır.
type Result struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
	Count *int64 `json:"count"`
}

// failure, hata taşıyan bir envelope oluşturur.
func failure(err error) *Result {
	return &Result{Error: newError(err)}
}

// Err, envelope hatasını error olarak döndürür. Hata yoksa nil.
func (r *Result) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error
}

// Rows, Data'yı satır listesi olarak döndürür. Single modunda tek satır
// bir elemanlı listeye çevrilir.
func (r *Result) Rows() []Row {
	if r == nil {
		return nil
	}
	switch v := r.Data.(type) {
	case []Row:
		return v
	case Row:
		return []Row{v}
	default:
		return nil
	}
}

// Row, Data'nın ilk satırını döndürür.
func (r *Result) Row() Row {
	rows := r.Rows()
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// Decode, Data'yı `db` tag'li struct (tek satır) veya struct slice'ına doldurur.
//
// Örnek:
//
//	var users []User
//	if err := res.Decode(&users); err != nil { ... }
//
//	var user User
//	if err := client.From("users").Select("*").Eq("id", 1).Single().Execute(ctx).Decode(&user); err != nil { ... }
func (r *Result) Decode(dest any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if _, isRow := r.Data.(Row); isRow {
		return ScanRow(r.Row(), dest)
	}
	if err := ScanRows(r.Rows(), dest); err != nil {
		if row := r.Row(); row != nil {
			return ScanRow(row, dest)
		}
		return err
	}
	return nil
}

// rowsToMaps, sql.Rows'ı []Row biçimine dönüştürür.
//
// Kolon tipine göre:
//   - JSON / JSONB → decode edilmiş değer (map, slice, ...)
//   - BYTEA        → []byte olarak kalır
//   - diğer []byte (NUMERIC, TEXT, UUID ...) → string
func rowsToMaps(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	res := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		m := make(Row, len(cols))
		for i, name := range cols {
			v, err := convertColumn(types[i].DatabaseTypeName(), values[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			m[name] = v
		}
		res = append(res, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func convertColumn(typeName string, value any) (any, error) {
	raw, ok := value.([]byte)
	if !ok {
		return value, nil
	}
	switch strings.ToUpper(typeName) {
	case "JSON", "JSONB":
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	case "BYTEA":
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	default:
		return string(raw), nil
	}
}
