package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// Değer Dönüşümleri
// -----------------------------------------------------------------------------
// Bağlanan her parametre sürücüye gitmeden önce buradan geçer:
//
//	nil, string, sayı, bool, time.Time, []byte → olduğu gibi
//	driver.Valuer                               → olduğu gibi
//	[]string, []int64, ...                      → PostgreSQL array (pq.Array)
//	[]any (yalnızca skaler elemanlar)           → PostgreSQL array (pq.Array)
//	boş slice                                   → '{}'
//	map, struct, []map, []struct                → JSON metni (json/jsonb kolonları)
//	[]any (map, struct veya slice eleman varsa) → JSON metni
// -----------------------------------------------------------------------------

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// coerceValue, bir Go değerini sürücünün bağlayabileceği forma çevirir.
func coerceValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64,
		[]byte, time.Time:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case driver.Valuer:
		return v, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		if rv.Type().Implements(valuerType) || rv.Type() == timeType {
			return rv.Interface(), nil
		}
	}

	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return scalarValue(rv), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Len() == 0 {
			return "{}", nil
		}
		if rv.Type().Elem().Kind() == reflect.Interface {
			// JSON body'leri dizileri []any olarak çözer; karar elemanlara göre verilir.
			if hasCompositeValue(rv) {
				return marshalJSON(rv.Interface())
			}
			return pq.Array(rv.Interface()).Value()
		}
		if isCompositeElem(rv.Type().Elem()) {
			return marshalJSON(rv.Interface())
		}
		return pq.Array(rv.Interface()).Value()
	case reflect.Map, reflect.Struct:
		if rv.Kind() == reflect.Map && rv.IsNil() {
			return nil, nil
		}
		return marshalJSON(rv.Interface())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// scalarValue, named tipleri (type Status string gibi) temel tipe indirger.
func scalarValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return rv.Float()
	}
}

func isCompositeElem(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Interface, reflect.Slice:
		return true
	case reflect.Struct:
		return t != timeType
	}
	return false
}

// hasCompositeValue, interface elemanlı bir slice'ta object veya iç içe dizi
// olup olmadığını söyler. nil elemanlar NULL olarak bağlanır.
func hasCompositeValue(rv reflect.Value) bool {
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		for elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				break
			}
			if elem.Type().Implements(valuerType) {
				break
			}
			elem = elem.Elem()
		}
		if elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
			continue
		}
		if elem.Type().Implements(valuerType) || elem.Type() == timeType {
			continue
		}
		switch elem.Kind() {
		case reflect.Map, reflect.Struct, reflect.Array:
			return true
		case reflect.Slice:
			if elem.Type().Elem().Kind() != reflect.Uint8 {
				return true
			}
		case reflect.Chan, reflect.Func, reflect.UnsafePointer:
			return true
		}
	}
	return false
}

func marshalJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: json encode: %v", ErrUnsupportedValue, err)
	}
	return string(raw), nil
}

// normalizeRows, mutation girdisini []Row'a çevirir.
//
// Kabul edilen tipler: Row, []Row, map[string]T, struct, *struct,
// []struct, []*struct, []map[string]T.
func normalizeRows(input any) ([]Row, error) {
	switch v := input.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil input", ErrEmptyMutation)
	case Row:
		return []Row{v}, nil
	case []Row:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty row list", ErrEmptyMutation)
		}
		return v, nil
	}

	rv := reflect.ValueOf(input)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrEmptyMutation)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
		row, err := toRow(rv)
		if err != nil {
			return nil, err
		}
		return []Row{row}, nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, fmt.Errorf("%w: empty row list", ErrEmptyMutation)
		}
		rows := make([]Row, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i)
			for item.Kind() == reflect.Pointer || item.Kind() == reflect.Interface {
				if item.IsNil() {
					return nil, fmt.Errorf("%w: row %d is nil", ErrEmptyMutation, i)
				}
				item = item.Elem()
			}
			row, err := toRow(item)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			rows[i] = row
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: row type %T", ErrUnsupportedValue, input)
	}
}

func toRow(rv reflect.Value) (Row, error) {
	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type() == timeType {
			return nil, fmt.Errorf("%w: row type %s", ErrUnsupportedValue, rv.Type())
		}
		return structToRow(rv), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: row map keys must be strings, got %s", ErrUnsupportedValue, rv.Type().Key())
		}
		row := make(Row, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			row[iter.Key().String()] = iter.Value().Interface()
		}
		return row, nil
	default:
		return nil, fmt.Errorf("%w: row type %s", ErrUnsupportedValue, rv.Type())
	}
}
