package database

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Reflection-Based Row Scanner
// -----------------------------------------------------------------------------
// Row (map[string]any) ile struct'lar arasında iki yönlü dönüşüm yapar:
//   - ScanRow / ScanRows: Result satırlarını `db` tag'li struct'lara doldurur
//   - structToRow: Insert/Update/Upsert'e verilen struct'ları Row'a çevirir
//
// Struct analizleri tip bazında cache'lenir. Cache, arka planda çalışan bir
// cleanup goroutine'i ile yaşlandırılır; Stop ile gracefully durdurulur.
// -----------------------------------------------------------------------------

// fieldInfo, bir struct alanının kolon eşlemesidir.
type fieldInfo struct {
	index     []int
	omitEmpty bool
}

type fieldMap map[string]fieldInfo

// scannerCacheEntry, cache entry'lerinin metadata'sını tutar.
type scannerCacheEntry struct {
	fieldMap   fieldMap
	lastAccess time.Time
}

// Scanner, cache yönetimi ve cleanup lifecycle'ını kontrol eder.
type Scanner struct {
	cache      map[reflect.Type]*scannerCacheEntry
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	cleanupInt time.Duration
	maxAge     time.Duration
}

var (
	globalScanner *Scanner
	scannerOnce   sync.Once
)

// InitScanner, global scanner instance'ını başlatır.
// İlk çağrıdaki değerler geçerlidir; sonraki çağrılar aynı instance'ı döndürür.
func InitScanner(cleanupInterval, maxAge time.Duration) *Scanner {
	scannerOnce.Do(func() {
		globalScanner = NewScanner(cleanupInterval, maxAge)
	})
	return globalScanner
}

// GetScanner, global scanner instance'ını döndürür.
// InitScanner çağrılmamışsa default değerlerle başlatır.
func GetScanner() *Scanner {
	return InitScanner(10*time.Minute, 30*time.Minute)
}

// NewScanner, bağımsız bir scanner oluşturur ve cleanup goroutine'ini başlatır.
func NewScanner(cleanupInterval, maxAge time.Duration) *Scanner {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scanner{
		cache:      make(map[reflect.Type]*scannerCacheEntry),
		ctx:        ctx,
		cancel:     cancel,
		cleanupInt: cleanupInterval,
		maxAge:     maxAge,
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

func (s *Scanner) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInt)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.ctx.Done():
			return
		}
	}
}

// cleanup, maxAge süresince erişilmeyen entry'leri siler.
func (s *Scanner) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for typ, entry := range s.cache {
		if now.Sub(entry.lastAccess) > s.maxAge {
			delete(s.cache, typ)
			cleaned++
		}
	}
	return cleaned
}

// Stop, scanner'ı gracefully durdurur.
func (s *Scanner) Stop() {
	s.cancel()
	s.wg.Wait()
}

// fields, bir struct tipinin kolon → alan eşlemesini cache'den döndürür.
func (s *Scanner) fields(structType reflect.Type) fieldMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[structType]; ok {
		entry.lastAccess = time.Now()
		return entry.fieldMap
	}

	mapping := make(fieldMap)
	collectFields(structType, nil, mapping)

	s.cache[structType] = &scannerCacheEntry{
		fieldMap:   mapping,
		lastAccess: time.Now(),
	}
	return mapping
}

// collectFields, embedded struct'ları da özyineli olarak dolaşır.
func collectFields(structType reflect.Type, parent []int, mapping fieldMap) {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		index := append(append([]int{}, parent...), i)

		tag := field.Tag.Get("db")
		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, mapping)
			continue
		}
		if !field.IsExported() || tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		mapping[name] = fieldInfo{index: index, omitEmpty: opts == "omitempty"}
	}
}

// ScanRow, tek bir Row'u struct pointer'ına doldurur. Struct'ta karşılığı
// olmayan kolonlar yok sayılır.
//
// Örnek:
//
//	var u User
//	err := database.ScanRow(result.Row(), &u)
func ScanRow(row Row, dest any) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Pointer || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("scanner: dest bir struct pointer olmalıdır, %T alındı", dest)
	}
	return scanInto(GetScanner(), row, destValue.Elem())
}

// ScanRows, satırları struct slice pointer'ına doldurur.
func ScanRows(rows []Row, dest any) error {
	sliceValue := reflect.ValueOf(dest)
	if sliceValue.Kind() != reflect.Pointer || sliceValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("scanner: dest bir slice pointer olmalıdır, %T alındı", dest)
	}

	sliceElem := sliceValue.Elem()
	elemType := sliceElem.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return fmt.Errorf("scanner: slice elemanı struct olmalıdır, %s alındı", elemType)
	}

	scanner := GetScanner()
	out := reflect.MakeSlice(sliceElem.Type(), 0, len(rows))
	for i, row := range rows {
		item := reflect.New(structType)
		if err := scanInto(scanner, row, item.Elem()); err != nil {
			return fmt.Errorf("scanner: row %d: %w", i, err)
		}
		if isPtr {
			out = reflect.Append(out, item)
		} else {
			out = reflect.Append(out, item.Elem())
		}
	}
	sliceElem.Set(out)
	return nil
}

func scanInto(s *Scanner, row Row, dest reflect.Value) error {
	for col, info := range s.fields(dest.Type()) {
		value, ok := row[col]
		if !ok {
			continue
		}
		field, err := dest.FieldByIndexErr(info.index)
		if err != nil || !field.CanSet() {
			return fmt.Errorf("scanner: '%s' alanı bulunamadı veya ayarlanamıyor", col)
		}
		if err := assignValue(field, value); err != nil {
			return fmt.Errorf("scanner: '%s' kolonu atanamadı: %w", col, err)
		}
	}
	return nil
}

// assignValue, driver'dan gelen değeri hedef alana yerleştirir. Doğrudan
// atama veya tip dönüşümü mümkün değilse JSON üzerinden dönüştürür; iç içe
// join objeleri ve JSONB kolonları bu yoldan struct'lara dolar.
func assignValue(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assignValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)
		return nil
	}
	if s, ok := value.(string); ok && field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8 {
		field.SetBytes([]byte(s))
		return nil
	}
	if isScalarKind(v.Kind()) && isScalarKind(field.Kind()) && v.Type().ConvertibleTo(field.Type()) {
		// int → string dönüşümü rune üretir; bu durumda JSON yoluna düş.
		if !(field.Kind() == reflect.String && v.Kind() != reflect.String) {
			field.Set(v.Convert(field.Type()))
			return nil
		}
	}

	// NUMERIC ve benzeri kolonlar metin olarak gelir.
	if s, ok := value.(string); ok && isScalarKind(field.Kind()) && field.Kind() != reflect.String {
		return parseScalar(field, s)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, field.Addr().Interface())
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// structToRow, bir struct değerini Row'a çevirir. `db:"name,omitempty"`
// tag'li alanlar sıfır değerdeyse atlanır.
func structToRow(v reflect.Value) Row {
	row := make(Row)
	for col, info := range GetScanner().fields(v.Type()) {
		field, err := v.FieldByIndexErr(info.index)
		if err != nil {
			continue
		}
		if info.omitEmpty && field.IsZero() {
			continue
		}
		row[col] = field.Interface()
	}
	return row
}

// parseScalar, metin değeri sayısal veya bool alana çözümler.
func parseScalar(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
