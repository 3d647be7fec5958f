package database

import (
	"errors"

	"github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// Hata Taksonomisi
// -----------------------------------------------------------------------------
// Setup hataları (eksik bağlantı bilgisi) çağırana error olarak döner.
// Zincir çalışmaya başladıktan sonra hiçbir hata panic veya Go error olarak
// dışarı sızmaz; hepsi Result.Error alanına taşınır.
// -----------------------------------------------------------------------------

var (
	// ErrMissingConnectionString, bağlantı URL'i verilmeden Connect çağrıldığında döner.
	ErrMissingConnectionString = errors.New("database connection string is missing")

	// ErrNoOperation, select/insert/update/upsert seçilmeden çalıştırılan zincir için döner.
	ErrNoOperation = errors.New("no operation specified")

	// ErrRowNotFound, Single() modunda hiç satır dönmediğinde kullanılır.
	ErrRowNotFound = errors.New("Row not found")

	// ErrUnsupportedOperator, Not() için desteklenmeyen operator verildiğinde döner.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrRowShapeMismatch, insert/upsert satırlarının kolon kümeleri farklı olduğunda döner.
	ErrRowShapeMismatch = errors.New("rows must share the same columns")

	// ErrSelectAfterMutation, mutation seçildikten sonra Select çağrıldığında döner.
	ErrSelectAfterMutation = errors.New("select cannot follow a mutation, use Returning")

	// ErrOperationConflict, zincirde ikinci ve farklı bir operation seçildiğinde döner.
	ErrOperationConflict = errors.New("operation already specified")

	// ErrInvalidIdentifier, güvenli olmayan tablo/kolon adı verildiğinde döner.
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")

	// ErrEmptyMutation, insert/upsert için satır veya update için değer verilmediğinde döner.
	ErrEmptyMutation = errors.New("mutation has no values")

	// ErrMissingTable, tablo adı olmadan derlenmeye çalışılan zincir için döner.
	ErrMissingTable = errors.New("table name is required")

	// ErrUnsupportedValue, parametre olarak bağlanamayan bir Go değeri verildiğinde döner.
	ErrUnsupportedValue = errors.New("unsupported parameter value")
)

// clientErrors, çağıranın hatalı kullanımından kaynaklanan (zincir) hatalardır.
var clientErrors = []error{
	ErrNoOperation,
	ErrUnsupportedOperator,
	ErrRowShapeMismatch,
	ErrSelectAfterMutation,
	ErrOperationConflict,
	ErrInvalidIdentifier,
	ErrEmptyMutation,
	ErrMissingTable,
	ErrUnsupportedValue,
}

// IsClientError, hatanın sürücüye hiç ulaşmadan zincirin kendisinde oluşup
// oluşmadığını söyler. Gateway bu hataları 400 olarak döndürür.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Error, Result envelope'unun error alanıdır. JSON çıktısı Supabase
// istemcilerinin beklediği {message, code, details, hint} şeklindedir.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`

	cause error
}

// Error, error interface'ini implement eder.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap, errors.Is/As zincirinin orijinal hataya ulaşmasını sağlar.
func (e *Error) Unwrap() error {
	return e.cause
}

// newError, herhangi bir hatayı envelope hatasına dönüştürür.
// PostgreSQL sürücü hataları SQLSTATE kodu, detail ve hint ile zenginleştirilir.
func newError(err error) *Error {
	if err == nil {
		return nil
	}

	var envErr *Error
	if errors.As(err, &envErr) {
		return envErr
	}

	out := &Error{Message: err.Error(), cause: err}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		out.Message = pqErr.Message
		out.Code = string(pqErr.Code)
		out.Details = pqErr.Detail
		out.Hint = pqErr.Hint
	}

	return out
}
