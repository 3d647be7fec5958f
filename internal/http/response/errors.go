// -----------------------------------------------------------------------------
// Standardized Error Response Helpers
// -----------------------------------------------------------------------------
// Sık kullanılan hata yanıtları ve builder hatalarının HTTP statü kodlarına
// eşlenmesi.
//
//	Row not found (single)     → 404
//	zincir hataları             → 400
//	SQLSTATE 23xxx (constraint) → 409
//	SQLSTATE 42P01 (tablo yok)  → 404
//	SQLSTATE 22xxx, 42xxx       → 400
//	diğer                       → 500
// -----------------------------------------------------------------------------

package response

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/biyonik/pgquery/pkg/database"
)

// StatusFor, sonucun HTTP statü kodunu belirler.
func StatusFor(res *database.Result, success int) int {
	if res == nil || res.Error == nil {
		return success
	}
	e := res.Error

	if errors.Is(e, database.ErrRowNotFound) {
		return http.StatusNotFound
	}
	if database.IsClientError(e) {
		return http.StatusBadRequest
	}

	switch {
	case strings.HasPrefix(e.Code, "23"):
		return http.StatusConflict
	case e.Code == "42P01":
		return http.StatusNotFound
	case strings.HasPrefix(e.Code, "22"), strings.HasPrefix(e.Code, "42"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// InvalidJSON sends a 400 Bad Request error for invalid JSON format.
func InvalidJSON(w http.ResponseWriter) {
	Error(w, http.StatusBadRequest, "Geçersiz JSON formatı")
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Geçersiz istek"
	}
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 Unauthorized error.
//
// Use this when authentication is required but not provided, or when
// authentication credentials are invalid.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Bu işlem için giriş yapmanız gerekiyor"
	}
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 Forbidden error.
//
// Use this when the user is authenticated but lacks the role for the action.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Bu işlem için yetkiniz yok"
	}
	Error(w, http.StatusForbidden, message)
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Kaynak bulunamadı"
	}
	Error(w, http.StatusNotFound, message)
}

// ServerError sends a 500 Internal Server Error.
func ServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Sunucuda beklenmedik bir hata oluştu"
	}
	Error(w, http.StatusInternalServerError, message)
}

// TooManyRequests sends a 429 Too Many Requests error.
func TooManyRequests(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Çok fazla istek gönderdiniz, lütfen daha sonra tekrar deneyin"
	}
	Error(w, http.StatusTooManyRequests, message)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
