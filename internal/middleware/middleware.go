// -----------------------------------------------------------------------------
// Middleware Package
// -----------------------------------------------------------------------------
// Bu dosya, HTTP istek yaşam döngüsüne müdahale eden middleware yapısını
// içerir. Middleware, bir http.Handler'ı alıp yeni bir http.Handler üreten
// fonksiyondur; logging, authentication, rate limiting gibi özellikler bu
// yapının üzerine kurulur.
// -----------------------------------------------------------------------------

package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Middleware, bir sonraki http.Handler'ı alıp onu yeni bir handler olarak
// saran fonksiyon tipidir.
type Middleware func(next http.Handler) http.Handler

// RequestIDHeader, her yanıta eklenen istek kimliği başlığıdır.
const RequestIDHeader = "X-Request-ID"

// statusRecorder, handler'ın yazdığı statü kodunu yakalar.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging, gelen her HTTP isteğini kaydeder. İstemci X-Request-ID göndermediyse
// yeni bir UUID üretilir ve yanıt başlığına yazılır.
func Logging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			logger.Printf("-> [%s] %s %s", id, r.Method, r.URL.RequestURI())

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Printf("<- [%s] %s %s %d (%s)", id, r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
