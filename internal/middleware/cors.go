// -----------------------------------------------------------------------------
// CORS Middleware
// -----------------------------------------------------------------------------
// Tarayıcıdan çalışan Supabase istemcilerinin gateway'e farklı bir origin'den
// erişebilmesi için gerekli "Access-Control-Allow-*" başlıklarını ekler ve
// preflight (OPTIONS) isteklerini yanıtlar.
// -----------------------------------------------------------------------------

package middleware

import (
	"net/http"
)

// CORSMiddleware, verilen origin listesine izin veren middleware üretir.
// Liste "*" içeriyorsa tüm origin'lere izin verilir.
func CORSMiddleware(allowedOrigins ...string) Middleware {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Expose-Headers", "Content-Range, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, apikey, Prefer")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
