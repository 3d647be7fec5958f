// -----------------------------------------------------------------------------
// JWT Authentication Middleware
// -----------------------------------------------------------------------------
// Supabase istemcileri token'ı iki yerden gönderebilir:
//   - Authorization: Bearer <token>
//   - apikey: <token>
//
// Token geçerliyse claim'ler context'e yazılır ve istek rolü (anon,
// authenticated, service_role) sonraki middleware'ler ve controller'lar
// tarafından okunabilir. Geçersiz token her zaman 401 döner; token hiç yoksa
// davranış "required" parametresine bağlıdır.
// -----------------------------------------------------------------------------

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/internal/http/response"
	"github.com/biyonik/pgquery/pkg/auth"
)

// Auth, token'ı doğrulayan middleware döndürür.
//
// Parametreler:
//   - config: JWT ayarları (nil ise default)
//   - required: true ise token'sız istekler 401 alır, false ise anon devam eder
func Auth(config *auth.JWTConfig, required bool) Middleware {
	if config == nil {
		config = auth.DefaultJWTConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				if required {
					response.Unauthorized(w, "Authorization header veya apikey gerekli")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(token, config)
			if err != nil {
				response.Unauthorized(w, "Geçersiz veya süresi dolmuş token")
				return
			}

			ctx := context.WithValue(r.Context(), request.ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := auth.ExtractTokenFromHeader(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("apikey"))
}

// ClaimsFrom, context'teki doğrulanmış claim'leri döndürür. Yoksa nil.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(request.ClaimsKey).(*auth.Claims)
	return claims
}

// RoleFrom, context'teki rolü döndürür. Token yoksa "anon".
func RoleFrom(ctx context.Context) string {
	if claims := ClaimsFrom(ctx); claims != nil {
		return claims.Role
	}
	return auth.RoleAnon
}

func clientIP(r *http.Request) string {
	return request.New(r).GetIP()
}
