// -----------------------------------------------------------------------------
// Role-Based Authorization Middleware
// -----------------------------------------------------------------------------
// Kullanıcının belirli bir role sahip olup olmadığını kontrol eder. Gateway'de
// yazma istekleri (POST/PATCH) varsayılan olarak service_role ister.
// -----------------------------------------------------------------------------

package middleware

import (
	"net/http"

	"github.com/biyonik/pgquery/internal/http/response"
	"github.com/biyonik/pgquery/pkg/auth"
)

// Role, belirtilen rollerden birine sahip isteklerin geçmesine izin verir.
//
// Örnek:
//
//	r.POST("/rest/v1/{table}", ctrl.Create).
//	    Middleware(middleware.Role(auth.RoleServiceRole))
//
// NOT:
// Bu middleware'den önce Auth middleware'i çalışmalıdır!
// Aksi takdirde tüm istekler anon kabul edilir.
func Role(allowedRoles ...string) Middleware {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFrom(r.Context())
			if allowed[role] {
				next.ServeHTTP(w, r)
				return
			}
			if role == auth.RoleAnon && ClaimsFrom(r.Context()) == nil {
				response.Unauthorized(w, "Kimlik doğrulaması gerekli")
				return
			}
			response.Forbidden(w, "Bu işlem için yetkiniz yok")
		})
	}
}

// ServiceRole, yalnızca service_role token'larına izin verir.
func ServiceRole() Middleware {
	return Role(auth.RoleServiceRole)
}
