// -----------------------------------------------------------------------------
// JWT (JSON Web Token) Package
// -----------------------------------------------------------------------------
// REST gateway'in kullandığı Supabase tarzı token'lar.
//
// Payload, PostgREST'in beklediği `role` claim'ini taşır:
//   - anon:          public (anahtar ile) okuma
//   - authenticated: oturum açmış kullanıcı
//   - service_role:  tüm yazma işlemlerine yetkili sunucu anahtarı
//
// Token'lar HS256 ile imzalanır. Secret environment variable'dan okunmalı,
// asla koda gömülmemelidir.
// -----------------------------------------------------------------------------

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roller.
const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
	RoleServiceRole   = "service_role"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims, token payload'ıdır.
//
// Standart claim'ler (jwt.RegisteredClaims): iss, sub, exp, iat, nbf.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig, token oluşturma ve doğrulama ayarlarını içerir.
type JWTConfig struct {
	Secret         string
	Issuer         string
	ExpirationTime time.Duration
}

// DefaultJWTConfig, varsayılan JWT ayarlarını döndürür.
//
// Production'da bu ayarlar environment variable'lardan okunmalıdır!
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:         "your-super-secret-jwt-key-change-this-in-production",
		Issuer:         "pgquery",
		ExpirationTime: 1 * time.Hour,
	}
}

// ValidRole, rolün tanınan rollerden biri olup olmadığını kontrol eder.
func ValidRole(role string) bool {
	switch role {
	case RoleAnon, RoleAuthenticated, RoleServiceRole:
		return true
	}
	return false
}

// GenerateToken, verilen rol ve subject için imzalı bir token üretir.
// ExpirationTime sıfır ise token süresizdir (anon anahtarları gibi).
//
// Örnek:
//
//	token, err := auth.GenerateToken(auth.RoleServiceRole, "backend", cfg)
func GenerateToken(role, subject string, config *JWTConfig) (string, error) {
	if config == nil {
		config = DefaultJWTConfig()
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if config.ExpirationTime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(config.ExpirationTime))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Secret))
}

// ParseToken, token'ı doğrular ve claim'leri döndürür.
//
// Kontroller:
//   - imza algoritması HS256 olmalı
//   - imza secret ile eşleşmeli
//   - exp / nbf geçerli olmalı
//   - role tanınan bir rol olmalı
func ParseToken(tokenString string, config *JWTConfig) (*Claims, error) {
	if config == nil {
		config = DefaultJWTConfig()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !ValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return claims, nil
}

// ExtractTokenFromHeader, "Bearer <token>" formatındaki header'dan token'ı
// ayıklar. Format uymuyorsa boş string döner.
func ExtractTokenFromHeader(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
