// Package request, HTTP isteklerinin daha okunabilir ve yönetilebilir bir yapı
// ile ele alınmasını sağlar. PostgREST tarzı query string'lerin builder
// zincirine çevrilmesi de bu paketin sorumluluğudur (bkz. postgrest.go).
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/biyonik/pgquery/pkg/auth"
)

// RequestParamsKeyType, Go context içinde route parametrelerini güvenli bir
// şekilde saklamak için kullanılan özel anahtar tipidir.
type RequestParamsKeyType struct{}

// RequestParamsKey global key instance
var RequestParamsKey = RequestParamsKeyType{}

type claimsKeyType struct{}

// ClaimsKey, Auth middleware'inin doğruladığı token claim'lerinin context anahtarıdır.
var ClaimsKey = claimsKeyType{}

// maxBodySize, okunacak en büyük request body boyutudur (10MB).
const maxBodySize = 10 << 20

// Request yapısı, http.Request yapısının üzerine inşa edilmiş bir sarmalayıcıdır.
type Request struct {
	*http.Request
}

// New, alınan *http.Request nesnesini Request modeline dönüştürür.
func New(r *http.Request) *Request {
	return &Request{Request: r}
}

// IsJSON, Content-Type başlığının "application/json" içerip içermediğini kontrol eder.
func (r *Request) IsJSON() bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// BearerToken, Authorization başlığından Bearer Token değerini ayrıştırır.
func (r *Request) BearerToken() string {
	return auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
}

// Query, URL query parametrelerinden bir anahtarın ilk değerini okur.
func (r *Request) Query(key string, defaultValue string) string {
	vals, exists := r.URL.Query()[key]
	if !exists || len(vals) == 0 {
		return defaultValue
	}
	return vals[0]
}

// RouteParam, route parametrelerini almak için kullanılır.
func (r *Request) RouteParam(key string) string {
	params, ok := r.Context().Value(RequestParamsKey).(map[string]string)
	if !ok {
		return ""
	}
	return params[key]
}

// Prefer, "Prefer" header'ındaki bir tercihin değerini döndürür.
//
// Örnek:
//
//	Prefer: return=representation, resolution=merge-duplicates
//	r.Prefer("return")     → "representation"
//	r.Prefer("resolution") → "merge-duplicates"
func (r *Request) Prefer(name string) string {
	for _, header := range r.Header.Values("Prefer") {
		for _, part := range strings.Split(header, ",") {
			key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
			if strings.EqualFold(strings.TrimSpace(key), name) {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// ParseJSON, request body'deki JSON'ı parse eder ve verilen hedefe doldurur.
// Sayılar json.Number olarak okunur; böylece büyük bigint değerleri float64'e
// yuvarlanmadan sürücüye gider.
//
// Güvenlik Notu:
// - Request body 10MB ile sınırlıdır
func (r *Request) ParseJSON(dest interface{}) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(dest)
}

// GetIP, client'ın IP adresini döndürür.
// Reverse proxy arkasındaysa X-Forwarded-For header'ını kontrol eder.
//
// Güvenlik Notu:
// X-Forwarded-For header'ı spoof edilebilir!
// Sadece güvenilir reverse proxy'lerden geliyorsa kullanın.
func (r *Request) GetIP() string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Claims, Auth middleware'inin context'e yazdığı token claim'lerini döndürür.
func (r *Request) Claims() (*auth.Claims, bool) {
	claims, ok := r.Context().Value(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// Role, isteğin yetki rolünü döndürür. Token yoksa "anon".
func (r *Request) Role() string {
	if claims, ok := r.Claims(); ok {
		return claims.Role
	}
	return auth.RoleAnon
}
