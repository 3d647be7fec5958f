// Package response, gateway'in tüm JSON çıktılarını tek bir merkezden üretir.
//
// Başarılı veya hatalı her yanıt aynı envelope sözleşmesini taşır:
//
//	{"data": ..., "error": null | {"message": ..., "code": ...}, "count": null | n}
//
// Böylece Supabase istemcileri REST ve builder sonuçlarını aynı şekilde okur.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/biyonik/pgquery/pkg/database"
)

// Send, verilen payload'ı statü kodu ile JSON olarak yazar.
//
// Fonksiyon Akışı:
//  1. Content-Type başlığı JSON olarak ayarlanır.
//  2. HTTP durum kodu yazılır.
//  3. Payload JSON'a çevrilerek çıktı akışına yazılır.
func Send(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// Result, builder sonucunu envelope olarak yazar. Statü kodu sonuca göre
// belirlenir (bkz. StatusFor); hata yoksa success kodu kullanılır.
func Result(w http.ResponseWriter, success int, res *database.Result) error {
	if res == nil {
		res = &database.Result{}
	}
	if res.Count != nil {
		w.Header().Set("Content-Range", contentRange(res))
	}
	return Send(w, StatusFor(res, success), res)
}

// Error, yalnızca mesaj taşıyan hata envelope'u yazar.
func Error(w http.ResponseWriter, status int, message string) error {
	return Send(w, status, &database.Result{Error: &database.Error{Message: message}})
}

// contentRange, PostgREST'in "0-9/42" biçimindeki Content-Range değerini üretir.
func contentRange(res *database.Result) string {
	total := "*"
	if res.Count != nil {
		total = itoa(*res.Count)
	}
	n := int64(len(res.Rows()))
	if n == 0 {
		return "*/" + total
	}
	return "0-" + itoa(n-1) + "/" + total
}
