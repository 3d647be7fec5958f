package controllers

import (
	"net/http"

	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/internal/http/response"
)

// decodeBody parses the JSON request body into an object or an array.
// On failure the error response is already written.
func decodeBody(w http.ResponseWriter, r *request.Request) (any, bool) {
	if !r.IsJSON() {
		response.Error(w, http.StatusUnsupportedMediaType, "Content-Type application/json olmalı")
		return nil, false
	}

	var body any
	if err := r.ParseJSON(&body); err != nil {
		response.InvalidJSON(w)
		return nil, false
	}

	switch body.(type) {
	case map[string]any, []any:
		return body, true
	default:
		response.BadRequest(w, "body bir JSON objesi veya dizisi olmalı")
		return nil, false
	}
}

// wantsRepresentation reports whether the client asked for the affected rows
func wantsRepresentation(r *request.Request) bool {
	return r.Prefer("return") == "representation"
}
