package controllers

import (
	"net/http"

	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/internal/http/response"
	"github.com/biyonik/pgquery/pkg/database"
)

// TableController, /rest/v1/{table} isteklerini builder zincirine çevirir
// (ultra-thin: SQL üretimi ve çalıştırma tamamen database paketinde).
type TableController struct {
	client *database.Client
}

func NewTableController(client *database.Client) *TableController {
	return &TableController{client: client}
}

// List handles GET /rest/v1/{table}
func (c *TableController) List(w http.ResponseWriter, r *request.Request) {
	// 1. Parse query string
	params, err := request.ParseParams(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	// 2. Build chain
	qb := c.client.From(r.RouteParam("table")).Select(params.Select, params.SelectOptions()...)
	qb = params.ApplyFilters(qb)
	qb = params.ApplyShaping(qb)

	// 3. Execute and return envelope
	response.Result(w, http.StatusOK, qb.Execute(r.Context()))
}

// Create handles POST /rest/v1/{table}
//
// Body tek bir obje veya obje dizisi olabilir.
//
//	Prefer: resolution=merge-duplicates → upsert (on_conflict query parametresi ile)
//	Prefer: return=representation       → eklenen satırlar döndürülür
func (c *TableController) Create(w http.ResponseWriter, r *request.Request) {
	params, err := request.ParseParams(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	qb := c.client.From(r.RouteParam("table"))
	if r.Prefer("resolution") == "merge-duplicates" {
		var opts []database.UpsertOption
		if params.OnConflict != "" {
			opts = append(opts, database.OnConflict(params.OnConflict))
		}
		qb = qb.Upsert(body, opts...)
	} else {
		qb = qb.Insert(body)
		if wantsRepresentation(r) {
			qb = qb.Returning()
		}
	}

	response.Result(w, http.StatusCreated, qb.Execute(r.Context()))
}

// Update handles PATCH /rest/v1/{table}
//
// Filtre verilmeyen PATCH tüm satırları günceller; gateway bunu engellemez.
func (c *TableController) Update(w http.ResponseWriter, r *request.Request) {
	params, err := request.ParseParams(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	values, isObject := body.(map[string]any)
	if !isObject {
		response.BadRequest(w, "PATCH body bir JSON objesi olmalı")
		return
	}

	qb := c.client.From(r.RouteParam("table")).Update(values)
	qb = params.ApplyFilters(qb)
	if wantsRepresentation(r) {
		qb = qb.Returning()
	}
	if params.Single {
		qb = qb.Single()
	}

	response.Result(w, http.StatusOK, qb.Execute(r.Context()))
}
