// Package router, gateway'in HTTP isteklerini yönlendirmek ve route tanımlamak
// için kullanılan küçük bir router implementasyonu sağlar.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/internal/http/response"
	"github.com/biyonik/pgquery/internal/middleware"
)

// HandlerFunc, gateway handler fonksiyon tipidir.
// Standard http.HandlerFunc'tan farkı, *request.Request kullanmasıdır.
type HandlerFunc func(http.ResponseWriter, *request.Request)

// Router, HTTP routing yapısını temsil eder.
type Router struct {
	routes      []*Route
	middlewares []middleware.Middleware
	groups      []*RouteGroup
}

// Route, tek bir HTTP route'unu temsil eder.
type Route struct {
	method      string
	path        string
	handler     HandlerFunc
	middlewares []middleware.Middleware
	router      *Router
}

// RouteGroup, route gruplarını temsil eder.
type RouteGroup struct {
	prefix      string
	middlewares []middleware.Middleware
	router      *Router
}

// New, yeni bir Router instance'ı oluşturur.
func New() *Router {
	return &Router{
		routes:      make([]*Route, 0),
		middlewares: make([]middleware.Middleware, 0),
		groups:      make([]*RouteGroup, 0),
	}
}

// Use, router seviyesinde global middleware ekler.
func (r *Router) Use(middleware middleware.Middleware) {
	r.middlewares = append(r.middlewares, middleware)
}

// GET, GET metodu için route tanımlar ve Route objesi döndürür.
func (r *Router) GET(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodGet, path, handler)
}

// POST, POST metodu için route tanımlar ve Route objesi döndürür.
func (r *Router) POST(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodPost, path, handler)
}

// PATCH, PATCH metodu için route tanımlar ve Route objesi döndürür.
func (r *Router) PATCH(path string, handler HandlerFunc) *Route {
	return r.addRoute(http.MethodPatch, path, handler)
}

// addRoute, yeni bir route ekler ve Route objesi döndürür.
func (r *Router) addRoute(method, path string, handler HandlerFunc) *Route {
	route := &Route{
		method:      method,
		path:        path,
		handler:     handler,
		middlewares: make([]middleware.Middleware, 0),
		router:      r,
	}
	r.routes = append(r.routes, route)
	return route
}

// Middleware, route'a middleware ekler (method chaining için).
//
// Kullanım:
//
//	r.POST("/rest/v1/{table}", ctrl.Create).
//	    Middleware(middleware.ServiceRole())
func (route *Route) Middleware(m middleware.Middleware) *Route {
	route.middlewares = append(route.middlewares, m)
	return route
}

// Group, route grubu oluşturur.
//
// Kullanım:
//
//	rest := r.Group("/rest/v1")
//	rest.Use(middleware.Auth(jwtCfg, false))
//	rest.GET("/{table}", ctrl.List)
func (r *Router) Group(prefix string) *RouteGroup {
	group := &RouteGroup{
		prefix:      prefix,
		middlewares: make([]middleware.Middleware, 0),
		router:      r,
	}
	r.groups = append(r.groups, group)
	return group
}

// Use, grup seviyesinde middleware ekler.
func (g *RouteGroup) Use(middleware middleware.Middleware) {
	g.middlewares = append(g.middlewares, middleware)
}

// GET, grup içinde GET route tanımlar.
func (g *RouteGroup) GET(path string, handler HandlerFunc) *Route {
	return g.add(http.MethodGet, path, handler)
}

// POST, grup içinde POST route tanımlar.
func (g *RouteGroup) POST(path string, handler HandlerFunc) *Route {
	return g.add(http.MethodPost, path, handler)
}

// PATCH, grup içinde PATCH route tanımlar.
func (g *RouteGroup) PATCH(path string, handler HandlerFunc) *Route {
	return g.add(http.MethodPatch, path, handler)
}

// add, grup prefix'i ve middleware'leri ile route ekler. Grup middleware'leri
// kopyalanır; sonradan route'a eklenenler diğer route'ları etkilemez.
func (g *RouteGroup) add(method, path string, handler HandlerFunc) *Route {
	route := g.router.addRoute(method, g.prefix+path, handler)
	route.middlewares = append(append([]middleware.Middleware{}, g.middlewares...), route.middlewares...)
	return route
}

// ServeHTTP, http.Handler interface'ini implement eder.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Global middleware'leri uygula
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.handleRequest(w, req)
	})

	// Global middleware chain oluştur (reverse order)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}

// handleRequest, gelen isteği uygun route'a yönlendirir.
func (r *Router) handleRequest(w http.ResponseWriter, req *http.Request) {
	pathMatched := false
	for _, route := range r.routes {
		params, matched := r.matchRoute(route.path, req.URL.Path)
		if !matched {
			continue
		}
		if route.method != req.Method {
			pathMatched = true
			continue
		}

		// Route parametrelerini context'e ekle
		ctx := context.WithValue(req.Context(), request.RequestParamsKey, params)
		req = req.WithContext(ctx)

		// Route-specific middleware'leri uygula
		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			route.handler(w, request.New(req))
		})

		// Route middleware chain oluştur (reverse order)
		for i := len(route.middlewares) - 1; i >= 0; i-- {
			handler = route.middlewares[i](handler)
		}

		handler.ServeHTTP(w, req)
		return
	}

	if pathMatched {
		response.Error(w, http.StatusMethodNotAllowed, "Bu metod desteklenmiyor")
		return
	}
	response.NotFound(w, "Route bulunamadı")
}

// matchRoute, route pattern'i ile URL path'ini karşılaştırır.
// Parametreleri extract eder ve match durumunu döndürür.
//
// Pattern örnekleri:
//
//	/rest/v1/{table}
//	/health
func (r *Router) matchRoute(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	// Part sayısı farklıysa match değildir
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)

	for i, part := range patternParts {
		// Parametre mi? (örn: {id})
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			paramName := strings.Trim(part, "{}")
			params[paramName] = pathParts[i]
			continue
		}

		// Statik part eşleşmeli
		if part != pathParts[i] {
			return nil, false
		}
	}

	return params, true
}
