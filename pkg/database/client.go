package database

import (
	"log"
)

// -----------------------------------------------------------------------------
// CLIENT
// -----------------------------------------------------------------------------
// Client, Executor ve Grammar'ı bir arada tutan giriş noktasıdır. Client
// kendisi state taşımaz; her From çağrısı bağımsız bir QueryBuilder üretir ve
// aynı Client birden fazla goroutine tarafından güvenle paylaşılabilir.
// -----------------------------------------------------------------------------

// Client, Supabase uyumlu query builder istemcisidir.
type Client struct {
	executor Executor
	grammar  Grammar
	logger   *log.Logger
}

// ClientOption, Client'ı yapılandırır.
type ClientOption func(*Client)

// WithGrammar, varsayılan PostgreSQL grammar'ını değiştirir.
func WithGrammar(g Grammar) ClientOption {
	return func(c *Client) { c.grammar = g }
}

// WithLogger, başarısız zincirlerin loglanacağı logger'ı belirler.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient, verilen Executor ile yeni bir Client oluşturur.
//
// Örnek:
//
//	db, err := database.Connect(database.ConnectionConfig{URL: os.Getenv("DATABASE_URL")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := database.NewClient(database.NewSQLExecutor(db))
//	res := client.From("users").Select("*").Execute(ctx)
func NewClient(executor Executor, opts ...ClientOption) *Client {
	c := &Client{
		executor: executor,
		grammar:  NewPostgresGrammar(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// From, verilen tabloya bağlı yeni bir zincir başlatır.
func (c *Client) From(table string) *QueryBuilder {
	return newBuilder(c.executor, c.grammar, c.logger, table)
}

// Executor, Client'ın kullandığı Executor'ı döndürür.
func (c *Client) Executor() Executor {
	return c.executor
}
