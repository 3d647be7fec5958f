package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/biyonik/pgquery/pkg/cache"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Executor Decorator'ları
// -----------------------------------------------------------------------------
// HTTP middleware zincirine benzer şekilde Executor'lar birbirini sarmalar:
//
//	exec := database.NewSQLExecutor(db)
//	exec = database.NewThrottledExecutor(exec, rate.NewLimiter(100, 20))
//	exec = database.NewCachedExecutor(exec, c, 30*time.Second, logger)
//	exec = database.NewLoggingExecutor(exec, logger)
//
// Decorator'lar komut hakkındaki bilgiyi (operation, tablolar) SQL parse
// etmeden context'teki StatementInfo'dan okur.
// -----------------------------------------------------------------------------

// LoggingExecutor, her komutu benzersiz bir id ile loglar.
type LoggingExecutor struct {
	next   Executor
	logger *log.Logger
}

// NewLoggingExecutor, komut loglayan decorator oluşturur.
func NewLoggingExecutor(next Executor, logger *log.Logger) *LoggingExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingExecutor{next: next, logger: logger}
}

// Query, komutu çalıştırır ve süresini loglar.
func (e *LoggingExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	id := uuid.NewString()
	info, _ := StatementInfoFrom(ctx)
	op := info.Operation.String()
	if info.Count {
		op = "count"
	}

	start := time.Now()
	rows, err := e.next.Query(ctx, query, args...)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Printf("❌ [%s] %s %q (%v) hata: %v | %s", id, op, info.Table, elapsed, err, query)
		return nil, err
	}
	e.logger.Printf("[%s] %s %q → %d satır (%v)", id, op, info.Table, len(rows), elapsed)
	return rows, nil
}

// ThrottledExecutor, komutları token bucket ile sınırlar. Limit dolduğunda
// komut context iptal edilene kadar bekler.
type ThrottledExecutor struct {
	next    Executor
	limiter *rate.Limiter
}

// NewThrottledExecutor, limiter ile sınırlanmış decorator oluşturur.
func NewThrottledExecutor(next Executor, limiter *rate.Limiter) *ThrottledExecutor {
	return &ThrottledExecutor{next: next, limiter: limiter}
}

// Query, limiter izin verdiğinde komutu çalıştırır.
func (e *ThrottledExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("statement throttled: %w", err)
		}
	}
	return e.next.Query(ctx, query, args...)
}

// CachedExecutor, select ve count komutlarının sonuçlarını cache'ler.
//
// Cache key'i SQL, parametreler ve komutun okuduğu her tablonun generation
// sayacından türetilir. Bir tabloya yazan her komut o tablonun generation'ını
// artırır; eski key'ler bir daha okunmaz ve TTL ile düşer. Generation'lar
// process içindedir, birden fazla instance arasında tazelik TTL ile sınırlıdır.
//
// Satırlar JSON olarak saklanır; cache'ten dönen sayılar json.Number olur.
type CachedExecutor struct {
	next   Executor
	cache  cache.Cache
	ttl    time.Duration
	logger *log.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCachedExecutor, read-through cache decorator'ı oluşturur.
func NewCachedExecutor(next Executor, c cache.Cache, ttl time.Duration, logger *log.Logger) *CachedExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedExecutor{
		next:        next,
		cache:       c,
		ttl:         ttl,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// Query, select komutlarını cache'ten karşılar, mutation'larda ilgili
// tabloların cache'ini geçersiz kılar.
func (e *CachedExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	info, ok := StatementInfoFrom(ctx)
	if !ok || e.cache == nil {
		return e.next.Query(ctx, query, args...)
	}

	if info.Operation.IsMutation() {
		rows, err := e.next.Query(ctx, query, args...)
		if err == nil {
			e.invalidate(info.Tables)
		}
		return rows, err
	}
	if info.Operation != OpSelect {
		return e.next.Query(ctx, query, args...)
	}

	key, err := e.key(info, query, args)
	if err != nil {
		return e.next.Query(ctx, query, args...)
	}

	if data, hit, err := e.cache.Get(ctx, key); err != nil {
		e.logger.Printf("⚠️  Cache okuma hatası [%s]: %v", key, err)
	} else if hit {
		if rows, err := decodeRows(data); err == nil {
			return rows, nil
		}
	}

	rows, err := e.next.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rows); err == nil {
		if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
			e.logger.Printf("⚠️  Cache yazma hatası [%s]: %v", key, err)
		}
	}
	return rows, nil
}

// Generation, tablonun güncel generation sayacını döndürür.
func (e *CachedExecutor) Generation(table string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generations[table]
}

func (e *CachedExecutor) invalidate(tables []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range tables {
		e.generations[t]++
	}
}

func (e *CachedExecutor) key(info StatementInfo, query string, args []any) (string, error) {
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return "", err
	}

	d := xxhash.New()
	_, _ = d.WriteString(query)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(encodedArgs)

	e.mu.Lock()
	for _, t := range info.Tables {
		_, _ = d.WriteString("|" + t + "@" + strconv.FormatUint(e.generations[t], 10))
	}
	e.mu.Unlock()

	return fmt.Sprintf("q:%s:%016x", info.Table, d.Sum64()), nil
}

func decodeRows(data []byte) ([]Row, error) {
	var rows []Row
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
