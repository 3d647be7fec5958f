// -----------------------------------------------------------------------------
// Cache Interface
// -----------------------------------------------------------------------------
// Sorgu sonuçlarını saklayan cache driver'larının ortak interface'i.
//
// Değerler opak byte dizileridir; serialization çağıranın sorumluluğudur
// (CachedExecutor satırları JSON olarak saklar).
//
// Driver'lar: memory, redis, none
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Cache, tüm cache driver'ların implement etmesi gereken interface.
//
// Örnek kullanım:
//
//	var c Cache = NewMemoryCache(logger)
//	_ = c.Set(ctx, "users:1", payload, time.Minute)
//	data, ok, err := c.Get(ctx, "users:1")
type Cache interface {
	// Get, key'in değerini okur. Key yoksa veya süresi dolmuşsa ok=false
	// döner; cache miss bir hata değildir.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set, değeri TTL ile yazar. TTL = 0 ise süresiz saklanır.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete, key'i siler. Key yoksa hata vermez.
	Delete(ctx context.Context, key string) error

	// Flush, driver'ın namespace'indeki tüm key'leri temizler.
	//
	// UYARI: Bu operasyon geri alınamaz!
	Flush(ctx context.Context) error
}

// Stats, cache istatistikleri interface.
// Tüm driver'lar optional olarak implement edebilir.
type Stats interface {
	Stats() map[string]interface{}
}

// Options, New factory'sinin ayarlarıdır.
type Options struct {
	Driver string // memory | redis | none
	Prefix string
	Redis  *RedisConfig
	Logger *log.Logger
}

// New, driver adına göre cache oluşturur. Driver "none" veya boş ise
// (nil, nil) döner; çağıran cache katmanını hiç kurmaz.
//
// Örnek:
//
//	c, err := cache.New(cache.Options{Driver: "redis", Prefix: "pgquery:", Redis: redisCfg, Logger: logger})
func New(opts Options) (Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(logger), nil
	case "redis":
		client, err := NewRedisClient(opts.Redis, logger)
		if err != nil {
			return nil, err
		}
		return NewRedisCache(client.Client(), logger, opts.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache driver: %q", opts.Driver)
	}
}
