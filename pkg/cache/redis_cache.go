// -----------------------------------------------------------------------------
// Redis Cache Driver
// -----------------------------------------------------------------------------
// Redis-based cache implementation. Birden fazla gateway instance'ı aynı
// sonuç cache'ini paylaşacaksa bu driver kullanılır.
//
// Özellikler:
// - Key prefix (namespace)
// - TTL support
// - Prefix bazlı Flush (SCAN + DEL)
// - Connection pooling
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig, Redis bağlantı yapılandırması.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int // Database numarası (0-15)
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig, varsayılan Redis yapılandırması.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         "127.0.0.1",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisClient, redis.Client wrapper.
type RedisClient struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisClient, connection pool'u başlatır ve bağlantıyı Ping ile test eder.
//
// Örnek:
//
//	client, err := NewRedisClient(DefaultRedisConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewRedisClient(config *RedisConfig, logger *log.Logger) (*RedisClient, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("❌ Redis bağlantı hatası: %v", err)
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Printf("✅ Redis bağlantısı başarılı: %s:%d (DB: %d)", config.Host, config.Port, config.DB)
	return &RedisClient{client: client, logger: logger}, nil
}

// Client, raw redis.Client instance döndürür.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Ping, Redis sunucusunun erişilebilir olup olmadığını kontrol eder.
// Health check endpoint'i tarafından kullanılır.
func (r *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Close, Redis bağlantısını kapatır.
func (r *RedisClient) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Printf("❌ Redis kapatma hatası: %v", err)
		return err
	}
	r.logger.Println("✅ Redis bağlantısı kapatıldı")
	return nil
}

// RedisCache, Redis-based cache implementation.
type RedisCache struct {
	client redis.UniversalClient
	logger *log.Logger
	prefix string
}

// NewRedisCache, yeni bir Redis cache instance oluşturur.
//
// Örnek:
//
//	c := NewRedisCache(redisClient, logger, "pgquery:")
//	// Gerçek key: "pgquery:<key>"
func NewRedisCache(client redis.UniversalClient, logger *log.Logger, prefix string) *RedisCache {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisCache{client: client, logger: logger, prefix: prefix}
}

func (r *RedisCache) prefixKey(key string) string {
	return r.prefix + key
}

// Get, cache'den veri okur.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	prefixedKey := r.prefixKey(key)
	val, err := r.client.Get(ctx, prefixedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Printf("❌ Redis Get hatası [%s]: %v", prefixedKey, err)
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

// Set, cache'e veri yazar.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	prefixedKey := r.prefixKey(key)
	if err := r.client.Set(ctx, prefixedKey, value, ttl).Err(); err != nil {
		r.logger.Printf("❌ Redis Set hatası [%s]: %v", prefixedKey, err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete, cache'den veri siler.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	prefixedKey := r.prefixKey(key)
	if err := r.client.Del(ctx, prefixedKey).Err(); err != nil {
		r.logger.Printf("❌ Redis Delete hatası [%s]: %v", prefixedKey, err)
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Flush, cache'i temizler.
//
// UYARI: Prefix varsa sadece o namespace temizlenir.
// Prefix yoksa TÜM Redis database temizlenir!
func (r *RedisCache) Flush(ctx context.Context) error {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			r.logger.Printf("❌ Redis FlushDB hatası: %v", err)
			return fmt.Errorf("redis flushdb failed: %w", err)
		}
		r.logger.Println("⚠️  Redis database tamamen temizlendi (FlushDB)")
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Printf("❌ Redis Scan hatası: %v", err)
		return fmt.Errorf("redis scan failed: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.logger.Printf("❌ Redis Flush hatası: %v", err)
			return fmt.Errorf("redis flush failed: %w", err)
		}
	}

	r.logger.Printf("⚠️  Redis cache temizlendi [prefix: %s, keys: %d]", r.prefix, len(keys))
	return nil
}

// Stats, Redis cache istatistiklerini döndürür.
func (r *RedisCache) Stats() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		r.logger.Printf("❌ Redis Info hatası: %v", err)
		return map[string]interface{}{"error": err.Error()}
	}

	return map[string]interface{}{
		"driver": "redis",
		"prefix": r.prefix,
		"info":   info,
	}
}
