// -----------------------------------------------------------------------------
// Memory Cache Driver
// -----------------------------------------------------------------------------
// In-memory cache implementation (non-persistent).
//
// Tek process'li kurulumlar, testler ve development için kullanılır.
//
// Özellikler:
// - Thread-safe (sync.RWMutex)
// - TTL support (periyodik garbage collection)
// - Stop ile durdurulabilen GC goroutine'i
//
// Sınırlamalar:
// - Non-persistent (restart'ta kaybolur)
// - Single-server only (distributed değil)
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

// MemoryCacheEntry, memory'de saklanan veri yapısı.
type MemoryCacheEntry struct {
	Value     []byte
	ExpiresAt time.Time // zero value = süresiz
}

// IsExpired, entry'nin expire olup olmadığını kontrol eder.
func (e *MemoryCacheEntry) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}

// MemoryCache, in-memory cache implementation.
type MemoryCache struct {
	store  map[string]*MemoryCacheEntry
	mu     sync.RWMutex
	logger *log.Logger

	gcInterval time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewMemoryCache, yeni bir Memory cache instance oluşturur ve GC
// goroutine'ini 5 dakikalık aralıkla başlatır.
//
// Örnek:
//
//	c := NewMemoryCache(logger)
//	defer c.Stop()
func NewMemoryCache(logger *log.Logger) *MemoryCache {
	return NewMemoryCacheWithInterval(logger, 5*time.Minute)
}

// NewMemoryCacheWithInterval, GC aralığı özelleştirilmiş Memory cache oluşturur.
func NewMemoryCacheWithInterval(logger *log.Logger, interval time.Duration) *MemoryCache {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	mc := &MemoryCache{
		store:      make(map[string]*MemoryCacheEntry),
		logger:     logger,
		gcInterval: interval,
		stop:       make(chan struct{}),
	}

	mc.wg.Add(1)
	go mc.startGarbageCollection()

	logger.Println("✅ Memory cache başlatıldı")
	return mc
}

// Get, cache'den veri okur.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.store[key]
	if !exists || entry.IsExpired() {
		return nil, false, nil
	}

	out := make([]byte, len(entry.Value))
	copy(out, entry.Value)
	return out, true, nil
}

// Set, cache'e veri yazar.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store[key] = &MemoryCacheEntry{Value: stored, ExpiresAt: expiresAt}
	return nil
}

// Delete, cache'den veri siler.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.store, key)
	return nil
}

// Flush, tüm cache'i temizler.
func (m *MemoryCache) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*MemoryCacheEntry)
	m.logger.Println("⚠️  Memory cache tamamen temizlendi")
	return nil
}

// Stats, memory cache istatistiklerini döndürür.
func (m *MemoryCache) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	validCount := 0
	for _, entry := range m.store {
		if !entry.IsExpired() {
			validCount++
		}
	}

	return map[string]interface{}{
		"driver":       "memory",
		"total_keys":   len(m.store),
		"valid_keys":   validCount,
		"expired_keys": len(m.store) - validCount,
	}
}

// Size, cache'deki toplam entry sayısını döndürür (expired dahil).
func (m *MemoryCache) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.store)
}

// Stop, GC goroutine'ini durdurur. Birden fazla çağrı güvenlidir.
func (m *MemoryCache) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

func (m *MemoryCache) startGarbageCollection() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanExpiredEntries()
		case <-m.stop:
			return
		}
	}
}

// cleanExpiredEntries, expired entry'leri temizler ve silinen sayıyı döndürür.
func (m *MemoryCache) cleanExpiredEntries() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleaned := 0
	for key, entry := range m.store {
		if entry.IsExpired() {
			delete(m.store, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Printf("🧹 Memory cache garbage collection: %d expired entry silindi", cleaned)
	}
	return cleaned
}
