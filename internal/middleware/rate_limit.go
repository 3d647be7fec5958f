package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/biyonik/pgquery/internal/http/response"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Rate Limiting Middleware
// -----------------------------------------------------------------------------
// İstemci başına (IP veya token subject) bir token bucket tutar. Bucket'lar
// golang.org/x/time/rate limiter'larıdır; uzun süre kullanılmayanlar arka
// plandaki cleanup goroutine'i ile silinir. Stop ile gracefully durdurulur.
// -----------------------------------------------------------------------------

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter, anahtar bazlı limiter registry'sidir.
type RateLimiter struct {
	mu              sync.Mutex
	entries         map[string]*limiterEntry
	maxRequests     int
	windowInSeconds int
	limit           rate.Limit
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// Global limiter registry - graceful shutdown için
var (
	limiterRegistry   = make(map[*RateLimiter]bool)
	limiterRegistryMu sync.Mutex
)

// NewRateLimiter, pencere başına maxRequests isteğe izin veren limiter oluşturur.
func NewRateLimiter(maxRequests int, windowInSeconds int) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if windowInSeconds <= 0 {
		windowInSeconds = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		entries:         make(map[string]*limiterEntry),
		maxRequests:     maxRequests,
		windowInSeconds: windowInSeconds,
		limit:           rate.Limit(float64(maxRequests) / float64(windowInSeconds)),
		ctx:             ctx,
		cancel:          cancel,
	}

	limiterRegistryMu.Lock()
	limiterRegistry[rl] = true
	limiterRegistryMu.Unlock()

	rl.wg.Add(1)
	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	defer rl.wg.Done()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.ctx.Done():
			return
		}
	}
}

// cleanup, iki pencere süresince görülmeyen anahtarları siler.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	idle := time.Duration(rl.windowInSeconds) * time.Second * 2
	now := time.Now()
	for key, entry := range rl.entries {
		if now.Sub(entry.lastSeen) > idle {
			delete(rl.entries, key)
		}
	}
}

// Stop, rate limiter'ı gracefully durdurur.
func (rl *RateLimiter) Stop() {
	limiterRegistryMu.Lock()
	delete(limiterRegistry, rl)
	limiterRegistryMu.Unlock()

	rl.cancel()
	rl.wg.Wait()
}

// StopAllLimiters, tüm aktif rate limiter'ları durdurur.
// Sunucu shutdown hook'undan çağrılır.
func StopAllLimiters() {
	limiterRegistryMu.Lock()
	limiters := make([]*RateLimiter, 0, len(limiterRegistry))
	for limiter := range limiterRegistry {
		limiters = append(limiters, limiter)
	}
	limiterRegistryMu.Unlock()

	for _, limiter := range limiters {
		limiter.Stop()
	}
}

// Allow, anahtar için bir isteğe izin verilip verilmeyeceğini söyler. Kalan
// token sayısını ve reddedildiyse bekleme süresini döndürür.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.maxRequests)}
		rl.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, 0, delay
	}

	remaining := int(math.Floor(entry.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, 0
}

// RateLimit, istemci başına rate limiting middleware'ini döndürür. İstek
// doğrulanmış bir token taşıyorsa anahtar token subject'idir, aksi halde IP.
func RateLimit(maxRequests int, windowInSeconds int) Middleware {
	return RateLimitWith(NewRateLimiter(maxRequests, windowInSeconds))
}

// RateLimitWith, hazır bir limiter ile middleware üretir.
func RateLimitWith(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if claims := ClaimsFrom(r.Context()); claims != nil && claims.Subject != "" {
				key = "sub:" + claims.Subject
			}

			allowed, remaining, retryAfter := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				response.TooManyRequests(w, "Rate limit aşıldı. "+strconv.Itoa(seconds)+" saniye sonra tekrar deneyin.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
