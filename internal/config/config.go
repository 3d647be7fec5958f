// -----------------------------------------------------------------------------
// Config Package
// -----------------------------------------------------------------------------
// Bu dosya, uygulamanın merkezi konfigürasyon yönetimini sağlar.
//
// Kaynaklar (yüksek öncelikten düşüğe):
//  1. Process environment
//  2. .env.local (varsa, .env'i ezer)
//  3. .env (varsa, mevcut environment'ı ezmez)
//  4. pgquery.yaml (çalışma dizininde varsa)
//  5. Varsayılan değerler
//
// Key'ler viper tarafından "database.url" → DATABASE_URL şeklinde environment
// değişkenlerine eşlenir.
// -----------------------------------------------------------------------------

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs, .env ve config dosyalarının okunduğu dosya sistemidir. Testler
// afero.NewMemMapFs ile değiştirir.
var AppFs = afero.NewOsFs()

const defaultJWTSecret = "your-super-secret-jwt-key-change-this-in-production"

// Config, uygulamanın merkezi yapılandırma nesnesidir.
type Config struct {
	App struct {
		Name string
		Env  string // development, production, test
	}

	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	DB struct {
		URL             string // DATABASE_URL
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		ConnectTimeout  time.Duration
	}

	JWT struct {
		Secret     string
		Expiration time.Duration
	}

	// Auth, gateway yetkilendirme ayarları.
	Auth struct {
		Enabled bool
		// AnonWrites, anon ve authenticated rollerinin yazma yapmasına izin verir.
		AnonWrites bool
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}

	Cache struct {
		Driver string // none, memory, redis
		Prefix string
		TTL    time.Duration
	}

	// Throttle, veritabanına giden komutların istemci tarafı hız sınırı.
	Throttle struct {
		Enabled bool
		RPS     float64
		Burst   int
	}

	RateLimit struct {
		Enabled       bool
		MaxRequests   int
		WindowSeconds int
	}

	CORS struct {
		AllowedOrigins []string
	}
}

// Load, çalışma dizinindeki kaynakları okuyarak Config nesnesini döndürür.
//
// Örnek kullanım:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom, verilen dizindeki .env / pgquery.yaml dosyalarını kullanır.
func LoadFrom(dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env"), false); err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(dir, ".env.local"), true); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName("pgquery")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	cfg := &Config{}
	seconds := func(key string) time.Duration {
		return time.Duration(v.GetInt(key)) * time.Second
	}

	cfg.App.Name = v.GetString("app.name")
	cfg.App.Env = v.GetString("app.env")

	cfg.Server.Port = v.GetString("port")
	cfg.Server.ReadTimeout = seconds("server.read_timeout")
	cfg.Server.WriteTimeout = seconds("server.write_timeout")

	cfg.DB.URL = v.GetString("database.url")
	cfg.DB.MaxOpenConns = v.GetInt("database.max_open_conns")
	cfg.DB.MaxIdleConns = v.GetInt("database.max_idle_conns")
	cfg.DB.ConnMaxLifetime = seconds("database.conn_max_lifetime")
	cfg.DB.ConnectTimeout = seconds("database.connect_timeout")

	cfg.JWT.Secret = v.GetString("jwt.secret")
	cfg.JWT.Expiration = seconds("jwt.expiration")

	cfg.Auth.Enabled = v.GetBool("auth.enabled")
	cfg.Auth.AnonWrites = v.GetBool("auth.anon_writes")

	cfg.Redis.Host = v.GetString("redis.host")
	cfg.Redis.Port = v.GetInt("redis.port")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.Cache.Driver = strings.ToLower(v.GetString("cache.driver"))
	cfg.Cache.Prefix = v.GetString("cache.prefix")
	cfg.Cache.TTL = seconds("cache.ttl")

	cfg.Throttle.Enabled = v.GetBool("throttle.enabled")
	cfg.Throttle.RPS = v.GetFloat64("throttle.rps")
	cfg.Throttle.Burst = v.GetInt("throttle.burst")

	cfg.RateLimit.Enabled = v.GetBool("rate_limit.enabled")
	cfg.RateLimit.MaxRequests = v.GetInt("rate_limit.max_requests")
	cfg.RateLimit.WindowSeconds = v.GetInt("rate_limit.window_seconds")

	cfg.CORS.AllowedOrigins = splitList(v.GetString("cors.allowed_origins"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IsProduction() && cfg.Cache.Driver == "memory" {
		log.Println("⚠️  UYARI: Memory cache birden fazla instance ile paylaşılamaz!")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pgquery")
	v.SetDefault("app.env", "development")

	v.SetDefault("port", "8000")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.connect_timeout", 5)

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.expiration", 3600)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.anon_writes", false)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.prefix", "pgquery:")
	v.SetDefault("cache.ttl", 30)

	v.SetDefault("throttle.enabled", false)
	v.SetDefault("throttle.rps", 100.0)
	v.SetDefault("throttle.burst", 20)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window_seconds", 60)

	v.SetDefault("cors.allowed_origins", "*")
}

// loadDotEnv, dosya varsa değişkenleri process environment'ına yazar.
// override false ise mevcut değişkenler korunur.
func loadDotEnv(path string, override bool) error {
	f, err := AppFs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists && !override {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate, config değerlerinin geçerliliğini kontrol eder.
//
// Production ortamı için kritik kontroller yapar:
//   - DATABASE_URL zorunlu
//   - JWT secret uzunluğu (min 32 karakter) ve default secret kontrolü
//   - Cache driver geçerliliği
func (c *Config) Validate() error {
	validDrivers := map[string]bool{
		"none":   true,
		"memory": true,
		"redis":  true,
	}
	if !validDrivers[c.Cache.Driver] {
		return fmt.Errorf("geçersiz CACHE_DRIVER: %s (none, memory veya redis olmalı)", c.Cache.Driver)
	}

	if c.Throttle.Enabled && c.Throttle.RPS <= 0 {
		return fmt.Errorf("THROTTLE_RPS sıfırdan büyük olmalı")
	}

	if c.IsProduction() {
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL production'da zorunludur")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT_SECRET production'da en az 32 karakter olmalı")
		}
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET production'da değiştirilmelidir")
		}
	}

	return nil
}

// IsProduction, uygulamanın production ortamında çalışıp çalışmadığını kontrol eder.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsDevelopment, uygulamanın development ortamında çalışıp çalışmadığını kontrol eder.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
