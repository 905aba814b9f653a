package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store string // "redis" (durable) | "memory" (lost on restart)

	// Reminders
	AlarmPollInterval time.Duration   // upper bound between two due-checks of the timer loop (default: 1m)
	OrphanGCInterval  time.Duration   // interval of the orphan timer sweep (default: 1h)
	RehydrateTimeout  time.Duration   // total time allowed for the startup rehydration retries (default: 30s)
	SnoozeOffsets     []time.Duration // quick offsets offered by the snooze picker

	// Homepage bookmarks import (optional, empty = disabled)
	BookmarkFile   string        // path to a Homepage bookmarks.yaml
	ImportInterval time.Duration // interval to re-import the bookmarks file (default: 24h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// HTTP access
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy     bool     // true => trust X-Forwarded-For headers
	CORSOrigins    []string // allowed CORS origins (ex: "chrome-extension://abcdef")
	RateLimitRPS   float64  // sustained requests per second per client IP on /api (0 = disabled)
	RateLimitBurst int      // burst size per client IP
}

func Load() *Config {
	// A missing .env is fine: production passes real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LR_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LR_PRETTY_LOG", true),

		Store: strings.ToLower(getenv("LR_STORE", StoreRedis)),

		// Reminders
		AlarmPollInterval: mustDuration("LR_ALARM_POLL_INTERVAL", time.Minute),
		OrphanGCInterval:  mustDuration("LR_ORPHAN_GC_INTERVAL", time.Hour),
		RehydrateTimeout:  mustDuration("LR_REHYDRATE_TIMEOUT", 30*time.Second),
		SnoozeOffsets:     mustDurations("LR_SNOOZE_OFFSETS", DefaultSnoozeOffsets()),

		// Import
		BookmarkFile:   getenv("LR_BOOKMARK_FILE", ""),
		ImportInterval: mustDuration("LR_IMPORT_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisUser:             getenv("LR_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("LR_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("LR_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("LR_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("LR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv("LR_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("LR_TRUST_PROXY", false),
		CORSOrigins:    splitAndTrim(getenv("LR_CORS_ORIGINS", "*")),
		RateLimitRPS:   getenvFloat("LR_RATE_LIMIT_RPS", 5),
		RateLimitBurst: getenvInt("LR_RATE_LIMIT_BURST", 20),
	}

	switch cfg.Store {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("LR_REDIS_ADDR")
	case StoreMemory:
		cfg.RedisAddr = getenv("LR_REDIS_ADDR", "")
	default:
		panic(fmt.Sprintf("❌ FATAL: LR_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	// Validate Redis password configuration
	if cfg.Store == StoreRedis && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: LR_REDIS_PASSWORD is required when LR_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// DefaultSnoozeOffsets are the quick choices of the snooze picker.
func DefaultSnoozeOffsets() []time.Duration {
	return []time.Duration{10 * time.Minute, time.Hour, 3 * time.Hour, 24 * time.Hour}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// mustDurations parses a comma separated list of positive durations.
// Any invalid entry makes the whole value fall back to def.
func mustDurations(key string, def []time.Duration) []time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := splitAndTrim(v)
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(p)
		if err != nil || d <= 0 {
			return def
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
