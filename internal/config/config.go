package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	SessionFile    string        // where the signed session token is persisted
	SessionSecret  string        // HMAC key used to sign session tokens
	SessionTTL     time.Duration // validity of an issued session token
	ResyncInterval time.Duration // periodic full refetch, 0 disables
	ImportFile     string        // optional homepage-style bookmarks.yaml imported at startup

	// Redis (remote store + change feed)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between connect retries
	RedisPingTimeout      time.Duration // timeout for each ping attempt
	RedisPoolSize         int           // connection pool size
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries (grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	RateBurst    int      // mutation rate limit burst per IP
	RatePerMin   int      // mutation rate limit refill per IP per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TABMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TABMARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("TABMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TABMARK_PRETTY_LOG", true),

		// Session & sync
		SessionFile:    getenv("TABMARK_SESSION_FILE", defaultSessionFile()),
		SessionSecret:  requireEnv("TABMARK_SESSION_SECRET"),
		SessionTTL:     mustDuration("TABMARK_SESSION_TTL", 7*24*time.Hour),
		ResyncInterval: mustDuration("TABMARK_RESYNC_INTERVAL", 0),
		ImportFile:     getenv("TABMARK_IMPORT_FILE", ""),

		// Redis settings
		RedisAddr:             requireEnv("TABMARK_REDIS_ADDR"),
		RedisUser:             getenv("TABMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("TABMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("TABMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("TABMARK_REDIS_DB", 0),
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
		AllowedHosts: splitAndTrim(getenv("TABMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("TABMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("TABMARK_TRUST_PROXY", false),
		RateBurst:    getenvInt("TABMARK_RATE_BURST", 20),
		RatePerMin:   getenvInt("TABMARK_RATE_PER_MIN", 60),
	}

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: TABMARK_REDIS_PASSWORD is required when TABMARK_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	cp.SessionSecret = "***REDACTED***"
	return cp
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tabmark-session.yaml"
	}
	return dir + "/tabmark/session.yaml"
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

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
