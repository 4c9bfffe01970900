package router

import (
	"os"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/pkg/utils"
)

const (
	// DefaultTimeoutDuration bounds each request, including the storage write of a signup.
	DefaultTimeoutDuration = 30 * time.Second

	// DefaultPort matches the port the service has always listened on.
	DefaultPort = "3000"

	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000
)

// RouterConfig is read once at startup. Zero fields are filled from the environment by
// CreateRouterService, so callers only set what they want to pin.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	// TrustedProxies nil means ClientIP() uses RemoteAddr only (TRUSTED_PROXIES).
	TrustedProxies []string
	// AllowedOrigins empty reflects any Origin, as the browser signup form expects (CORS_ALLOWED_ORIGIN).
	AllowedOrigins []string
	MaxBodyBytes   int64 // MAX_REQUEST_BODY_BYTES
	HSTS           HSTSConfig
}

type HSTSConfig struct {
	Enabled           bool
	MaxAge            int64
	IncludeSubdomains bool
}

func (cfg RouterConfig) withEnvDefaults() RouterConfig {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeoutDuration
	}
	if cfg.TrustedProxies == nil {
		cfg.TrustedProxies = parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGIN"))
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = int64(utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes))
	}
	if cfg.HSTS == (HSTSConfig{}) {
		cfg.HSTS = hstsFromEnv()
	}
	return cfg
}

func parseTrustedProxies(v string) []string {
	if strings.TrimSpace(v) == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// hstsFromEnv enables HSTS in production unless HSTS_ENABLED says otherwise.
func hstsFromEnv() HSTSConfig {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))

	return HSTSConfig{
		Enabled:           utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod"),
		MaxAge:            int64(utils.GetEnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge)),
		IncludeSubdomains: utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
	}
}

// ListenPort resolves PORT, then APP_PORT, then DefaultPort.
func ListenPort() string {
	if port := utils.GetEnvTrimmed("PORT"); port != "" {
		return port
	}
	return utils.GetEnvTrimmedOrDefault("APP_PORT", DefaultPort)
}
