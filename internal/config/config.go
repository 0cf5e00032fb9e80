package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	DBURL       string
	BindAddr    string

	LogLevel  string
	LogFormat string

	CORSAllowOrigins []string
	WSAllowedOrigins []string

	JWTSecret    string
	AuthDomain   string
	AuthAudience string

	SeedMockIssues bool

	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3UsePathStyle   bool
	S3URLExpirySec   int

	// Defaulted lists the keys that were unset; Warnings describes values
	// that were ignored. Load runs before the logger exists, so the caller
	// logs both.
	Defaulted []string
	Warnings  []string
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first, without overriding variables
// that are already set. Malformed origins are an error.
func Load() (Config, error) {
	var l loader
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.warn(".env not loaded: %v", err)
	}

	c := Config{
		ServiceName: l.env("VARIABLE_NAME", "api"),
		DBURL:       l.env("DB_URL", "file:synchronizer.db"),
		BindAddr:    l.env("BIND_ADDR", ":8000"),

		LogLevel:  l.env("LOG_LEVEL", "info"),
		LogFormat: l.env("LOG_FORMAT", "json"),

		CORSAllowOrigins: list(l.env("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		WSAllowedOrigins: list(l.env("WS_ALLOWED_ORIGIN", "http://localhost:5173")),

		JWTSecret:    optional("JWT_SECRET"),
		AuthDomain:   optional("AUTH_DOMAIN"),
		AuthAudience: optional("AUTH_AUDIENCE"),

		SeedMockIssues: l.envBool("SEED_MOCK_ISSUES", false),

		AWSRegion:        l.env("AWS_REGION", "us-east-1"),
		S3Bucket:         optional("S3_BUCKET"),
		S3Prefix:         l.env("S3_PREFIX", "synchronizer"),
		S3Endpoint:       optional("S3_ENDPOINT"),
		S3PublicEndpoint: optional("S3_PUBLIC_ENDPOINT"),
		S3AccessKey:      optional("S3_ACCESS_KEY"),
		S3SecretKey:      optional("S3_SECRET_KEY"),
		S3UsePathStyle:   l.envBool("S3_USE_PATH_STYLE", true),
		S3URLExpirySec:   l.envInt("S3_URL_EXPIRY_SEC", 900),
	}
	c.Defaulted, c.Warnings = l.defaulted, l.warnings

	if err := validateOrigins("CORS_ALLOW_ORIGINS", c.CORSAllowOrigins); err != nil {
		return c, err
	}
	if err := validateOrigins("WS_ALLOWED_ORIGIN", c.WSAllowedOrigins); err != nil {
		return c, err
	}
	return c, nil
}

// AuthEnabled reports whether /api routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.AuthDomain != ""
}

// S3Enabled reports whether snapshot export has a bucket to write to.
func (c Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

type loader struct {
	defaulted []string
	warnings  []string
}

func (l *loader) warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	l.defaulted = append(l.defaulted, key)
	return def
}

func optional(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (l *loader) envBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.warn("%s=%q is not a bool, using %v", key, raw, def)
		return def
	}
	return v
}

func (l *loader) envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		l.warn("%s=%q is not a positive int, using %d", key, raw, def)
		return def
	}
	return v
}

// validateOrigins accepts "*" or absolute http(s) origins such as
// https://app.example.com.
func validateOrigins(key string, origins []string) error {
	for _, o := range origins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s: %q is not an http(s) origin", key, o)
		}
	}
	return nil
}

func list(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
