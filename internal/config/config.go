package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	CORSOrigins []string

	// PackageSecrets maps packageID -> pre-shared HMAC secret, parsed from
	// "pkg1:secret1,pkg2:secret2". DefaultSecret covers packages without an
	// explicit entry; empty means reject unknown packages.
	PackageSecrets map[string]string
	DefaultSecret  string

	// MaxClockSkewSec bounds how far an envelope timestamp may drift from
	// server time before the signature is rejected. 0 disables the check.
	MaxClockSkewSec int64

	// Report API credentials.
	AdminUser     string
	AdminPassHash string // bcrypt
	JWTSecret     string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8090"
	}
	return Config{
		HTTPAddr:        addr,
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		CORSOrigins:     csvOr("CORS_ORIGINS", "*"),
		PackageSecrets:  pairs(os.Getenv("PACKAGE_SECRETS")),
		DefaultSecret:   os.Getenv("DEFAULT_PACKAGE_SECRET"),
		MaxClockSkewSec: 0,
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   os.Getenv("ADMIN_PASS_HASH"),
		JWTSecret:       envOr("JWT_SECRET", "collector-dev-key"),
	}
}

// SecretFor resolves the HMAC secret for a package; ok is false when the
// package is unknown and no default is configured.
func (c Config) SecretFor(packageID string) (string, bool) {
	if s, ok := c.PackageSecrets[packageID]; ok {
		return s, true
	}
	if c.DefaultSecret != "" {
		return c.DefaultSecret, true
	}
	return "", false
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func pairs(v string) map[string]string {
	out := map[string]string{}
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, ":", 2)
		if len(kv) == 2 {
			out[kv[0]] = kv[1]
		}
	}
	return out
}
