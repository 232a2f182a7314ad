// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tenantsql/internal/tenant"
)

// ConfigFileEnv names the environment variable that points at a YAML
// configuration file.
const ConfigFileEnv = "TENANTSQL_CONFIG"

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	IssuerURL      string   `yaml:"issuer_url"`      // OIDC issuer URL
	JWTSecret      string   `yaml:"jwt_secret"`      // HS256 shared secret for local/dev JWT auth
	Audience       string   `yaml:"audience"`        // Required JWT audience claim
	AllowedIssuers []string `yaml:"allowed_issuers"` // Accepted HS256 issuers (empty accepts any)
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != ""
}

// Enabled returns true when any token validator can be built.
func (a *AuthConfig) Enabled() bool {
	return a.OIDCEnabled() || a.JWTSecret != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL != "" && a.Audience == "" {
		return errors.New("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// TenantConfig holds the tenant isolation settings.
type TenantConfig struct {
	// Mode turns statement rewriting on. When false statements pass through.
	Mode             bool     `yaml:"mode"`
	Column           string   `yaml:"column"`
	IgnoredTables    []string `yaml:"ignored_tables"`
	PrivilegedTables []string `yaml:"privileged_tables"`
	EnhanceInsert    bool     `yaml:"enhance_insert"`
	AdminTenantID    string   `yaml:"admin_tenant_id"`
	QualifyUnaliased bool     `yaml:"qualify_unaliased"`
}

// Policy builds the tenant policy described by the configuration.
func (t TenantConfig) Policy() tenant.Policy {
	return tenant.Policy{
		Column:           t.Column,
		IgnoredTables:    tenant.NewTableSet(t.IgnoredTables...),
		PrivilegedTables: tenant.NewTableSet(t.PrivilegedTables...),
		EnhanceInsert:    t.EnhanceInsert,
		AdminTenantID:    t.AdminTenantID,
		QualifyUnaliased: t.QualifyUnaliased,
	}
}

// Config holds the configuration for the rewrite service and CLI.
type Config struct {
	ListenAddr string `yaml:"listen_addr"` // HTTP listen address (default ":8080")
	LogLevel   string `yaml:"log_level"`   // log level: debug, info, warn, error (default "info")
	Env        string `yaml:"env"`         // environment: "development" (default) or "production"
	DBPath     string `yaml:"db_path"`     // SQLite database used by the exec command

	// Rate limiting
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // sustained requests per second (default 100)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"` // allowed origins for CORS (default: ["*"])

	Auth   AuthConfig   `yaml:"auth"`
	Tenant TenantConfig `yaml:"tenant"`

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-"`
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	p := tenant.DefaultPolicy()
	return &Config{
		ListenAddr:         ":8080",
		LogLevel:           "info",
		DBPath:             ":memory:",
		RateLimitRPS:       100,
		RateLimitBurst:     200,
		CORSAllowedOrigins: []string{"*"},
		Tenant: TenantConfig{
			Mode:             true,
			Column:           p.Column,
			PrivilegedTables: append([]string(nil), tenant.DefaultPrivilegedTables...),
			EnhanceInsert:    p.EnhanceInsert,
			AdminTenantID:    p.AdminTenantID,
		},
	}
}

// LoadFromEnv loads configuration from environment variables, layered
// over the file named by TENANTSQL_CONFIG when set.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Load reads the YAML file at path (or TENANTSQL_CONFIG when path is
// empty) and then applies environment variables, which take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Env, "ENV")
	setString(&cfg.DBPath, "DB_PATH")

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	// Auth
	setString(&cfg.Auth.IssuerURL, "AUTH_ISSUER_URL")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Audience, "AUTH_AUDIENCE")
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitList(v)
	}

	// Tenant isolation
	cfg.Tenant.Mode = parseBoolEnvDefault("TENANT_MODE", cfg.Tenant.Mode)
	setString(&cfg.Tenant.Column, "TENANT_COLUMN")
	if v, ok := os.LookupEnv("TENANT_IGNORED_TABLES"); ok {
		cfg.Tenant.IgnoredTables = splitList(v)
	}
	if v, ok := os.LookupEnv("TENANT_PRIVILEGED_TABLES"); ok {
		cfg.Tenant.PrivilegedTables = splitList(v)
	}
	cfg.Tenant.EnhanceInsert = parseBoolEnvDefault("TENANT_ENHANCE_INSERT", cfg.Tenant.EnhanceInsert)
	setString(&cfg.Tenant.AdminTenantID, "TENANT_ADMIN_ID")
	cfg.Tenant.QualifyUnaliased = parseBoolEnvDefault("TENANT_QUALIFY_UNALIASED", cfg.Tenant.QualifyUnaliased)
}

// finalize fills empty values and rejects inconsistent settings.
func (c *Config) finalize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 100
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 200
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.Tenant.Column == "" {
		c.Tenant.Column = tenant.DefaultColumn
	}
	if c.Tenant.AdminTenantID == "" {
		c.Tenant.AdminTenantID = tenant.DefaultAdminTenantID
	}

	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if !c.Auth.Enabled() {
		c.Warnings = append(c.Warnings, "authentication is not configured; set JWT_SECRET or AUTH_ISSUER_URL")
	}
	if !c.Tenant.Mode {
		c.Warnings = append(c.Warnings, "TENANT_MODE is off; statements are not tenant filtered")
	}

	// Production mode: insecure defaults are fatal errors.
	if c.IsProduction() {
		if !c.Auth.Enabled() {
			return errors.New("authentication must be configured in production (set JWT_SECRET or AUTH_ISSUER_URL)")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return errors.New("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return compactNonEmpty(parts)
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
