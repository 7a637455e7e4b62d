// Package config loads the authd process configuration from a TOML file and
// environment overrides, and converts it into an authcore.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	authcore "github.com/MrEthical07/authcore"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Environment variables applied on top of the file.
const (
	EnvJWTSecret     = "JWT_SECRET"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvRedisURL      = "REDIS_URL"
	EnvPostmarkToken = "POSTMARK_AUTH_TOKEN"
	EnvAddr          = "AUTHD_ADDR"
	EnvLogLevel      = "AUTHD_LOG_LEVEL"
)

// Backend names accepted by the storage selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Duration decodes TOML strings such as "10m" or "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the process configuration of authd.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Log          LogConfig          `toml:"log"`
	Token        TokenConfig        `toml:"token"`
	Password     PasswordConfig     `toml:"password"`
	SecondFactor SecondFactorConfig `toml:"second_factor"`
	RateLimit    RateLimitConfig    `toml:"rate_limit"`
	Storage      StorageConfig      `toml:"storage"`
	Redis        RedisConfig        `toml:"redis"`
	Mail         MailConfig         `toml:"mail"`
	Audit        AuditConfig        `toml:"audit"`
	Metrics      MetricsConfig      `toml:"metrics"`
}

type ServerConfig struct {
	Addr              string   `toml:"addr"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
	CookieName        string   `toml:"cookie_name"`
	SecureCookies     bool     `toml:"secure_cookies"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TokenConfig holds the signing material. Secret is used for hs256; the key
// files are read for ed25519. VerifyKeys maps kid to a secret (hs256) or a
// public key file (ed25519) and is only needed while rotating keys.
type TokenConfig struct {
	TTL            Duration          `toml:"ttl"`
	SigningMethod  string            `toml:"signing_method"`
	Secret         string            `toml:"secret"`
	PrivateKeyFile string            `toml:"private_key_file"`
	PublicKeyFile  string            `toml:"public_key_file"`
	Issuer         string            `toml:"issuer"`
	Audience       string            `toml:"audience"`
	Leeway         Duration          `toml:"leeway"`
	KeyID          string            `toml:"key_id"`
	VerifyKeys     map[string]string `toml:"verify_keys"`
}

type PasswordConfig struct {
	Memory      uint32 `toml:"memory"`
	Time        uint32 `toml:"time"`
	Parallelism uint8  `toml:"parallelism"`
	SaltLength  uint32 `toml:"salt_length"`
	KeyLength   uint32 `toml:"key_length"`
}

type SecondFactorConfig struct {
	TTL     Duration `toml:"ttl"`
	Subject string   `toml:"subject"`
}

type RateLimitConfig struct {
	Enabled               bool     `toml:"enabled"`
	EnableIPThrottle      bool     `toml:"enable_ip_throttle"`
	MaxLoginAttempts      int      `toml:"max_login_attempts"`
	LoginCooldownDuration Duration `toml:"login_cooldown"`
	EnableCodeThrottle    bool     `toml:"enable_code_throttle"`
	MaxCodeAttempts       int      `toml:"max_code_attempts"`
	CodeCooldownDuration  Duration `toml:"code_cooldown"`
}

// StorageConfig selects a backend per store.
type StorageConfig struct {
	Credentials string `toml:"credentials"`
	Tokens      string `toml:"tokens"`
	Challenges  string `toml:"challenges"`
	DatabaseURL string `toml:"database_url"`
	SQLitePath  string `toml:"sqlite_path"`
	MaxConns    int32  `toml:"max_conns"`
	Migrate     bool   `toml:"migrate"`
}

type RedisConfig struct {
	URL             string   `toml:"url"`
	RevokedPrefix   string   `toml:"revoked_prefix"`
	ChallengePrefix string   `toml:"challenge_prefix"`
	RetainRevoked   Duration `toml:"retain_revoked"`
}

type MailConfig struct {
	PostmarkToken   string   `toml:"postmark_token"`
	PostmarkBaseURL string   `toml:"postmark_base_url"`
	From            string   `toml:"from"`
	MessageStream   string   `toml:"message_stream"`
	Timeout         Duration `toml:"timeout"`
}

type AuditConfig struct {
	Enabled    bool `toml:"enabled"`
	BufferSize int  `toml:"buffer_size"`
	DropIfFull bool `toml:"drop_if_full"`
}

type MetricsConfig struct {
	Enabled                 bool `toml:"enabled"`
	EnableLatencyHistograms bool `toml:"enable_latency_histograms"`
}

// Default returns the configuration used when no file is given. The signing
// secret is left empty on purpose: the process must not start without one.
func Default() Config {
	lib := authcore.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:              "0.0.0.0:3000",
			ReadHeaderTimeout: Duration{5 * time.Second},
			ShutdownTimeout:   Duration{10 * time.Second},
			CookieName:        "jwt",
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Token: TokenConfig{
			TTL:           Duration{lib.Token.TTL},
			SigningMethod: lib.Token.SigningMethod,
		},
		Password: PasswordConfig{
			Memory:      lib.Password.Memory,
			Time:        lib.Password.Time,
			Parallelism: lib.Password.Parallelism,
			SaltLength:  lib.Password.SaltLength,
			KeyLength:   lib.Password.KeyLength,
		},
		SecondFactor: SecondFactorConfig{
			TTL:     Duration{lib.SecondFactor.TTL},
			Subject: lib.SecondFactor.Subject,
		},
		RateLimit: RateLimitConfig{
			Enabled:               lib.RateLimit.Enabled,
			EnableIPThrottle:      lib.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      lib.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: Duration{lib.RateLimit.LoginCooldownDuration},
			EnableCodeThrottle:    lib.RateLimit.EnableCodeThrottle,
			MaxCodeAttempts:       lib.RateLimit.MaxCodeAttempts,
			CodeCooldownDuration:  Duration{lib.RateLimit.CodeCooldownDuration},
		},
		Storage: StorageConfig{
			Credentials: BackendMemory,
			Tokens:      BackendMemory,
			Challenges:  BackendMemory,
			SQLitePath:  "authd.db",
			MaxConns:    20,
			Migrate:     true,
		},
		Redis: RedisConfig{
			URL:             "redis://localhost:6379",
			RevokedPrefix:   "banned_token",
			ChallengePrefix: "two_fa_code",
		},
		Mail: MailConfig{
			From:          "no-reply@localhost",
			MessageStream: "outbound",
			Timeout:       Duration{10 * time.Second},
		},
		Audit: AuditConfig{
			Enabled:    lib.Audit.Enabled,
			BufferSize: lib.Audit.BufferSize,
			DropIfFull: lib.Audit.DropIfFull,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults without touching the environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset and empty variables
// are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvJWTSecret); ok {
		c.Token.Secret = v
	}
	if v, ok := get(EnvDatabaseURL); ok {
		c.Storage.DatabaseURL = v
		if c.Storage.Credentials == BackendMemory {
			c.Storage.Credentials = BackendPostgres
		}
	}
	if v, ok := get(EnvRedisURL); ok {
		c.Redis.URL = v
		if c.Storage.Tokens == BackendMemory {
			c.Storage.Tokens = BackendRedis
		}
		if c.Storage.Challenges == BackendMemory {
			c.Storage.Challenges = BackendRedis
		}
	}
	if v, ok := get(EnvPostmarkToken); ok {
		c.Mail.PostmarkToken = v
	}
	if v, ok := get(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = v
	}
}

// Validate checks process-level settings. Engine settings are validated again
// by the engine builder.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return invalid("server.addr must not be empty")
	}
	if c.Server.CookieName == "" {
		return invalid("server.cookie_name must not be empty")
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		return invalid("server.shutdown_timeout must be > 0")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return invalid(fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	switch strings.ToLower(c.Token.SigningMethod) {
	case "hs256":
		if c.Token.Secret == "" {
			return fmt.Errorf("%w: token secret is empty; set %s", authcore.ErrMissingSigningKey, EnvJWTSecret)
		}
	case "ed25519":
		if c.Token.PrivateKeyFile == "" || c.Token.PublicKeyFile == "" {
			return fmt.Errorf("%w: ed25519 requires token.private_key_file and token.public_key_file", authcore.ErrMissingSigningKey)
		}
	default:
		return invalid(fmt.Sprintf("token.signing_method %q is not supported", c.Token.SigningMethod))
	}

	switch c.Storage.Credentials {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return invalid("storage.database_url is required for postgres credentials")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return invalid("storage.sqlite_path is required for sqlite credentials")
		}
	default:
		return invalid(fmt.Sprintf("storage.credentials %q is not supported", c.Storage.Credentials))
	}
	for name, backend := range map[string]string{"tokens": c.Storage.Tokens, "challenges": c.Storage.Challenges} {
		if backend != BackendMemory && backend != BackendRedis {
			return invalid(fmt.Sprintf("storage.%s %q is not supported", name, backend))
		}
	}
	if c.UsesRedis() && c.Redis.URL == "" {
		return invalid("redis.url is required when a redis backend is selected")
	}
	if c.Redis.RetainRevoked.Duration < 0 {
		return invalid("redis.retain_revoked must be >= 0")
	}
	return nil
}

// UsesRedis reports whether any store is backed by Redis.
func (c *Config) UsesRedis() bool {
	return c.Storage.Tokens == BackendRedis || c.Storage.Challenges == BackendRedis
}

// Engine converts the process configuration into the library configuration,
// reading key files where the signing method needs them.
func (c *Config) Engine() (authcore.Config, error) {
	out := authcore.DefaultConfig()

	out.Token.TTL = c.Token.TTL.Duration
	out.Token.SigningMethod = strings.ToLower(c.Token.SigningMethod)
	out.Token.Issuer = c.Token.Issuer
	out.Token.Audience = c.Token.Audience
	out.Token.Leeway = c.Token.Leeway.Duration
	out.Token.KeyID = c.Token.KeyID
	if out.Token.SigningMethod == "ed25519" {
		priv, err := os.ReadFile(c.Token.PrivateKeyFile)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("read private key: %w", err)
		}
		pub, err := os.ReadFile(c.Token.PublicKeyFile)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("read public key: %w", err)
		}
		out.Token.PrivateKey = priv
		out.Token.PublicKey = pub
	} else {
		out.Token.PrivateKey = []byte(c.Token.Secret)
	}
	if len(c.Token.VerifyKeys) > 0 {
		out.Token.VerifyKeys = make(map[string][]byte, len(c.Token.VerifyKeys))
		for kid, v := range c.Token.VerifyKeys {
			if out.Token.SigningMethod != "ed25519" {
				out.Token.VerifyKeys[kid] = []byte(v)
				continue
			}
			key, err := os.ReadFile(v)
			if err != nil {
				return authcore.Config{}, fmt.Errorf("read verify key %q: %w", kid, err)
			}
			out.Token.VerifyKeys[kid] = key
		}
	}

	out.Password.Memory = c.Password.Memory
	out.Password.Time = c.Password.Time
	out.Password.Parallelism = c.Password.Parallelism
	out.Password.SaltLength = c.Password.SaltLength
	out.Password.KeyLength = c.Password.KeyLength

	out.SecondFactor.TTL = c.SecondFactor.TTL.Duration
	out.SecondFactor.Subject = c.SecondFactor.Subject

	out.RateLimit.Enabled = c.RateLimit.Enabled
	out.RateLimit.EnableIPThrottle = c.RateLimit.EnableIPThrottle
	out.RateLimit.MaxLoginAttempts = c.RateLimit.MaxLoginAttempts
	out.RateLimit.LoginCooldownDuration = c.RateLimit.LoginCooldownDuration.Duration
	out.RateLimit.EnableCodeThrottle = c.RateLimit.EnableCodeThrottle
	out.RateLimit.MaxCodeAttempts = c.RateLimit.MaxCodeAttempts
	out.RateLimit.CodeCooldownDuration = c.RateLimit.CodeCooldownDuration.Duration

	out.Audit.Enabled = c.Audit.Enabled
	out.Audit.BufferSize = c.Audit.BufferSize
	out.Audit.DropIfFull = c.Audit.DropIfFull

	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.EnableLatencyHistograms

	if err := out.Validate(); err != nil {
		return authcore.Config{}, err
	}
	return out, nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}
