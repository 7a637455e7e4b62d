package authcore

import (
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// Config is the complete engine configuration. Build clones it, so later
// changes to the caller's value have no effect on a built Engine.
type Config struct {
	Token        TokenConfig
	Password     PasswordConfig
	SecondFactor SecondFactorConfig
	RateLimit    RateLimitConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
TOKEN
====================================
*/

// TokenConfig controls session token signing.
//
// For hs256, PrivateKey is the shared HMAC secret. For ed25519 it is the raw
// or seed-form private key and PublicKey the matching public key.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	// VerifyKeys maps kid to verification key. When set, tokens must carry a
	// kid found here, which lets tokens signed by a retired key verify while
	// it is rotated out. KeyID must be one of the entries.
	VerifyKeys map[string][]byte
}

/*
====================================
PASSWORD
====================================
*/

// PasswordConfig holds Argon2id cost parameters. Memory is in KiB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SECOND FACTOR
====================================
*/

// SecondFactorConfig controls the emailed one-time code.
//
// TTL is passed to stores created by the builder; injected stores apply
// their own expiry.
type SecondFactorConfig struct {
	TTL     time.Duration
	Subject string
}

/*
====================================
RATE LIMIT
====================================
*/

// RateLimitConfig bounds failed logins per email (and optionally per client
// IP) and wrong codes per attempt.
type RateLimitConfig struct {
	Enabled               bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableCodeThrottle    bool
	MaxCodeAttempts       int
	CodeCooldownDuration  time.Duration
}

/*
====================================
AUDIT & METRICS
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults: 10 minute tokens signed with
// HS256, 10 minute codes and the standard Argon2id cost. The signing key is
// left empty and must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Token: TokenConfig{
			TTL:           10 * time.Minute,
			SigningMethod: string(jwt.MethodHS256),
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		SecondFactor: SecondFactorConfig{
			TTL:     store.ChallengeTTL,
			Subject: "Your login code",
		},
		RateLimit: RateLimitConfig{
			Enabled:               true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnableCodeThrottle:    true,
			MaxCodeAttempts:       5,
			CodeCooldownDuration:  store.ChallengeTTL,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Token.VerifyKeys = cloneKeys(cfg.Token.VerifyKeys)
	return out
}

func cloneKeys(keys map[string][]byte) map[string][]byte {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(keys))
	for kid, key := range keys {
		out[kid] = cloneBytes(key)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first problem that would prevent an engine from
// starting. A missing signing key returns ErrMissingSigningKey; everything
// else wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	// Token
	if c.Token.TTL <= 0 {
		return configError("Token TTL must be > 0")
	}
	switch jwt.SigningMethod(c.Token.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.Token.PrivateKey) == 0 {
			return ErrMissingSigningKey
		}
	case jwt.MethodEd25519:
		if len(c.Token.PrivateKey) == 0 {
			return ErrMissingSigningKey
		}
		if len(c.Token.PublicKey) == 0 {
			return configError("ed25519 requires PublicKey")
		}
	default:
		return configError("unsupported Token SigningMethod")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return configError("Token Leeway must be in [0, 2m]")
	}
	if len(c.Token.VerifyKeys) > 0 {
		if _, ok := c.Token.VerifyKeys[c.Token.KeyID]; !ok {
			return configError("Token KeyID must name an entry of VerifyKeys")
		}
	}

	// Password
	if c.Password.Memory == 0 || c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return configError("Password cost parameters must be > 0")
	}
	if c.Password.SaltLength < 16 {
		return configError("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return configError("Password KeyLength must be >= 16")
	}

	// Second factor
	if c.SecondFactor.TTL <= 0 {
		return configError("SecondFactor TTL must be > 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return configError("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldownDuration <= 0 {
			return configError("RateLimit LoginCooldownDuration must be > 0")
		}
		if c.RateLimit.EnableCodeThrottle {
			if c.RateLimit.MaxCodeAttempts <= 0 {
				return configError("RateLimit MaxCodeAttempts must be > 0")
			}
			if c.RateLimit.CodeCooldownDuration <= 0 {
				return configError("RateLimit CodeCooldownDuration must be > 0")
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return configError("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func (c Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

func (c Config) jwtConfig(now func() time.Time) jwt.Config {
	return jwt.Config{
		TTL:           c.Token.TTL,
		SigningMethod: jwt.SigningMethod(c.Token.SigningMethod),
		PrivateKey:    cloneBytes(c.Token.PrivateKey),
		PublicKey:     cloneBytes(c.Token.PublicKey),
		Issuer:        c.Token.Issuer,
		Audience:      c.Token.Audience,
		Leeway:        c.Token.Leeway,
		KeyID:         c.Token.KeyID,
		VerifyKeys:    cloneKeys(c.Token.VerifyKeys),
		Now:           now,
	}
}
