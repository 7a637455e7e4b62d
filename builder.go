package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/MrEthical07/authcore/store/redisstore"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Configure it once, call Build once, and
// discard it.
//
// Stores that are not injected explicitly default to Redis adapters when a
// Redis client is set and to in-memory adapters otherwise. The credential
// store defaults to memory.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentials store.CredentialStore
	revocations store.RevocationRegistry
	challenges  store.ChallengeStore
	mailer      mail.Sender

	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSigningKey sets the HS256 secret. It is shorthand for setting
// Token.SigningMethod and Token.PrivateKey.
func (b *Builder) WithSigningKey(secret []byte) *Builder {
	b.config.Token.SigningMethod = string(jwt.MethodHS256)
	b.config.Token.PrivateKey = cloneBytes(secret)
	b.config.Token.PublicKey = nil
	return b
}

// WithRedis sets the client used for default revocation and challenge stores
// and for the shared rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore injects the account store.
func (b *Builder) WithCredentialStore(s store.CredentialStore) *Builder {
	b.credentials = s
	return b
}

// WithRevocationRegistry injects the revoked-token registry.
func (b *Builder) WithRevocationRegistry(r store.RevocationRegistry) *Builder {
	b.revocations = r
	return b
}

// WithChallengeStore injects the pending second-factor store.
func (b *Builder) WithChallengeStore(s store.ChallengeStore) *Builder {
	b.challenges = s
	return b
}

// WithMailer sets the sender used to deliver one-time codes. It is required.
func (b *Builder) WithMailer(s mail.Sender) *Builder {
	b.mailer = s
	return b
}

// WithLogger sets the structured logger. Nil discards output.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for token issuance, token expiry checks and
// builder-created stores.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine. A Builder can
// only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.mailer == nil {
		return nil, errors.New("mail sender required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewArgon2(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}

	// -------- TOKEN SERVICE --------
	tokens, err := jwt.NewManager(cfg.jwtConfig(now))
	if err != nil {
		return nil, err
	}
	if !tokens.CanSign() {
		return nil, ErrMissingSigningKey
	}

	// -------- STORES --------
	credentials := b.credentials
	if credentials == nil {
		credentials = memory.NewCredentialStore()
	}

	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = redisstore.NewRevocationRegistry(b.redis, "", 0)
		} else {
			revocations = memory.NewRevocationRegistry()
		}
	}

	challenges := b.challenges
	if challenges == nil {
		if b.redis != nil {
			challenges = redisstore.NewChallengeStore(b.redis, "", cfg.SecondFactor.TTL)
		} else {
			challenges = memory.NewChallengeStore(
				memory.WithTTL(cfg.SecondFactor.TTL),
				memory.WithClock(now),
			)
		}
	}

	// -------- RATE LIMITER --------
	var limiter rate.Limiter
	if cfg.RateLimit.Enabled {
		rc := rate.Config{
			EnableIPThrottle:      cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: cfg.RateLimit.LoginCooldownDuration,
			EnableCodeThrottle:    cfg.RateLimit.EnableCodeThrottle,
			MaxCodeAttempts:       cfg.RateLimit.MaxCodeAttempts,
			CodeCooldownDuration:  cfg.RateLimit.CodeCooldownDuration,
		}
		if b.redis != nil {
			limiter = rate.NewRedis(b.redis, rc)
		} else {
			limiter = rate.NewLocal(rc)
		}
	}

	// -------- AUDIT & METRICS --------
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	collector := metrics.New(metrics.Config{
		Enabled:                 cfg.Metrics.Enabled,
		EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})

	b.built = true

	return &Engine{
		config:      cfg,
		hasher:      hasher,
		credentials: store.NewCredentials(credentials, hasher),
		revocations: revocations,
		challenges:  challenges,
		tokens:      tokens,
		mailer:      b.mailer,
		limiter:     limiter,
		audit:       dispatcher,
		metrics:     collector,
		log:         logging.NewSlogLogger(b.logger).With("component", "authcore"),
		now:         now,
	}, nil
}
