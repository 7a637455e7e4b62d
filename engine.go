package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/metrics"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// Account is the stored record for one identity.
type Account = store.Account

// Engine is the authentication orchestrator. It holds references to its
// stores but never their internals, and it is safe for concurrent use once
// built.
type Engine struct {
	config      Config
	hasher      *password.Argon2
	credentials *store.Credentials
	revocations store.RevocationRegistry
	challenges  store.ChallengeStore
	tokens      *jwt.Manager
	mailer      mail.Sender
	limiter     rate.Limiter
	audit       *audit.Dispatcher
	metrics     *metrics.Metrics
	log         logging.Logger
	now         func() time.Time
}

// Close flushes and stops the audit dispatcher. Stores and clients passed to
// the Builder are owned by the caller and left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped because the
// buffer was full or the caller's context ended.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all counters and histograms. It is empty
// when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL returns the configured session token lifetime.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Token.TTL
}

func (e *Engine) ready() error {
	if e == nil || e.tokens == nil || e.credentials == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// backendFailure logs err with its full chain and returns the generic
// ErrBackendUnavailable in its place.
func (e *Engine) backendFailure(ctx context.Context, op string, err error, args ...any) error {
	e.metricInc(MetricBackendFailure)
	e.log.Error(ctx, "backend failure", append([]any{"op", op, "err", err}, args...)...)
	return ErrBackendUnavailable
}
