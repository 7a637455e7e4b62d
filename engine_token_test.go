package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memory"
)

func loginToken(t *testing.T, te *testEngine, email string) *LoginResult {
	t.Helper()

	ctx := context.Background()
	if _, err := te.Register(ctx, email, "password1", false); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	res, err := te.Authenticate(ctx, email, "password1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	return res
}

func TestTokenExpiresExactlyAtTTL(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	res := loginToken(t, te, "ttl@example.com")
	if want := te.clock.Now().Add(10 * time.Minute); !res.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, res.ExpiresAt)
	}

	te.clock.Advance(10*time.Minute - time.Second)
	if _, err := te.VerifyToken(ctx, res.Token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	te.clock.Advance(time.Second)
	if _, err := te.VerifyToken(ctx, res.Token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken at expiry, got %v", err)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()
	res := loginToken(t, te, "tamper@example.com")

	parts := strings.Split(res.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape %q", res.Token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	forged := parts[0] + "." + parts[1] + "." + string(sig)

	_, err := te.VerifyToken(ctx, forged)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatal("ErrBadSignature must wrap ErrInvalidToken")
	}
}

func TestVerifyTokenRejectsForeignKey(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())

	otherCfg := engineTestConfig()
	otherCfg.Token.PrivateKey = []byte("another-signing-secret")
	other := newTestEngine(t, otherCfg)
	res := loginToken(t, other, "foreign@example.com")

	if _, err := te.VerifyToken(context.Background(), res.Token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := te.VerifyToken(context.Background(), token); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("token %q: expected ErrMalformedToken, got %v", token, err)
		}
	}
}

func TestLogoutErrors(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	if err := te.Logout(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if err := te.Logout(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	res := loginToken(t, te, "bye@example.com")
	if err := te.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := te.Logout(ctx, res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a revoked token, got %v", err)
	}

	expired := loginToken(t, te, "old@example.com")
	te.clock.Advance(11 * time.Minute)
	if err := te.Logout(ctx, expired.Token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestLogoutRevokesOnlyThatToken(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	first := loginToken(t, te, "multi@example.com")
	second, err := te.Authenticate(ctx, "multi@example.com", "password1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("tokens issued within the same second must differ")
	}

	if err := te.Logout(ctx, first.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := te.VerifyToken(ctx, second.Token); err != nil {
		t.Fatalf("other token affected by logout: %v", err)
	}
}

type failingRevocations struct {
	*memory.RevocationRegistry
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, store.ErrBackend
}

func TestVerifyTokenFailsClosedOnRevocationBackend(t *testing.T) {
	te := newTestEngine(t, engineTestConfig(), func(b *Builder) {
		b.WithRevocationRegistry(failingRevocations{memory.NewRevocationRegistry()})
	})
	res := loginToken(t, te, "closed@example.com")

	if _, err := te.VerifyToken(context.Background(), res.Token); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestVerifyLatencyHistogram(t *testing.T) {
	te := newTestEngine(t, engineTestConfig(), func(b *Builder) {
		b.WithMetricsEnabled(true).WithLatencyHistograms(true)
	})
	res := loginToken(t, te, "latency@example.com")

	for i := 0; i < 3; i++ {
		if _, err := te.VerifyToken(context.Background(), res.Token); err != nil {
			t.Fatalf("VerifyToken failed: %v", err)
		}
	}

	snap := te.MetricsSnapshot()
	var total uint64
	for _, n := range snap.Histograms[MetricVerifyLatency] {
		total += n
	}
	if total != 3 {
		t.Fatalf("expected 3 latency observations, got %d", total)
	}
	if snap.Counters[MetricTokenVerified] != 3 {
		t.Fatalf("expected 3 verified tokens, got %d", snap.Counters[MetricTokenVerified])
	}
	if snap.Counters[MetricTokenIssued] != 1 {
		t.Fatalf("expected 1 issued token, got %d", snap.Counters[MetricTokenIssued])
	}
}
