package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func registerSecondFactor(t *testing.T, te *testEngine, email string) *LoginResult {
	t.Helper()

	ctx := context.Background()
	if _, err := te.Register(ctx, email, "password1", true); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	res, err := te.Authenticate(ctx, email, "password1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if res.State != StateSecondFactorPending {
		t.Fatalf("expected StateSecondFactorPending, got %s", res.State)
	}
	if res.Token != "" {
		t.Fatal("pending result must not carry a token")
	}
	if res.AttemptID.IsZero() {
		t.Fatal("expected attempt id")
	}
	return res
}

func TestSecondFactorScenario(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	pending := registerSecondFactor(t, te, "mfa@example.com")
	attempt := pending.AttemptID.String()
	code := te.lastCode(t, "mfa@example.com")

	if _, err := te.ConfirmSecondFactor(ctx, "mfa@example.com", attempt, wrongCode(code)); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	res, err := te.ConfirmSecondFactor(ctx, "mfa@example.com", attempt, code)
	if err != nil {
		t.Fatalf("ConfirmSecondFactor failed after a wrong code: %v", err)
	}
	if !res.Authenticated() || res.Token == "" {
		t.Fatalf("expected authenticated result, got %+v", res)
	}

	who, err := te.VerifyToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if who.String() != "mfa@example.com" {
		t.Fatalf("unexpected subject %s", who)
	}

	if _, err := te.ConfirmSecondFactor(ctx, "mfa@example.com", attempt, code); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound on replay, got %v", err)
	}
}

func TestSecondFactorCodeFormat(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	registerSecondFactor(t, te, "fmt@example.com")

	code := te.lastCode(t, "fmt@example.com")
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("non digit in code %q", code)
		}
	}
}

func TestSecondFactorUnknownAttempt(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	registerSecondFactor(t, te, "other@example.com")
	code := te.lastCode(t, "other@example.com")

	_, err := te.ConfirmSecondFactor(context.Background(), "other@example.com", "2b0fbd0f-8d47-4a4b-8f63-6f6d5b8c6a11", code)
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestSecondFactorRejectsMalformedInput(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	pending := registerSecondFactor(t, te, "shape@example.com")
	ctx := context.Background()

	cases := []struct {
		name    string
		attempt string
		code    string
	}{
		{"attempt not uuid", "attempt-1", "123456"},
		{"code too short", pending.AttemptID.String(), "12345"},
		{"code letters", pending.AttemptID.String(), "12a456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := te.ConfirmSecondFactor(ctx, "shape@example.com", tc.attempt, tc.code); !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestSecondFactorBoundToIdentity(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	pending := registerSecondFactor(t, te, "owner@example.com")
	code := te.lastCode(t, "owner@example.com")

	if _, err := te.ConfirmSecondFactor(ctx, "thief@example.com", pending.AttemptID.String(), code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for another identity, got %v", err)
	}
	if _, err := te.ConfirmSecondFactor(ctx, "owner@example.com", pending.AttemptID.String(), code); err != nil {
		t.Fatalf("owner confirmation failed: %v", err)
	}
}

func TestSecondFactorExpires(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	pending := registerSecondFactor(t, te, "late@example.com")
	code := te.lastCode(t, "late@example.com")

	te.clock.Advance(10 * time.Minute)

	_, err := te.ConfirmSecondFactor(context.Background(), "late@example.com", pending.AttemptID.String(), code)
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after expiry, got %v", err)
	}
}

func TestSecondFactorDeliveryFailure(t *testing.T) {
	te := newTestEngine(t, engineTestConfig(), func(b *Builder) { b.WithMetricsEnabled(true) })
	ctx := context.Background()

	if _, err := te.Register(ctx, "nomail@example.com", "password1", true); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	te.outbox.FailWith(errors.New("provider down"))
	if _, err := te.Authenticate(ctx, "nomail@example.com", "password1"); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if got := te.MetricsSnapshot().Counters[MetricDeliveryFailure]; got != 1 {
		t.Fatalf("expected one delivery failure, got %d", got)
	}

	te.outbox.FailWith(nil)
	res, err := te.Authenticate(ctx, "nomail@example.com", "password1")
	if err != nil {
		t.Fatalf("re-authentication failed: %v", err)
	}
	if res.State != StateSecondFactorPending {
		t.Fatalf("expected a new pending attempt, got %s", res.State)
	}
}

func TestSecondFactorCodeRateLimited(t *testing.T) {
	cfg := engineTestConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.EnableCodeThrottle = true
	cfg.RateLimit.MaxCodeAttempts = 2
	cfg.RateLimit.CodeCooldownDuration = time.Hour
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	pending := registerSecondFactor(t, te, "guess@example.com")
	attempt := pending.AttemptID.String()
	code := te.lastCode(t, "guess@example.com")

	for i := 0; i < 2; i++ {
		if _, err := te.ConfirmSecondFactor(ctx, "guess@example.com", attempt, wrongCode(code)); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("guess %d: expected ErrInvalidCode, got %v", i, err)
		}
	}
	if _, err := te.ConfirmSecondFactor(ctx, "guess@example.com", attempt, code); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after budget spent, got %v", err)
	}
}

func TestSecondFactorConcurrentConfirmSucceedsOnce(t *testing.T) {
	te := newTestEngine(t, engineTestConfig())
	pending := registerSecondFactor(t, te, "race@example.com")
	attempt := pending.AttemptID.String()
	code := te.lastCode(t, "race@example.com")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := te.ConfirmSecondFactor(context.Background(), "race@example.com", attempt, code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrChallengeNotFound):
				notFound++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if notFound != workers-1 {
		t.Fatalf("expected %d replays, got %d", workers-1, notFound)
	}
}
