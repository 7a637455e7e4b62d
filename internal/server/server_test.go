package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/metrics/export/prometheus"
)

type fixture struct {
	engine  *authcore.Engine
	outbox  *mail.Outbox
	handler http.Handler
}

func newFixture(t *testing.T, mutate ...func(*authcore.Config)) *fixture {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.Token.PrivateKey = []byte("server-test-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.RateLimit.Enabled = false
	for _, fn := range mutate {
		fn(&cfg)
	}

	outbox := mail.NewOutbox()
	engine, err := authcore.New().
		WithConfig(cfg).
		WithMailer(outbox).
		WithMetricsEnabled(true).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	srv := New(engine, Options{Metrics: prometheus.NewExporter(engine).Handler()})
	return &fixture{engine: engine, outbox: outbox, handler: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (f *fixture) lastCode(t *testing.T, email string) string {
	t.Helper()
	addr, err := identity.ParseEmail(email)
	require.NoError(t, err)
	msg, ok := f.outbox.Last(addr)
	require.True(t, ok, "no message for %s", email)
	code := codePattern.FindString(msg.TextBody)
	require.NotEmpty(t, code)
	return code
}

func signupBody(email string, twoFA bool) map[string]any {
	return map[string]any{"email": email, "password": "password123", "requires2FA": twoFA}
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/heartbeat", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", rec.Body.String())
}

func TestSignup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/signup", signupBody("new@example.com", false))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/signup", signupBody("new@example.com", true))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/signup", signupBody("not-an-email", false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/signup", map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/signup", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSetsCookieAndVerifies(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("user@example.com", false)).Code)

	rec := f.do(t, http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	rec = f.do(t, http.MethodPost, "/verify-token", map[string]string{"token": cookie.Value})
	require.Equal(t, http.StatusOK, rec.Code)
	var body identityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user@example.com", body.Identity)

	rec = f.do(t, http.MethodGet, "/me", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("user@example.com", false)).Code)

	wrong := f.do(t, http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "password999"})
	unknown := f.do(t, http.MethodPost, "/login", map[string]string{"email": "ghost@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec := f.do(t, http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, func(c *authcore.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.MaxLoginAttempts = 1
		c.RateLimit.LoginCooldownDuration = time.Hour
	})
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("busy@example.com", false)).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/login", map[string]string{"email": "busy@example.com", "password": "password999"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/login", map[string]string{"email": "busy@example.com", "password": "password123"}).Code)
}

func TestSecondFactorFlow(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("mfa@example.com", true)).Code)

	rec := f.do(t, http.MethodPost, "/login", map[string]string{"email": "mfa@example.com", "password": "password123"})
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	var pending secondFactorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.NotEmpty(t, pending.AttemptID)
	code := f.lastCode(t, "mfa@example.com")

	rec = f.do(t, http.MethodPost, "/verify-2fa", map[string]string{
		"email": "mfa@example.com", "loginAttemptId": pending.AttemptID, "2FACode": "000000",
	})
	if code != "000000" {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/verify-2fa", map[string]string{
		"email": "mfa@example.com", "loginAttemptId": pending.AttemptID, "2FACode": code,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionCookie(t, rec)

	rec = f.do(t, http.MethodPost, "/verify-2fa", map[string]string{
		"email": "mfa@example.com", "loginAttemptId": pending.AttemptID, "2FACode": code,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "replayed code must be rejected")

	rec = f.do(t, http.MethodPost, "/verify-2fa", map[string]string{"email": "mfa@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("out@example.com", false)).Code)
	cookie := sessionCookie(t, f.do(t, http.MethodPost, "/login", map[string]string{"email": "out@example.com", "password": "password123"}))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/logout", nil, &http.Cookie{Name: "jwt", Value: "garbage"}).Code)

	rec := f.do(t, http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/logout", nil, cookie).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/verify-token", map[string]string{"token": cookie.Value}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/me", nil, cookie).Code)
}

func TestLogoutAcceptsBearer(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("bearer@example.com", false)).Code)
	cookie := sessionCookie(t, f.do(t, http.MethodPost, "/login", map[string]string{"email": "bearer@example.com", "password": "password123"}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyTokenRejects(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/verify-token", map[string]string{"token": "  "}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/verify-token", map[string]string{}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/verify-token", map[string]string{"token": "a.b.c"}).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/signup", signupBody("m@example.com", false)).Code)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "authcore_register_success_total 1"), rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	srv := New(f.engine, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0", time.Second, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
