package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/identity"
)

type fakeVerifier struct {
	valid string
	err   error
}

func (f fakeVerifier) VerifyToken(_ context.Context, token string) (identity.Email, error) {
	if f.err != nil {
		return identity.Email{}, f.err
	}
	if token != f.valid {
		return identity.Email{}, authcore.ErrBadSignature
	}
	return identity.ParseEmail("guard@example.com")
}

func protected(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("identity missing from context")
		}
		_, _ = w.Write([]byte(who.String()))
	})
}

func TestGuardAcceptsBearer(t *testing.T) {
	h := Guard(fakeVerifier{valid: "good"}, "")(protected(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "guard@example.com" {
		t.Fatalf("expected 200 with identity, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardAcceptsCookie(t *testing.T) {
	h := Guard(fakeVerifier{valid: "good"}, "session")(protected(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardRejects(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not run")
	})

	cases := []struct {
		name   string
		v      Verifier
		header string
		want   int
	}{
		{"missing token", fakeVerifier{valid: "good"}, "", http.StatusUnauthorized},
		{"wrong scheme", fakeVerifier{valid: "good"}, "Basic good", http.StatusUnauthorized},
		{"bad token", fakeVerifier{valid: "good"}, "Bearer bad", http.StatusUnauthorized},
		{"nil verifier", nil, "Bearer good", http.StatusUnauthorized},
		{"backend down", fakeVerifier{err: authcore.ErrBackendUnavailable}, "Bearer good", http.StatusInternalServerError},
		{"expired", fakeVerifier{err: authcore.ErrExpiredToken}, "Bearer good", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			Guard(tc.v, "")(next).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestTokenFromRequestPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "bearer from-header")
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"})

	token, ok := TokenFromRequest(req, DefaultCookieName)
	if !ok || token != "from-header" {
		t.Fatalf("expected header token, got %q %v", token, ok)
	}

	req.Header.Del("Authorization")
	token, ok = TokenFromRequest(req, DefaultCookieName)
	if !ok || token != "from-cookie" {
		t.Fatalf("expected cookie token, got %q %v", token, ok)
	}
}
