package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/identity"
)

// DefaultCookieName is the cookie the login handlers set.
const DefaultCookieName = "jwt"

// Verifier checks a session token. *authcore.Engine satisfies it.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (identity.Email, error)
}

type identityContextKey struct{}

// IdentityFromContext returns the identity Guard attached to ctx.
func IdentityFromContext(ctx context.Context) (identity.Email, bool) {
	who, ok := ctx.Value(identityContextKey{}).(identity.Email)
	return who, ok
}

// Guard rejects requests without a valid session token and passes the
// verified identity to next through the request context. The token is taken
// from the Authorization bearer header, falling back to the named cookie.
func Guard(v Verifier, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := TokenFromRequest(r, cookieName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			who, err := v.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, authcore.ErrBackendUnavailable) {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, who)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts a session token from the Authorization header
// or, failing that, from the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
