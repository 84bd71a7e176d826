// Package auth issues and checks the HS256 bearer tokens of the HTTP API.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
)

const issuer = "handsynth"

// Claims are the token claims.
type Claims struct {
	jwt.StandardClaims
}

type contextKey struct{}

// Issue signs a token for subject valid for ttl.
func Issue(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errs.Errorf(errs.Configuration, "auth.Issue", "jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse verifies a token and returns its claims.
func Parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.Errorf(errs.Validation, "auth.Parse", "unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Issuer != issuer {
		return nil, errs.Errorf(errs.Validation, "auth.Parse", "invalid token")
	}
	return claims, nil
}

// Subject returns the token subject of an authenticated request.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(contextKey{}).(string)
	return s
}

// Middleware rejects requests without a valid bearer token. An empty
// secret disables the check.
func Middleware(secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			w.Header().Set("WWW-Authenticate", `Bearer realm="handsynth"`)
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := Parse(secret, tokenString)
		if err != nil {
			log.Trace.Printf("rejected token: %v", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
