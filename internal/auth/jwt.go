// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/sharaka/internal/config"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/middleware"
)

// Verifier checks access tokens issued by the auth provider, either with
// the project's shared HS256 secret or against the provider's JWKS.
type Verifier struct {
	secret   []byte
	keys     jwk.Set
	audience string
	skew     time.Duration
}

func NewVerifier(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	if cfg.JWKSURL != "" {
		keys, err := jwk.Fetch(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		return NewKeySetVerifier(keys, cfg.Audience), nil
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("no jwt secret or jwks url configured")
	}
	return NewSecretVerifier([]byte(cfg.JWTSecret), cfg.Audience), nil
}

func NewSecretVerifier(secret []byte, audience string) *Verifier {
	return &Verifier{secret: secret, audience: audience, skew: 5 * time.Second}
}

func NewKeySetVerifier(keys jwk.Set, audience string) *Verifier {
	return &Verifier{keys: keys, audience: audience, skew: 5 * time.Second}
}

func (v *Verifier) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	opts := []jwt.ParseOption{
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	}
	if v.keys != nil {
		opts = append(opts, jwt.WithKeySet(v.keys, jws.WithInferAlgorithmFromKey(true)))
	} else {
		opts = append(opts, jwt.WithKey(jwa.HS256(), v.secret))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	claims := &middleware.AccessTokenClaims{
		UserID: subject,
		Role:   RoleUser,
	}

	var email string
	if err := token.Get("email", &email); err == nil {
		claims.Email = email
	}

	var appMetadata map[string]any
	if err := token.Get("app_metadata", &appMetadata); err == nil {
		if role, ok := appMetadata["role"].(string); ok && role != "" {
			claims.Role = role
		}
	}

	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
