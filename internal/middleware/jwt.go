// Package middleware provides HTTP middleware that authenticates callers and
// attaches their tenant context to the request.
package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"tenantsql/internal/config"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Raw      map[string]any
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// OIDCValidator validates JWTs using OIDC discovery and JWKS.
type OIDCValidator struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
}

// HS256Validator validates JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret         []byte
	audience       string
	allowedIssuers map[string]bool
}

// NewValidator builds the validator described by the auth configuration.
// An OIDC issuer takes precedence over a shared secret.
func NewValidator(ctx context.Context, cfg config.AuthConfig) (JWTValidator, error) {
	switch {
	case cfg.OIDCEnabled():
		return NewOIDCValidator(ctx, cfg.IssuerURL, cfg.Audience, cfg.AllowedIssuers)
	case cfg.JWTSecret != "":
		return NewHS256Validator(cfg.JWTSecret, cfg.Audience, cfg.AllowedIssuers)
	default:
		return nil, errors.New("no JWT validator configured")
	}
}

// NewOIDCValidator creates a validator from an OIDC issuer URL.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{
		ClientID: audience,
	})
	issuers := issuerSet(allowedIssuers)
	if len(issuers) == 0 {
		issuers[issuerURL] = true
	}
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuers}, nil
}

// NewHS256Validator creates a validator for shared-secret tokens. An empty
// audience or issuer list disables the corresponding check.
func NewHS256Validator(secret, audience string, allowedIssuers []string) (*HS256Validator, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &HS256Validator{
		secret:         []byte(secret),
		audience:       audience,
		allowedIssuers: issuerSet(allowedIssuers),
	}, nil
}

func issuerSet(issuers []string) map[string]bool {
	m := make(map[string]bool, len(issuers))
	for _, iss := range issuers {
		m[iss] = true
	}
	return m
}

// Validate verifies the JWT using the OIDC provider's JWKS.
func (v *OIDCValidator) Validate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", idToken.Issuer)
	}

	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &JWTClaims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Raw:      raw,
	}, nil
}

// Validate verifies a JWT signed with HS256 and extracts claims.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &JWTClaims{Raw: map[string]any(raw)}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := raw["iss"].(string); ok {
		claims.Issuer = iss
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[claims.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", claims.Issuer)
	}

	switch aud := raw["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}

	return claims, nil
}
