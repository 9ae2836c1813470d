package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredentials means the request carries nothing this authenticator
// understands; the chain moves on to the next one.
var ErrNoCredentials = errors.New("no credentials")

// Authenticator identifies the caller of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Principal, error)
}

// Chain tries each authenticator in order and returns the first principal.
type Chain []Authenticator

// Authenticate implements Authenticator. The last non-ErrNoCredentials
// failure is returned when no authenticator accepts the request.
func (c Chain) Authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	lastErr := ErrNoCredentials
	for _, a := range c {
		p, err := a.Authenticate(ctx, r)
		if err == nil && p != nil {
			return p, nil
		}
		if err != nil && !errors.Is(err, ErrNoCredentials) {
			lastErr = err
		}
	}
	return nil, lastErr
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

// JWTConfig configures HS256 session tokens.
type JWTConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// sessionClaims are the claims of a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	WorkspaceID string `json:"workspace_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
}

// JWTAuthenticator accepts HS256 bearer tokens signed with a shared secret.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWT authenticator.
func NewJWTAuthenticator(cfg JWTConfig) (*JWTAuthenticator, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTAuthenticator{secret: []byte(cfg.Secret), parser: jwt.NewParser(opts...)}, nil
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Principal, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, ErrNoCredentials
	}

	var claims sessionClaims
	_, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("jwt: missing subject")
	}
	return &Principal{
		UserID:      claims.Subject,
		WorkspaceID: claims.WorkspaceID,
		Email:       claims.Email,
		Role:        claims.Role,
		Method:      "jwt",
	}, nil
}

// Sign issues a session token for p. Used by tooling and tests.
func (a *JWTAuthenticator) Sign(p Principal, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		WorkspaceID: p.WorkspaceID,
		Email:       p.Email,
		Role:        p.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// OIDCConfig contains configuration for OIDC bearer tokens.
type OIDCConfig struct {
	IssuerURL      string
	ClientID       string
	WorkspaceClaim string
	AdminGroup     string
}

// OIDCAuthenticator accepts ID tokens from an OpenID Connect issuer.
type OIDCAuthenticator struct {
	verifier       *oidc.IDTokenVerifier
	workspaceClaim string
	adminGroup     string
}

// NewOIDCAuthenticator discovers the issuer and builds a verifier.
func NewOIDCAuthenticator(ctx context.Context, cfg OIDCConfig) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return NewOIDCAuthenticatorWithVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), cfg), nil
}

// NewOIDCAuthenticatorWithVerifier wraps an existing verifier.
func NewOIDCAuthenticatorWithVerifier(v *oidc.IDTokenVerifier, cfg OIDCConfig) *OIDCAuthenticator {
	if cfg.WorkspaceClaim == "" {
		cfg.WorkspaceClaim = "workspace_id"
	}
	return &OIDCAuthenticator{verifier: v, workspaceClaim: cfg.WorkspaceClaim, adminGroup: cfg.AdminGroup}
}

// Authenticate implements Authenticator.
func (a *OIDCAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, ErrNoCredentials
	}
	idToken, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("oidc: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc claims: %w", err)
	}

	p := &Principal{UserID: idToken.Subject, Role: "member", Method: "oidc"}
	p.Email, _ = claims["email"].(string)
	p.WorkspaceID, _ = claims[a.workspaceClaim].(string)
	if groups, ok := claims["groups"].([]any); ok && a.adminGroup != "" {
		for _, g := range groups {
			if s, _ := g.(string); s == a.adminGroup {
				p.Role = "admin"
				break
			}
		}
	}
	return p, nil
}
