package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthProvider supplies the bearer token for outgoing requests. Refresh is
// invoked by the transport after a 401 before the single retry; how a new
// token is obtained is the embedder's business.
type AuthProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// StaticAuthProvider serves a fixed token. Refresh is a no-op, so a 401
// with a static token is terminal.
type StaticAuthProvider struct {
	token string
}

func NewStaticAuthProvider(token string) *StaticAuthProvider {
	return &StaticAuthProvider{token: token}
}

func (p *StaticAuthProvider) Token(ctx context.Context) (string, error) {
	return p.token, nil
}

func (p *StaticAuthProvider) Refresh(ctx context.Context) error {
	return nil
}

// RefreshFunc obtains a fresh bearer token.
type RefreshFunc func(ctx context.Context) (string, error)

// JWTAuthProvider holds a JWT bearer token and refreshes it proactively
// when the exp claim is within the leeway window, in addition to the
// reactive 401 path. The token is parsed unverified; the client has no
// business validating the server's signature, only reading the deadline.
type JWTAuthProvider struct {
	mu      sync.Mutex
	token   string
	refresh RefreshFunc
	leeway  time.Duration
}

func NewJWTAuthProvider(token string, refresh RefreshFunc) *JWTAuthProvider {
	return &JWTAuthProvider{
		token:   token,
		refresh: refresh,
		leeway:  30 * time.Second,
	}
}

func (p *JWTAuthProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && !p.expiringSoon() {
		return p.token, nil
	}
	if err := p.refreshLocked(ctx); err != nil {
		return "", err
	}
	return p.token, nil
}

func (p *JWTAuthProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx)
}

func (p *JWTAuthProvider) refreshLocked(ctx context.Context) error {
	token, err := p.refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	p.token = token
	return nil
}

func (p *JWTAuthProvider) expiringSoon() bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(p.token, claims); err != nil {
		// Opaque token: nothing to inspect, rely on the 401 path.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < p.leeway
}
