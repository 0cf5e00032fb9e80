package auth

import (
	"context"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

type Config struct {
	Domain   string // e.g. your-tenant.us.auth0.com
	Audience string // e.g. https://sync.example.com
}

// Verifier validates RS256 tokens against the provider's JWKS.
type Verifier struct {
	cfg Config
	kf  keyfunc.Keyfunc
}

func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{
		"https://" + cfg.Domain + "/.well-known/jwks.json",
	})
	if err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg, kf: kf}, nil
}

type Claims struct {
	Sub   string
	Email string
	Name  string
}

func (v *Verifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithIssuer("https://" + v.cfg.Domain + "/"),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	tok, err := jwt.Parse(raw, v.kf.Keyfunc, opts...)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	mc, _ := tok.Claims.(jwt.MapClaims)
	return ClaimsFromMap(mc)
}

// ClaimsFromMap extracts the subject, email and name claims; sub is required.
func ClaimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	name, _ := mc["name"].(string)
	if sub == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &Claims{Sub: sub, Email: email, Name: name}, nil
}
