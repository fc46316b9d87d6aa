package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
)

// ErrUnauthenticated is returned when the caller's credential is missing or invalid
var ErrUnauthenticated = goerr.New("unauthenticated")

// AuthUseCaseInterface resolves the caller identity of a request
type AuthUseCaseInterface interface {
	// ValidateToken verifies the credential presented with a request. In
	// no-auth mode the credential is the plain user id.
	ValidateToken(ctx context.Context, credential string) (*auth.Token, error)
	IsNoAuthn() bool
}

// jwtSkew is the clock skew tolerated on exp/nbf/iat
const jwtSkew = 10 * time.Second

// AuthUseCase verifies HS256 bearer tokens. The subject claim is the
// caller's employee id.
type AuthUseCase struct {
	secret []byte
	issuer string
}

type AuthOption func(*AuthUseCase)

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

func NewAuthUseCase(secret string, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{secret: []byte(secret)}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}

// ValidateToken parses and verifies a signed JWT
func (uc *AuthUseCase) ValidateToken(ctx context.Context, credential string) (*auth.Token, error) {
	raw := strings.TrimSpace(credential)
	if raw == "" {
		return nil, goerr.Wrap(ErrUnauthenticated, "token is required")
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(jwtSkew),
	}
	if uc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(uc.issuer))
	}

	token, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "failed to parse or verify JWT token", goerr.V("cause", err.Error()))
	}

	if token.Subject() == "" {
		return nil, goerr.Wrap(ErrUnauthenticated, "sub claim not found in token")
	}

	result := &auth.Token{Sub: token.Subject()}
	if v, ok := token.Get("email"); ok {
		result.Email, _ = v.(string)
	}
	if v, ok := token.Get("name"); ok {
		result.Name, _ = v.(string)
	}
	return result, nil
}

// IsNoAuthn returns false for AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}
