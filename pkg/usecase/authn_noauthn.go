package usecase

import (
	"context"
	"strings"

	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
)

// NoAuthnUseCase trusts the user id sent by the client (for development/testing)
type NoAuthnUseCase struct {
	defaultSub string
}

// NewNoAuthnUseCase creates a NoAuthnUseCase. defaultSub is used when a
// request carries no user id; empty means the anonymous user.
func NewNoAuthnUseCase(defaultSub string) *NoAuthnUseCase {
	return &NoAuthnUseCase{defaultSub: defaultSub}
}

// ValidateToken returns a token for the given user id
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, credential string) (*auth.Token, error) {
	sub := strings.TrimSpace(credential)
	if sub == "" {
		sub = uc.defaultSub
	}
	if sub == "" {
		return auth.NewAnonymousUser(), nil
	}
	return &auth.Token{Sub: sub}, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
