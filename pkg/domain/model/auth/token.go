package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// AnonymousUserID is the subject used when no identity is presented in
// no-auth mode
const AnonymousUserID = "anonymous"

var ErrNoToken = goerr.New("no auth token in context")

// Token is the verified identity of the caller
type Token struct {
	Sub   string
	Email string
	Name  string
}

// EmployeeID returns the subject as an employee id
func (t *Token) EmployeeID() types.EmployeeID {
	return types.EmployeeID(t.Sub)
}

// IsAnonymous reports whether the token carries no real identity
func (t *Token) IsAnonymous() bool {
	return t.Sub == AnonymousUserID
}

// NewAnonymousUser returns the token used in no-auth mode without X-User-ID
func NewAnonymousUser() *Token {
	return &Token{Sub: AnonymousUserID, Name: "Anonymous"}
}

type tokenContextKey struct{}

// ContextWithToken stores the token in ctx
func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the caller token or ErrNoToken
func TokenFromContext(ctx context.Context) (*Token, error) {
	token, ok := ctx.Value(tokenContextKey{}).(*Token)
	if !ok || token == nil {
		return nil, ErrNoToken
	}
	return token, nil
}

// ActorID returns the caller's employee id, or "" when ctx carries no token
func ActorID(ctx context.Context) types.EmployeeID {
	token, err := TokenFromContext(ctx)
	if err != nil {
		return ""
	}
	return token.EmployeeID()
}
