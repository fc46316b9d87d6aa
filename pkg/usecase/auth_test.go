package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, build func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()
	tok, err := build(jwt.NewBuilder()).Build()
	gt.NoError(t, err).Required()
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestAuthUseCase_ValidateToken(t *testing.T) {
	uc := usecase.NewAuthUseCase(testSecret, usecase.WithIssuer("hazop-test"))
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		raw := signToken(t, testSecret, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("U_ALICE").Issuer("hazop-test").
				Expiration(time.Now().Add(time.Hour)).
				Claim("email", "alice@example.com").Claim("name", "Alice")
		})

		token, err := uc.ValidateToken(ctx, raw)
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal("U_ALICE")
		gt.Value(t, token.Email).Equal("alice@example.com")
		gt.Value(t, token.Name).Equal("Alice")
		gt.Bool(t, uc.IsNoAuthn()).False()
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"empty", func(t *testing.T) string { return "" }},
		{"garbage", func(t *testing.T) string { return "not-a-jwt" }},
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, "other-secret", func(b *jwt.Builder) *jwt.Builder {
				return b.Subject("U_ALICE").Issuer("hazop-test")
			})
		}},
		{"expired", func(t *testing.T) string {
			return signToken(t, testSecret, func(b *jwt.Builder) *jwt.Builder {
				return b.Subject("U_ALICE").Issuer("hazop-test").Expiration(time.Now().Add(-time.Hour))
			})
		}},
		{"wrong issuer", func(t *testing.T) string {
			return signToken(t, testSecret, func(b *jwt.Builder) *jwt.Builder {
				return b.Subject("U_ALICE").Issuer("someone-else")
			})
		}},
		{"missing subject", func(t *testing.T) string {
			return signToken(t, testSecret, func(b *jwt.Builder) *jwt.Builder {
				return b.Issuer("hazop-test")
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ValidateToken(ctx, tt.token(t))
			gt.Error(t, err).Is(usecase.ErrUnauthenticated)
		})
	}
}
