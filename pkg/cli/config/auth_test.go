package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/cli/config"
)

func TestAuthConfigure(t *testing.T) {
	t.Run("secret is required without no-auth", func(t *testing.T) {
		_, err := config.NewAuthForTest("", "", false).Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("no-auth uses the default user", func(t *testing.T) {
		uc, err := config.NewAuthForTest("", "E100", true).Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, uc.IsNoAuthn()).True()

		tok, err := uc.ValidateToken(context.Background(), "")
		gt.NoError(t, err).Required()
		gt.String(t, tok.Sub).Equal("E100")
	})

	t.Run("jwt secret verifies tokens", func(t *testing.T) {
		uc, err := config.NewAuthForTest("s3cret", "", false).Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, uc.IsNoAuthn()).False()

		tok, err := jwt.NewBuilder().Subject("E200").Expiration(time.Now().Add(time.Hour)).Build()
		gt.NoError(t, err).Required()
		signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("s3cret")))
		gt.NoError(t, err).Required()

		got, err := uc.ValidateToken(context.Background(), string(signed))
		gt.NoError(t, err).Required()
		gt.String(t, got.Sub).Equal("E200")
	})
}

func TestSlackConfigure(t *testing.T) {
	t.Run("no bot token disables slack", func(t *testing.T) {
		cfg := config.NewSlackForTest("", "")
		svc, err := cfg.Configure()
		gt.NoError(t, err)
		gt.Value(t, svc).Nil()
		gt.Bool(t, cfg.IsConfigured()).False()
		gt.Bool(t, cfg.IsInteractionConfigured()).False()
	})

	t.Run("bot token creates the service", func(t *testing.T) {
		cfg := config.NewSlackForTest("xoxb-test", "signing")
		svc, err := cfg.Configure()
		gt.NoError(t, err)
		gt.Value(t, svc).NotNil()
		gt.Bool(t, cfg.IsInteractionConfigured()).True()
		gt.String(t, cfg.SigningSecret()).Equal("signing")
	})
}
