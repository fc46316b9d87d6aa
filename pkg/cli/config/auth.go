package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for request authentication
type Auth struct {
	jwtSecret string
	jwtIssuer string
	noAuthUID string
	noAuth    bool
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret used to verify bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HAZOP_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Required iss claim of bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HAZOP_JWT_ISSUER"),
			Destination: &x.jwtIssuer,
		},
		&cli.BoolFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and take the caller from the X-User-ID header (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HAZOP_NO_AUTH"),
			Destination: &x.noAuth,
		},
		&cli.StringFlag{
			Name:        "no-auth-user",
			Usage:       "Employee ID used in no-auth mode when X-User-ID is absent",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HAZOP_NO_AUTH_USER"),
			Destination: &x.noAuthUID,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("jwt-issuer", x.jwtIssuer),
		slog.Bool("no-auth", x.noAuth),
	)
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuth
}

// Configure returns the JWT verifier, or the no-auth resolver when --no-auth
// is set. One of the two is required.
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuth {
		if x.jwtSecret != "" {
			slog.Warn("--no-auth is set, ignoring --jwt-secret")
		}
		return usecase.NewNoAuthnUseCase(x.noAuthUID), nil
	}

	if x.jwtSecret == "" {
		return nil, goerr.New("authentication is required: set --jwt-secret, or use --no-auth for development")
	}

	var opts []usecase.AuthOption
	if x.jwtIssuer != "" {
		opts = append(opts, usecase.WithIssuer(x.jwtIssuer))
	}
	return usecase.NewAuthUseCase(x.jwtSecret, opts...), nil
}
