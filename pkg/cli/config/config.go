package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/hazop/pkg/domain/model/config"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	Probability []Level      `toml:"probability"`
	Severity    []Level      `toml:"severity"`
	Departments []Department `toml:"department"`
	OTP         OTP          `toml:"otp"`

	path string
}

// Level labels one score (1..5) of the probability or severity scale
type Level struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// Validate checks if the Level is valid
func (l *Level) Validate() error {
	if l.Name == "" {
		return goerr.Wrap(ErrMissingName, "level name is required", goerr.V(IDKey, l.ID))
	}
	if l.Score < 1 || l.Score > 5 {
		return goerr.Wrap(ErrInvalidScore, "level score must be between 1 and 5",
			goerr.V(IDKey, l.ID), goerr.V(ScoreKey, l.Score))
	}
	return nil
}

// Department is a responsible department recommendations can be routed to
type Department struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Validate checks if the Department is valid
func (d *Department) Validate() error {
	if d.ID == "" {
		return goerr.Wrap(ErrInvalidConfig, "department id is required", goerr.V("name", d.Name))
	}
	if d.Name == "" {
		return goerr.Wrap(ErrMissingName, "department name is required", goerr.V(IDKey, d.ID))
	}
	return nil
}

// OTP holds one-time passcode settings. Zero values use the defaults.
type OTP struct {
	TTL         string `toml:"ttl"`
	Digits      int    `toml:"digits"`
	MaxAttempts int    `toml:"max_attempts"`
}

func (o *OTP) ttl() (time.Duration, error) {
	if o.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(o.TTL)
	if err != nil || d <= 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "otp ttl must be a positive duration", goerr.V("ttl", o.TTL))
	}
	return d, nil
}

// Validate checks if the OTP settings are valid
func (o *OTP) Validate() error {
	if _, err := o.ttl(); err != nil {
		return err
	}
	if o.Digits != 0 && (o.Digits < 4 || o.Digits > 10) {
		return goerr.Wrap(ErrInvalidConfig, "otp digits must be between 4 and 10", goerr.V("digits", o.Digits))
	}
	if o.MaxAttempts < 0 {
		return goerr.Wrap(ErrInvalidConfig, "otp max_attempts must not be negative", goerr.V("max_attempts", o.MaxAttempts))
	}
	return nil
}

func validateLevels(kind string, levels []Level) error {
	ids := make(map[string]bool)
	scores := make(map[int]bool)
	for _, l := range levels {
		if err := l.Validate(); err != nil {
			return goerr.Wrap(err, "invalid "+kind+" level")
		}
		if l.ID != "" {
			if ids[l.ID] {
				return goerr.Wrap(ErrDuplicateID, "duplicate "+kind+" ID", goerr.V(IDKey, l.ID))
			}
			ids[l.ID] = true
		}
		if scores[l.Score] {
			return goerr.Wrap(ErrDuplicateScore, "duplicate "+kind+" score", goerr.V(ScoreKey, l.Score))
		}
		scores[l.Score] = true
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := validateLevels("probability", a.Probability); err != nil {
		return err
	}
	if err := validateLevels("severity", a.Severity); err != nil {
		return err
	}

	deptIDs := make(map[string]bool)
	for _, d := range a.Departments {
		if err := d.Validate(); err != nil {
			return goerr.Wrap(err, "invalid department")
		}
		if deptIDs[d.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate department ID", goerr.V(IDKey, d.ID))
		}
		deptIDs[d.ID] = true
	}

	if err := a.OTP.Validate(); err != nil {
		return goerr.Wrap(err, "invalid otp settings")
	}
	return nil
}

// Flags returns CLI flags for the application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file (risk labels, departments, OTP)",
			Sources:     cli.EnvVars("HAZOP_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the configuration file given by --config. Without a file
// the built-in defaults are used.
func (a *AppConfig) Configure() (*domainConfig.HazopConfig, error) {
	if a.path == "" {
		return (&AppConfig{}).ToDomainHazopConfig()
	}

	loaded, err := LoadAppConfiguration(a.path)
	if err != nil {
		return nil, err
	}
	return loaded.ToDomainHazopConfig()
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToDomainHazopConfig converts AppConfig to the domain HazopConfig
func (a *AppConfig) ToDomainHazopConfig() (*domainConfig.HazopConfig, error) {
	ttl, err := a.OTP.ttl()
	if err != nil {
		return nil, err
	}

	probability := make([]domainConfig.ProbabilityLevel, len(a.Probability))
	for i, l := range a.Probability {
		probability[i] = domainConfig.ProbabilityLevel{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Score:       types.Probability(l.Score),
		}
	}

	severity := make([]domainConfig.SeverityLevel, len(a.Severity))
	for i, l := range a.Severity {
		severity[i] = domainConfig.SeverityLevel{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Score:       types.Severity(l.Score),
		}
	}

	departments := make([]domainConfig.Department, len(a.Departments))
	for i, d := range a.Departments {
		departments[i] = domainConfig.Department{ID: d.ID, Name: d.Name}
	}

	return &domainConfig.HazopConfig{
		Probability: probability,
		Severity:    severity,
		Departments: departments,
		OTP: domainConfig.OTP{
			TTL:         ttl,
			Digits:      a.OTP.Digits,
			MaxAttempts: a.OTP.MaxAttempts,
		},
	}, nil
}
