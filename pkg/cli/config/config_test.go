package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/cli/config"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "full configuration",
			content: `
[[probability]]
id = "rare"
name = "Rare"
score = 1

[[probability]]
id = "likely"
name = "Likely"
description = "Expected within a year"
score = 4

[[severity]]
id = "minor"
name = "Minor"
score = 1

[[department]]
id = "mech"
name = "Mechanical"

[[department]]
id = "ops"
name = "Operations"

[otp]
ttl = "10m"
digits = 8
max_attempts = 3
`,
		},
		{
			name:    "empty file uses defaults",
			content: ``,
		},
		{
			name: "score out of range",
			content: `
[[severity]]
id = "x"
name = "X"
score = 6
`,
			wantErr: config.ErrInvalidScore,
		},
		{
			name: "missing level name",
			content: `
[[probability]]
id = "x"
score = 2
`,
			wantErr: config.ErrMissingName,
		},
		{
			name: "duplicate score",
			content: `
[[probability]]
name = "A"
score = 2

[[probability]]
name = "B"
score = 2
`,
			wantErr: config.ErrDuplicateScore,
		},
		{
			name: "duplicate department",
			content: `
[[department]]
id = "ops"
name = "Operations"

[[department]]
id = "ops"
name = "Ops again"
`,
			wantErr: config.ErrDuplicateID,
		},
		{
			name: "department without id",
			content: `
[[department]]
name = "Nameless"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "invalid otp ttl",
			content: `
[otp]
ttl = "soon"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "otp digits too small",
			content: `
[otp]
digits = 3
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "broken TOML",
			content: `[[probability`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, cfg).NotNil()
		})
	}
}

func TestLoadAppConfigurationNotFound(t *testing.T) {
	_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestToDomainHazopConfig(t *testing.T) {
	path := writeConfig(t, `
[[probability]]
id = "likely"
name = "Likely"
score = 4

[[severity]]
id = "major"
name = "Major"
score = 3

[[department]]
id = "mech"
name = "Mechanical"

[otp]
ttl = "90s"
digits = 8
max_attempts = 2
`)

	hc, err := config.NewAppConfigForTest(path).Configure()
	gt.NoError(t, err).Required()

	gt.String(t, hc.ProbabilityLabel(types.Probability(4))).Equal("Likely")
	gt.String(t, hc.SeverityLabel(types.Severity(3))).Equal("Major")
	gt.Bool(t, hc.HasDepartment("mech")).True()
	gt.Bool(t, hc.HasDepartment("ops")).False()
	gt.Value(t, hc.OTP.TTL).Equal(90 * time.Second)
	gt.Number(t, hc.OTP.Digits).Equal(8)
	gt.Number(t, hc.OTP.MaxAttempts).Equal(2)
}

func TestConfigureWithoutPath(t *testing.T) {
	hc, err := config.NewAppConfigForTest("").Configure()
	gt.NoError(t, err).Required()
	gt.A(t, hc.Departments).Length(0)
	gt.Value(t, hc.OTP.TTL).Equal(time.Duration(0))
}
