package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/cli/config"
)

func TestConfigErrors_SentinelIdentification(t *testing.T) {
	sentinels := []error{
		config.ErrConfigNotFound,
		config.ErrInvalidConfig,
		config.ErrDuplicateID,
		config.ErrDuplicateScore,
		config.ErrInvalidScore,
		config.ErrMissingName,
	}

	for _, s := range sentinels {
		t.Run(s.Error(), func(t *testing.T) {
			err := goerr.Wrap(s, "wrapped", goerr.V(config.IDKey, "x"))
			gt.Bool(t, errors.Is(err, s)).True()

			for _, other := range sentinels {
				if other == s {
					continue
				}
				gt.Bool(t, errors.Is(err, other)).False()
			}
		})
	}
}

func TestConfigErrors_ContextValues(t *testing.T) {
	err := goerr.Wrap(config.ErrInvalidScore, "bad score",
		goerr.V(config.IDKey, "likely"),
		goerr.V(config.ScoreKey, 9),
	)

	var ge *goerr.Error
	gt.Bool(t, errors.As(err, &ge)).True()
	values := ge.Values()
	gt.Value(t, values[config.IDKey]).Equal("likely")
	gt.Value(t, values[config.ScoreKey]).Equal(9)
}
