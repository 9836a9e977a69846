package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMissingTarget(t *testing.T) {
	cfg := Default()
	cfg.MaxRequests = 10
	err := cfg.Validate()
	require.ErrorContains(t, err, "config_invalid")
	require.ErrorContains(t, err, "Target")
}

func TestValidateRejectsUnrecognizedRateType(t *testing.T) {
	cfg := Default()
	cfg.Target = "http://localhost:8000"
	cfg.MaxRequests = 10
	cfg.RateType = "bogus"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresPositiveRateForConstant(t *testing.T) {
	cfg := Default()
	cfg.Target = "http://localhost:8000"
	cfg.MaxRequests = 10
	cfg.RateType = RateConstant
	cfg.Rate = 0

	err := cfg.Validate()
	require.ErrorContains(t, err, "Rate")
}

func TestValidateRequiresDurationOrRequestCap(t *testing.T) {
	cfg := Default()
	cfg.Target = "http://localhost:8000"

	err := cfg.Validate()
	require.ErrorContains(t, err, "MaxSeconds")
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := Default()
	cfg.Target = "http://localhost:8000"
	cfg.MaxRequests = 100
	require.NoError(t, cfg.Validate())
}
