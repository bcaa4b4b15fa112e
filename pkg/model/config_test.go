package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	yamlBytes := []byte("ca_name: acme-ca\ndomain: acme.example\n")
	cfg, err := Load(yamlBytes)
	require.NoError(t, err)

	assert.Equal(t, "acme-ca", cfg.CAName)
	assert.Equal(t, "acme.example", cfg.Domain)
	assert.Equal(t, "10 years", cfg.RootValidity)
}

func TestLoad_RejectsMissingRequiredField(t *testing.T) {
	_, err := Load([]byte("domain: acme.example\n"))
	assert.Error(t, err)
}

func TestValidate_RejectsOutOfRangeThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CAName = "acme-ca"
	cfg.Trust.FileTransfer = 1.5

	assert.Error(t, Validate(cfg))
}
