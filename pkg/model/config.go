// Package model holds the configuration-free core's one piece of
// configuration: per-instance initial settings.
package model

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the per-instance configuration accepted by the CA Engine and
// Trust Graph evaluator. The core is otherwise configuration-free.
type Config struct {
	// CAName is a human-readable label for this instance's CA, stored as
	// the root certificate's name claim, which becomes the issuer name of
	// the root's exported Verifiable Credential.
	CAName string `yaml:"ca_name" envconfig:"CA_NAME" validate:"required"`

	// Domain is the logical namespace this instance operates in, used to
	// scope certificate ids (opaque to the core itself).
	Domain string `yaml:"domain" envconfig:"DOMAIN"`

	// RootValidity is the default validity duration for a freshly created
	// root certificate.
	RootValidity string `yaml:"root_validity" envconfig:"ROOT_VALIDITY" validate:"required"`

	// DefaultCertValidity is used when an issue request omits validity.
	DefaultCertValidity string `yaml:"default_cert_validity" envconfig:"DEFAULT_CERT_VALIDITY"`

	// AuditRetention is the retention window for audit pruning.
	// audit.Log.Prune takes its window as an argument; nothing in the core
	// reads this field or prunes on its own.
	AuditRetention time.Duration `yaml:"audit_retention" envconfig:"AUDIT_RETENTION"`

	// Trust holds the context thresholds used by the trust evaluator.
	Trust TrustThresholds `yaml:"trust"`
}

// TrustThresholds are the per-context minimum trust levels (compared
// against the evaluated level, not its confidence) consulted by the trust
// evaluator's final threshold check.
type TrustThresholds struct {
	FileTransfer  float64 `yaml:"file_transfer" validate:"omitempty,min=0,max=1"`
	Communication float64 `yaml:"communication" validate:"omitempty,min=0,max=1"`
}

// DefaultTrustThresholds returns the stock per-context thresholds.
func DefaultTrustThresholds() TrustThresholds {
	return TrustThresholds{
		FileTransfer:  0.7,
		Communication: 0.5,
	}
}

// DefaultConfig returns a Config with stock defaults; callers override
// CAName/Domain.
func DefaultConfig() *Config {
	return &Config{
		RootValidity:        "10 years",
		DefaultCertValidity: "1 year",
		AuditRetention:      365 * 24 * time.Hour,
		Trust:               DefaultTrustThresholds(),
	}
}

var validate = validator.New()

// Load builds a Config from yaml bytes, overlays environment variables
// named by the envconfig tags (no prefix, e.g. CA_NAME), and validates the
// result.
func Load(yamlBytes []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(yamlBytes) > 0 {
		if err := yaml.Unmarshal(yamlBytes, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg against its `validate` struct tags.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
