package config

import "github.com/pkg/errors"

const (
	accessSecretEnvVar  = "JWT_SECRET_KEY"
	refreshSecretEnvVar = "JWT_REFRESH_SECRET_KEY"
	apiKeySecretEnvVar  = "JWT_APIKEY_SECRET_KEY"
	internalKeyEnvVar   = "INTERNAL_KEY"

	// SecretLength is the exact length every JWT secret must have.
	SecretLength = 32
)

type SecretsConfig interface {
	GetAccessSecret() string
	GetRefreshSecret() string
	GetAPIKeySecret() string
	GetInternalKey() string
}

type Secrets struct {
	src source
}

var _ SecretsConfig = Secrets{}

func (s Secrets) GetAccessSecret() string {
	return s.src.get(accessSecretEnvVar, "")
}

func (s Secrets) GetRefreshSecret() string {
	return s.src.get(refreshSecretEnvVar, "")
}

func (s Secrets) GetAPIKeySecret() string {
	return s.src.get(apiKeySecretEnvVar, "")
}

// GetInternalKey returns the shared key for service-to-service calls. Empty disables it.
func (s Secrets) GetInternalKey() string {
	return s.src.get(internalKeyEnvVar, "")
}

func (s Secrets) validate() error {
	secrets := map[string]string{
		accessSecretEnvVar:  s.GetAccessSecret(),
		refreshSecretEnvVar: s.GetRefreshSecret(),
		apiKeySecretEnvVar:  s.GetAPIKeySecret(),
	}
	for _, name := range []string{accessSecretEnvVar, refreshSecretEnvVar, apiKeySecretEnvVar} {
		if len(secrets[name]) != SecretLength {
			return errors.Errorf("[config.Validate] %s must be exactly %d characters", name, SecretLength)
		}
	}
	return nil
}
