package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	SecretsConfig
	DiscordConfig
	DatabaseConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetHashCost() int
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Secrets
	Discord
	Database
}

var _ Config = mainConfig{}

// New returns a Config backed by the process environment only.
func New() Config {
	return newMainConfig(source{})
}

// Load returns a Config backed by the process environment, falling back to the
// values of the YAML file at path. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config.Load] reading %s", path)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] parsing %s", path)
	}
	return newMainConfig(source{file: values}), nil
}

func newMainConfig(src source) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{src: src},
		Cors:     Cors{src: src},
		Secrets:  Secrets{src: src},
		Discord:  Discord{src: src},
		Database: Database{src: src},
	}
}

// Validate checks that every required value is present and well formed.
func (c mainConfig) Validate() error {
	if err := c.Secrets.validate(); err != nil {
		return err
	}
	if err := c.Discord.validate(); err != nil {
		return err
	}
	return c.Database.validate()
}

// source resolves a named value: environment first, then the optional file overlay.
type source struct {
	file map[string]string
}

func (s source) get(name, defaultValue string) string {
	if value := GetEnv(name, ""); value != "" {
		return value
	}
	if value, ok := s.file[name]; ok && value != "" {
		return value
	}
	return defaultValue
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
