package config

import "github.com/pkg/errors"

const (
	discordClientIDEnvVar     = "DISCORD_CLIENT_ID"
	discordClientSecretEnvVar = "DISCORD_CLIENT_SECRET"
	discordRedirectURIEnvVar  = "DISCORD_REDIRECT_URI"
	discordAPIBaseEnvVar      = "DISCORD_API_BASE_URL"
)

type DiscordConfig interface {
	GetDiscordClientID() string
	GetDiscordClientSecret() string
	GetDiscordRedirectURI() string
	GetDiscordAPIBaseURL() string
}

type Discord struct {
	src source
}

var _ DiscordConfig = Discord{}

func (d Discord) GetDiscordClientID() string {
	return d.src.get(discordClientIDEnvVar, "")
}

func (d Discord) GetDiscordClientSecret() string {
	return d.src.get(discordClientSecretEnvVar, "")
}

func (d Discord) GetDiscordRedirectURI() string {
	return d.src.get(discordRedirectURIEnvVar, "")
}

// GetDiscordAPIBaseURL is overridable so a local fake provider can be used.
func (d Discord) GetDiscordAPIBaseURL() string {
	return d.src.get(discordAPIBaseEnvVar, "https://discord.com/api")
}

func (d Discord) validate() error {
	required := []struct{ name, value string }{
		{discordClientIDEnvVar, d.GetDiscordClientID()},
		{discordClientSecretEnvVar, d.GetDiscordClientSecret()},
		{discordRedirectURIEnvVar, d.GetDiscordRedirectURI()},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("[config.Validate] %s is required", r.name)
		}
	}
	return nil
}
