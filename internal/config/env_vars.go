package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envEnvVar      = "ENV"
	hashCostEnvVar = "HASH_COST"

	defaultHashCost = 10
)

type EnvVars struct {
	src source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "Botlist Auth")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envEnvVar, "DEV")
}

// GetHashCost returns the bcrypt cost, falling back to 10 on missing or bad input.
func (e EnvVars) GetHashCost() int {
	cost, err := strconv.Atoi(e.src.get(hashCostEnvVar, ""))
	if err != nil || cost <= 0 {
		return defaultHashCost
	}
	return cost
}
