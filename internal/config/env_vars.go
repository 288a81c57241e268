package config

import (
	"os"
	"strconv"
)

const (
	envVar         = "ENV"
	appNameVar     = "APP_NAME"
	baseURLVar     = "API_BASE_URL"
	httpTimeoutVar = "HTTP_TIMEOUT_SECONDS"

	devBaseURL  = "http://localhost:5000"
	prodBaseURL = "https://api.civilshq.com"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "CivilsHQ")
}

// GetAPIBaseURL resolves the remote API origin once per process. The
// deployment environment picks the default; API_BASE_URL overrides both.
func (e EnvVars) GetAPIBaseURL() string {
	if url := os.Getenv(baseURLVar); url != "" {
		return url
	}
	if e.GetEnv() == "PROD" {
		return prodBaseURL
	}
	return devBaseURL
}

func (EnvVars) GetHTTPTimeoutSeconds() int {
	seconds, err := strconv.Atoi(GetEnv(httpTimeoutVar, "20"))
	if err != nil || seconds <= 0 {
		return 20
	}
	return seconds
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
