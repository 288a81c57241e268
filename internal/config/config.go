package config

import (
	"log"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	SessionConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetAPIBaseURL() string
	GetHTTPTimeoutSeconds() int
}

type SessionConfig interface {
	GetDataFolder() string
	GetSessionHashKey() []byte
	GetSessionBlockKey() []byte
}

type mainConfig struct {
	EnvVars
	Session
}

func New() Config {
	return mainConfig{}
}

// Load reads a .env file if one is present and returns the configuration.
// A missing .env file is not an error; plain environment variables apply.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	return New()
}
