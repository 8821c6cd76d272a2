package main

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/model"
	"github.com/restlens/go-restlens/resolve"
)

var log = logging.Logger("restlens/cmd")

var (
	configFile string
	logLevel   string
)

// setup reads the environment, applies flag overrides and configures
// logging. Logs always go to stderr, since stdout may carry the LSP stream.
func setup() (config.Environment, error) {
	env, err := config.ProcessEnv()
	if err != nil {
		return config.Environment{}, err
	}
	if configFile != "" {
		env.Config = configFile
	}
	if logLevel != "" {
		env.LogLevel = logLevel
	}

	lvl, err := logging.LevelFromString(env.LogLevel)
	if err != nil {
		return config.Environment{}, fmt.Errorf("bad log level %q: %w", env.LogLevel, err)
	}
	logging.SetupLogging(logging.Config{
		Format: logging.PlaintextOutput,
		Stderr: true,
		Level:  lvl,
	})
	return env, nil
}

// loadProviders reads the provider file named in env. No file means no
// providers.
func loadProviders(env config.Environment) ([]model.Provider, error) {
	if env.Config == "" {
		return nil, nil
	}
	return config.Load(env.Config)
}

func newResolver(env config.Environment) (*resolve.Client, error) {
	return resolve.New(
		resolve.WithTimeout(env.Timeout),
		resolve.WithRetry(env.RetryMax, 0, 0),
	)
}
