package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, as in RESTLENS_TIMEOUT.
const EnvPrefix = "restlens"

// Environment holds settings read from the environment.
type Environment struct {
	// Config is the provider file path.
	Config string `default:""`
	// LogLevel is the go-log level for all restlens loggers.
	LogLevel string `default:"info" split_words:"true"`
	// Timeout bounds each lens request.
	Timeout time.Duration `default:"15s"`
	// TTL is how long a resolved lens is reused. Zero keeps it until the
	// cache is cleared.
	TTL time.Duration `default:"0s"`
	// ErrorTTL is how long a failed lens is shown before it is requested again.
	ErrorTTL time.Duration `default:"0s" split_words:"true"`
	// RefreshDelay is the refresh coalescing window.
	RefreshDelay time.Duration `default:"100ms" split_words:"true"`
	// RetryMax is the number of retries for failed lens requests.
	RetryMax int `default:"0" split_words:"true"`
	// MetricsAddr, if set, is the listen address of the metrics endpoint.
	MetricsAddr string `default:"" split_words:"true"`
}

// ProcessEnv reads the environment.
func ProcessEnv() (Environment, error) {
	var env Environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Environment{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return env, nil
}
