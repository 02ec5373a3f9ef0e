package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Settings is the settings provider for the control plane.
type Settings struct {
	NatsURL             string        `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	LogLevel            string        `env:"DEPLOYCTL_LOG_LEVEL" envDefault:"error"`
	AbortSetVarDeadline time.Duration `env:"DEPLOYCTL_ABORT_DEADLINE" envDefault:"30s"`
	AbortPollInterval   time.Duration `env:"DEPLOYCTL_ABORT_POLL_INTERVAL" envDefault:"1s"`
}

// GetEnvironment pulls the active settings into a settings struct.
func GetEnvironment() (*Settings, error) {
	cfg := &Settings{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment settings: %w", err)
	}
	return cfg, nil
}
