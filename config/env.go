package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "TICKSTAGE_"

// LoadEnv overrides C and Server from TICKSTAGE_* and TICKSTAGE_SERVER_*
// environment variables. Unset variables keep the init defaults.
func LoadEnv() error {
	if err := env.ParseWithOptions(C, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if err := env.ParseWithOptions(&Server, env.Options{Prefix: envPrefix + "SERVER_"}); err != nil {
		return fmt.Errorf("parse server env: %w", err)
	}
	return nil
}
