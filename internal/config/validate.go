package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the fields required for a run mode: "analyze", "zones",
// or "serve". Errors are collected so the operator sees every problem at
// once.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Engine.MaxSupplyResults >= 1 && c.Engine.MaxSupplyResults <= 50,
		"engine.max_supply_results must be between 1 and 50")
	check(c.Engine.MaxRadiusMeters > 0, "engine.max_radius_meters must be > 0")
	check(c.Engine.DebounceMs >= 0, "engine.debounce_ms must be >= 0")
	check(c.Dataset.BatchSize > 0, "dataset.batch_size must be > 0")

	switch mode {
	case "analyze", "zones":
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
