package main

import (
	"fmt"
)

// runConfig prints the effective configuration as YAML.
func runConfig(args []string, env *Environment) error {
	f, rest, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %q", ErrUsage, rest)
	}

	cfg, _, err := loadSettings(*f, env, commandLogger(env, *f))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = env.Stdout.Write(data)
	return err
}
