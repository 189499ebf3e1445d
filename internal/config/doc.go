// Package config loads the panel configuration from environment variables.
//
// Every setting has an environment variable and, where sensible, a default.
// The serve command layers its flags on top: a flag that was set explicitly
// wins over the environment.
//
// # Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
