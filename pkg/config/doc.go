// Package config loads protorules settings from the environment.
//
// Variables are read with github.com/caarlos0/env/v11 after an optional
// .env file has been merged in with github.com/joho/godotenv. Values already
// present in the process environment win over .env entries.
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	log, err := cfg.Logger("protorules", os.Stderr)
//
// Recognised variables:
//
//	PROTORULES_ENV                 development | staging | production (dev, stage, prod)
//	PROTORULES_LOG_LEVEL           debug | info | warn | error
//	PROTORULES_LOG_FORMAT          json | text (defaults by environment)
//	PROTORULES_FAIL_FAST           stop at the first violation
//	PROTORULES_PROGRAM_CACHE_SIZE  compiled CEL programs kept in memory
//	PROTORULES_MAX_WORKERS         parallelism of registry-wide consistency checks
//
// Load is generic and caches one parsed value per type; Reload and
// ResetCache exist for tests and long-running processes that change their
// environment.
package config
