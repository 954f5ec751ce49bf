// Package config loads process configuration from the environment and
// YAML files.
//
// Load parses environment variables into a struct with caarlos0/env tags.
// A .env file is read through godotenv before the first parse, and every
// configuration type is parsed once per process:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// LoadYAML decodes YAML files with gopkg.in/yaml.v3 after expanding ${VAR}
// references and rejects unknown fields. The command catalog is read this
// way.
//
// Errors are sentinels (ErrParsingConfig, ErrParsingYAML, ErrReadingFile)
// joined with the underlying cause.
package config
