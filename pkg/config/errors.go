package config

import "errors"

var (
	ErrNilPointer      = errors.New("config.nil_pointer")
	ErrParsingConfig   = errors.New("config.parse_env")
	ErrConfigNotLoaded = errors.New("config.not_loaded")
	ErrReadingFile     = errors.New("config.read_file")
	ErrParsingYAML     = errors.New("config.parse_yaml")
)
