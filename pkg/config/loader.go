package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// cache keeps one parsed value per configuration type.
type cache struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	loaded = &cache{values: make(map[reflect.Type]any)}

	dotenvOnce sync.Once
)

// Load parses environment variables into v using caarlos0/env tags. A
// .env file in the working directory is read once before the first parse.
// Each type is parsed once per process; later calls copy the cached value.
//
//	type ServerConfig struct {
//		Addr string `env:"BOUNDSEC_HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	loaded.mu.Lock()
	defer loaded.mu.Unlock()
	if cached, ok := loaded.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	loaded.values[key] = parsed
	*v = parsed
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("load configuration: %v", err))
	}
}

// LoadEnvFiles reads dotenv files into the process environment without
// overriding variables that are already set.
func LoadEnvFiles(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	return nil
}

// LoadYAML decodes a YAML file into v. ${VAR} references are expanded from
// the environment and unknown fields are rejected.
func LoadYAML[T any](path string, v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	return DecodeYAML(data, v)
}

// DecodeYAML is LoadYAML for YAML already in memory.
func DecodeYAML[T any](data []byte, v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	var out T
	if err := dec.Decode(&out); err != nil {
		return errors.Join(ErrParsingYAML, err)
	}
	*v = out
	return nil
}
