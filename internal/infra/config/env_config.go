// Package config fills configuration structs from environment variables.
//
// Fields are bound with struct tags:
//
//	Addr    string        `env:"ADDR" default:":8080"`
//	Timeout time.Duration `env:"TIMEOUT" default:"5s"`
//	DB      DBConfig      `envPrefix:"DB_"`
//
// Lookups walk the namespace from most to least specific, so with the
// namespace QUILL_BLOGSVC the field ADDR is read from QUILL_BLOGSVC_ADDR,
// then QUILL_ADDR, then ADDR.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrInvalidConfig is returned when the config is not a pointer to a struct embedding EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a variable without default is missing.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned for field kinds the parser cannot fill.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfig must be embedded in every top-level configuration struct.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

// LoadDotenv loads the given .env files, skipping those that do not exist.
// Variables already present in the environment win over file values.
func LoadDotenv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// Parse fills cfg from the environment using namespace as variable prefix.
func Parse(_ context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parseStruct(candidatePrefixes(namespace), "", reflect.ValueOf(cfg).Elem())
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// candidatePrefixes turns "A_B" into ["A_B_", "A_", ""].
func candidatePrefixes(namespace string) []string {
	var prefixes []string

	if namespace != "" {
		parts := strings.Split(namespace, "_")
		for i := len(parts); i > 0; i-- {
			prefixes = append(prefixes, strings.Join(parts[:i], "_")+"_")
		}
	}

	return append(prefixes, "")
}

func parseStruct(namespaces []string, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			if err := parseStruct(namespaces, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				return err
			}

			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		raw, err := lookup(namespaces, prefix+envTag, field)
		if err != nil {
			return err
		}

		if err := setValue(value, raw); err != nil {
			return fmt.Errorf("parse field %s: %w", prefix+envTag, err)
		}
	}

	return nil
}

func lookup(namespaces []string, name string, field reflect.StructField) (string, error) {
	for _, ns := range namespaces {
		if raw, ok := os.LookupEnv(ns + name); ok {
			return raw, nil
		}
	}

	if def, ok := field.Tag.Lookup("default"); ok {
		return def, nil
	}

	return "", fmt.Errorf("%w: %s", ErrVarNotSet, name)
}

//nolint:exhaustive
func setValue(value reflect.Value, raw string) error {
	if value.Type() == durationType {
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}

		value.SetInt(int64(duration))

		return nil
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}

		value.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse float: %w", err)
		}

		value.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}

		value.SetBool(b)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, value.Kind())
	}

	return nil
}
