package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

// GetEnv loads .env (when present) and fills Config from the environment.
// A variable that is unset falls back to its envDefault tag; a field without
// one is required.
func GetEnv() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		_ = godotenv.Load("../../.env")
	}

	config := &Config{}
	if err := load(config, os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

func load(config any, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(config).Elem()
	t := v.Type()

	for i := range make([]struct{}, v.NumField()) {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		value, exists := lookup(envTag)
		if !exists {
			def, hasDefault := field.Tag.Lookup("envDefault")
			if !hasDefault {
				return fmt.Errorf("environment variable %s not set", envTag)
			}
			value = def
		}

		if err := set(v.Field(i), value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envTag, err)
		}
	}

	return nil
}

func set(f reflect.Value, value string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Int, reflect.Int64:
		if value == "" {
			f.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float64:
		if value == "" {
			f.SetFloat(0)
			return nil
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.SetFloat(n)
	case reflect.Bool:
		if value == "" {
			f.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}
