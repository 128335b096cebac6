package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one configuration key. It has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// MapLookup serves configuration from a fixed map.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Load reads configuration from the process environment, applying defaults
// for unset values, and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit key source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// loadStruct walks v and fills every field carrying an env tag. Nested
// structs are walked in place.
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != timeType {
			if err := loadStruct(fv, lookup); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		value, found := lookupValue(lookup, key, field.Tag.Get("envAlt"))
		if !found {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", key)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fv, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", key, value, err)
		}
	}
	return nil
}

// lookupValue tries key, then alt. Empty values count as unset.
func lookupValue(lookup LookupFunc, key, alt string) (string, bool) {
	for _, k := range []string{key, alt} {
		if k == "" {
			continue
		}
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func setField(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
	check(c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	check(c.Database.MaxConns >= c.Database.MinConns,
		"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)

	check(c.Pipeline.MaxFileSize > 0, "PIPELINE_MAX_FILE_SIZE must be positive")
	check(c.Pipeline.Timeout > 0, "PIPELINE_TIMEOUT must be positive")
	check(c.Pipeline.MaxConcurrent > 0, "PIPELINE_MAX_CONCURRENT must be positive")
	check(c.Pipeline.MaxWaitTime > 0, "PIPELINE_MAX_WAIT_TIME must be positive")

	check(c.Tracing.SampleRatio >= 0 && c.Tracing.SampleRatio <= 1,
		"OTEL_SAMPLER_RATIO (%g) must be between 0 and 1", c.Tracing.SampleRatio)

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	return errors.Join(errs...)
}

// String renders the config for logging with the database URL masked.
func (c *Config) String() string {
	dbURL := "[MASKED]"
	if c.Database.URL == "" {
		dbURL = "[UNSET]"
	}
	return fmt.Sprintf("Config{Database: {URL: %s, MaxConns: %d, MinConns: %d}, "+
		"Pipeline: {MaxFileSize: %d, Timeout: %s, MaxConcurrent: %d, LookupsFile: %q, MigrateOnStart: %t}, "+
		"Logging: {Level: %q, Format: %q}, Tracing: {Enabled: %t, Endpoint: %q}}",
		dbURL, c.Database.MaxConns, c.Database.MinConns,
		c.Pipeline.MaxFileSize, c.Pipeline.Timeout, c.Pipeline.MaxConcurrent, c.Pipeline.LookupsFile, c.Pipeline.MigrateOnStart,
		c.Logging.Level, c.Logging.Format, c.Tracing.Enabled, c.Tracing.Endpoint)
}
