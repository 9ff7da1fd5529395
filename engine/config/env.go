package config

import (
	"errors"
	"fmt"
	"strconv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OXY4D_"

// LookupFunc reports the value of an environment variable, matching os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(c *Config, v string) error
}

var envBindings = []envBinding{
	{"BACKEND", func(c *Config, v string) error { return c.Backend.UnmarshalText([]byte(v)) }},
	{"PROJECTION_MODE", func(c *Config, v string) error { return c.Projection.Mode.UnmarshalText([]byte(v)) }},
	{"PROJECTION_DISTANCE", floatSetter(func(c *Config) *float64 { return &c.Projection.Distance })},
	{"PROJECTION_EPSILON", floatSetter(func(c *Config) *float64 { return &c.Tolerances.Projection })},
	{"ROTOR_EPSILON", floatSetter(func(c *Config) *float64 { return &c.Tolerances.Rotor })},
	{"WIDTH", intSetter(func(c *Config) *int { return &c.Viewport.Width })},
	{"HEIGHT", intSetter(func(c *Config) *int { return &c.Viewport.Height })},
	{"POLYTOPE", func(c *Config, v string) error { c.Scene.Polytope = v; return nil }},
	{"RADIUS", floatSetter(func(c *Config) *float64 { return &c.Scene.Radius })},
	{"FRAME_RATE", floatSetter(func(c *Config) *float64 { return &c.FrameRate })},
	{"LOG_LEVEL", func(c *Config, v string) error { c.LogLevel = v; return nil }},
}

// ApplyEnv overrides fields from OXY4D_* variables. Unset variables leave fields untouched.
//
// Parameters:
//   - lookup: the variable source, usually os.LookupEnv
//
// Returns:
//   - error: every malformed override joined
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	var errs []error
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.apply(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err))
		}
	}
	return errors.Join(errs...)
}

func floatSetter(field func(c *Config) *float64) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func intSetter(field func(c *Config) *int) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}
