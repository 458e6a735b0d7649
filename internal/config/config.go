// Package config loads the pulse-mode external interface settings
// (dt, LO frequencies per drive/measurement channel, default shots/
// steps_max/time_max) the same way the teacher's other ambient
// packages take an options struct: viper does the merging of
// defaults, file, and environment, and Config exposes a narrow
// typed surface over it.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type (
	Config struct {
		v *viper.Viper
	}

	// Options controls where Load looks for configuration. Path and
	// Name follow viper's AddConfigPath/SetConfigName conventions;
	// EnvPrefix namespaces environment variable overrides
	// (EnvPrefix "QPLAY" turns PULSE_DT into QPLAY_PULSE_DT).
	Options struct {
		Path      string
		Name      string
		EnvPrefix string
	}
)

// defaults mirror the hard-coded backend config QuaC_Pulse_Visitor.cpp
// initializes before any real backend JSON is loaded.
var defaults = map[string]any{
	"debug":               false,
	"pulse.dt":            1.0,
	"pulse.lo_freqs":      []float64{},
	"backend.shots":       1024,
	"backend.steps_max":   100000000,
	"backend.time_max":    8.0,
	"backend.stiff_solver": false,
}

// Load builds a Config from defaults, an optional config file, and
// environment variables, in that precedence order (lowest to
// highest). A missing config file is not an error; callers that want
// a single JSON/YAML file to be mandatory should check os.Stat first.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Name != "" {
		v.SetConfigName(opts.Name)
	}
	if opts.Path != "" {
		v.AddConfigPath(opts.Path)
	}

	if opts.Name != "" || opts.Path != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	return &Config{v: v}, nil
}

// New wraps an already-configured viper instance, used by callers
// (tests, embedders) that build their own Viper rather than going
// through Load.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

func (c *Config) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Config) GetString(key string) string   { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }
func (c *Config) GetFloat64Slice(key string) []float64 {
	raw := c.v.Get(key)
	slice, ok := raw.([]float64)
	if ok {
		return slice
	}
	ifaces, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(ifaces))
	for _, v := range ifaces {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		}
	}
	return out
}
