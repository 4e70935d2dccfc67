package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding settings, e.g. BLENDBAKE_FPS.
const EnvPrefix = "BLENDBAKE"

// ErrInvalidSettings is returned when loaded settings cannot drive a bake.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the bake settings.
type Settings struct {
	// FPS is the default frame rate for actions that do not declare one.
	FPS int `json:"fps" mapstructure:"fps"`
	// FixUpAxis converts Blender's Z-up data to Y-up while baking.
	FixUpAxis bool `json:"fixUpAxis" mapstructure:"fixUpAxis"`
	// BlenderVersion is the version of the file the data was read from, e.g. 249 or 250.
	BlenderVersion int `json:"blenderVersion" mapstructure:"blenderVersion"`
	// Workers is the size of the bake worker pool.
	Workers int `json:"workers" mapstructure:"workers"`
	// LogLevel is the minimum log level.
	LogLevel string `json:"logLevel" mapstructure:"logLevel"`
	// Profiling enables the bake throughput profiler.
	Profiling bool `json:"profiling" mapstructure:"profiling"`
	// ProfileInterval is the time between two profiler lines.
	ProfileInterval time.Duration `json:"profileInterval" mapstructure:"profileInterval"`
}

// Default returns the settings used when neither a file nor the environment overrides them.
//
// Returns:
//   - Settings: the default settings
func Default() Settings {
	return Settings{
		FPS:             25,
		FixUpAxis:       true,
		BlenderVersion:  250,
		Workers:         max(runtime.NumCPU()-1, 1),
		LogLevel:        "info",
		Profiling:       false,
		ProfileInterval: time.Second,
	}
}

// setDefaults registers every settings key on v so environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("fps", d.FPS)
	v.SetDefault("fixUpAxis", d.FixUpAxis)
	v.SetDefault("blenderVersion", d.BlenderVersion)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("profiling", d.Profiling)
	v.SetDefault("profileInterval", d.ProfileInterval.String())
}

// Load reads settings from a JSON, YAML or TOML file and applies defaults and
// BLENDBAKE_* environment overrides. An empty path loads defaults and environment only.
//
// Parameters:
//   - path: the settings file (may be empty)
//
// Returns:
//   - Settings: the loaded settings
//   - error: if the file cannot be read or decoded, or ErrInvalidSettings
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the settings can drive a bake.
//
// Returns:
//   - error: ErrInvalidSettings naming the offending key, or nil
func (s Settings) Validate() error {
	switch {
	case s.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidSettings, s.FPS)
	case s.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidSettings, s.Workers)
	case s.BlenderVersion <= 0:
		return fmt.Errorf("%w: blenderVersion must be positive, got %d", ErrInvalidSettings, s.BlenderVersion)
	}
	return nil
}
