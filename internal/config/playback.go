package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical playback defaults file.
const DefaultConfigPath = "config/playback.defaults.json"

// Missing-entity policies accepted by missing_policy.
const (
	PolicyIntersect = "intersect"
	PolicyHoldLast  = "hold_last"
)

// PlaybackConfig holds the tunables for resampling, composition and the
// playback clock. Nil fields fall back to the defaults returned by the Get*
// accessors, so partial files are safe.
type PlaybackConfig struct {
	// Resampling
	UpsampleFactor *int     `json:"upsample_factor,omitempty"`
	TargetFPS      *float64 `json:"target_fps,omitempty"` // >0 derives the factor from window duration

	// Clock
	DisplayFPS       *float64 `json:"display_fps,omitempty"`
	FallbackDuration *string  `json:"fallback_duration,omitempty"` // duration string like "10s"
	Loop             *bool    `json:"loop,omitempty"`

	// Composition
	UnitScale     *float64 `json:"unit_scale,omitempty"` // recorded units per meter
	Precompute    *bool    `json:"precompute,omitempty"`
	Workers       *int     `json:"workers,omitempty"`
	MissingPolicy *string  `json:"missing_policy,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPlaybackConfig returns a PlaybackConfig with all fields set to nil.
func EmptyPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{}
}

// DefaultPlaybackConfig returns a config with every field populated from the
// built-in defaults.
func DefaultPlaybackConfig() *PlaybackConfig {
	empty := EmptyPlaybackConfig()
	return &PlaybackConfig{
		UpsampleFactor:   ptrInt(empty.GetUpsampleFactor()),
		TargetFPS:        ptrFloat64(empty.GetTargetFPS()),
		DisplayFPS:       ptrFloat64(empty.GetDisplayFPS()),
		FallbackDuration: ptrString(empty.GetFallbackDuration().String()),
		Loop:             ptrBool(empty.GetLoop()),
		UnitScale:        ptrFloat64(empty.GetUnitScale()),
		Precompute:       ptrBool(empty.GetPrecompute()),
		Workers:          ptrInt(empty.GetWorkers()),
		MissingPolicy:    ptrString(empty.GetMissingPolicy()),
	}
}

// LoadPlaybackConfig loads a PlaybackConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPlaybackConfig(path string) (*PlaybackConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlaybackConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching parent directories so it works from any package's tests.
// Panics if the file cannot be loaded.
func MustLoadDefaultConfig() *PlaybackConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/tracking/resample/
	}
	for _, path := range candidates {
		if cfg, err := LoadPlaybackConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *PlaybackConfig) Validate() error {
	if c.UpsampleFactor != nil && *c.UpsampleFactor < 1 {
		return fmt.Errorf("upsample_factor must be at least 1, got %d", *c.UpsampleFactor)
	}

	if c.TargetFPS != nil && *c.TargetFPS < 0 {
		return fmt.Errorf("target_fps must be non-negative, got %f", *c.TargetFPS)
	}

	if c.DisplayFPS != nil && *c.DisplayFPS <= 0 {
		return fmt.Errorf("display_fps must be positive, got %f", *c.DisplayFPS)
	}

	if c.FallbackDuration != nil && *c.FallbackDuration != "" {
		d, err := time.ParseDuration(*c.FallbackDuration)
		if err != nil {
			return fmt.Errorf("invalid fallback_duration '%s': %w", *c.FallbackDuration, err)
		}
		if d <= 0 {
			return fmt.Errorf("fallback_duration must be positive, got %s", d)
		}
	}

	if c.UnitScale != nil && *c.UnitScale <= 0 {
		return fmt.Errorf("unit_scale must be positive, got %f", *c.UnitScale)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.MissingPolicy != nil {
		switch *c.MissingPolicy {
		case PolicyIntersect, PolicyHoldLast:
		default:
			return fmt.Errorf("missing_policy must be %q or %q, got %q",
				PolicyIntersect, PolicyHoldLast, *c.MissingPolicy)
		}
	}

	return nil
}

// GetUpsampleFactor returns the upsample_factor value or the default.
func (c *PlaybackConfig) GetUpsampleFactor() int {
	if c.UpsampleFactor == nil {
		return 24
	}
	return *c.UpsampleFactor
}

// GetTargetFPS returns the target_fps value or the default (0, disabled).
func (c *PlaybackConfig) GetTargetFPS() float64 {
	if c.TargetFPS == nil {
		return 0
	}
	return *c.TargetFPS
}

// GetDisplayFPS returns the display_fps value or the default.
func (c *PlaybackConfig) GetDisplayFPS() float64 {
	if c.DisplayFPS == nil {
		return 120
	}
	return *c.DisplayFPS
}

// GetFallbackDuration parses and returns the FallbackDuration as a time.Duration.
func (c *PlaybackConfig) GetFallbackDuration() time.Duration {
	if c.FallbackDuration == nil || *c.FallbackDuration == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.FallbackDuration)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetLoop returns the loop value or the default.
func (c *PlaybackConfig) GetLoop() bool {
	if c.Loop == nil {
		return true
	}
	return *c.Loop
}

// GetUnitScale returns the unit_scale value or the default.
func (c *PlaybackConfig) GetUnitScale() float64 {
	if c.UnitScale == nil {
		return 100
	}
	return *c.UnitScale
}

// GetPrecompute returns the precompute value or the default.
func (c *PlaybackConfig) GetPrecompute() bool {
	if c.Precompute == nil {
		return false
	}
	return *c.Precompute
}

// GetWorkers returns the workers value or the default.
func (c *PlaybackConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetMissingPolicy returns the missing_policy value or the default.
func (c *PlaybackConfig) GetMissingPolicy() string {
	if c.MissingPolicy == nil {
		return PolicyIntersect
	}
	return *c.MissingPolicy
}
