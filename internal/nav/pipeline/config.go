package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/navsync/internal/nav/resample"
)

// Default processing parameters. The device's inertial stream nominally runs
// at 95 Hz; alignment quality is evaluated on a leading sample rather than
// every record because the answer converges quickly.
const (
	DefaultInertialFrequency = 95.0
	DefaultTargetFrequency   = 95.0
	DefaultMethod            = "linear"
	DefaultBoundary          = "natural"
	DefaultAlignSampleLimit  = 1000
)

// Config holds the parameters of one pipeline run. Fields are pointers so a
// partial JSON config is safe: anything omitted falls back to the defaults
// via the Get* methods.
type Config struct {
	// Input files
	PositionFile *string `json:"position_file,omitempty"` // combined GNSS/INS hex log
	InertialFile *string `json:"inertial_file,omitempty"` // line-oriented inertial hex log
	FusedFile    *string `json:"fused_file,omitempty"`    // optional fused-result log

	// Processing params
	InertialFrequency *float64 `json:"inertial_frequency,omitempty"` // Hz
	TargetFrequency   *float64 `json:"target_frequency,omitempty"`   // Hz, resampling timeline
	Method            *string  `json:"interpolation_method,omitempty"`
	Boundary          *string  `json:"boundary_condition,omitempty"` // spline only
	AlignSampleLimit  *int     `json:"align_sample_limit,omitempty"` // 0 = all records
}

// LoadConfig loads a Config from a JSON file. Omitted fields keep their
// defaults, so partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the parameters that have been set. Input file presence is
// checked at run time, not here, because the web front end fills paths in
// after upload.
func (c *Config) Validate() error {
	if c.InertialFrequency != nil && *c.InertialFrequency <= 0 {
		return fmt.Errorf("inertial_frequency must be positive, got %v", *c.InertialFrequency)
	}
	if c.TargetFrequency != nil && *c.TargetFrequency <= 0 {
		return fmt.Errorf("target_frequency must be positive, got %v", *c.TargetFrequency)
	}
	if c.Method != nil {
		if _, err := resample.ParseMethod(*c.Method); err != nil {
			return err
		}
	}
	if c.Boundary != nil {
		if _, err := resample.ParseBoundary(*c.Boundary); err != nil {
			return err
		}
	}
	if c.AlignSampleLimit != nil && *c.AlignSampleLimit < 0 {
		return fmt.Errorf("align_sample_limit must not be negative, got %d", *c.AlignSampleLimit)
	}
	return nil
}

func (c *Config) GetPositionFile() string {
	if c.PositionFile == nil {
		return ""
	}
	return *c.PositionFile
}

func (c *Config) GetInertialFile() string {
	if c.InertialFile == nil {
		return ""
	}
	return *c.InertialFile
}

func (c *Config) GetFusedFile() string {
	if c.FusedFile == nil {
		return ""
	}
	return *c.FusedFile
}

func (c *Config) GetInertialFrequency() float64 {
	if c.InertialFrequency == nil {
		return DefaultInertialFrequency
	}
	return *c.InertialFrequency
}

func (c *Config) GetTargetFrequency() float64 {
	if c.TargetFrequency == nil {
		return DefaultTargetFrequency
	}
	return *c.TargetFrequency
}

func (c *Config) GetMethod() string {
	if c.Method == nil {
		return DefaultMethod
	}
	return *c.Method
}

func (c *Config) GetBoundary() string {
	if c.Boundary == nil {
		return DefaultBoundary
	}
	return *c.Boundary
}

func (c *Config) GetAlignSampleLimit() int {
	if c.AlignSampleLimit == nil {
		return DefaultAlignSampleLimit
	}
	return *c.AlignSampleLimit
}
