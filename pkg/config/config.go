// Package config loads hullform.yaml, the build settings shared by the
// hullform commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chazu/hullform/pkg/stepexport"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "hullform.yaml"

// DefaultYAML documents every setting with its default.
const DefaultYAML = `# hullform build configuration
constants_dir: constant        # holds boat/, configuration/, material/
build_dir: build
design_script: ""              # empty = built-in catamaran script
material_set: default          # constant/material/{material_set}.json
eval_timeout: 10s

kernel:
  mesh_cells: 64               # marching-cubes resolution per solid

step:
  schema: AUTOMOTIVE_DESIGN    # or CONFIG_CONTROL_DESIGN

metrics:
  textfile: build/metrics.prom # empty disables

publish:
  bucket: ""
  prefix: ""
  region: ""
`

// KernelConfig tunes the geometry kernel.
type KernelConfig struct {
	MeshCells int `yaml:"mesh_cells" validate:"gte=8,lte=1024"`
}

// StepConfig selects the STEP application protocol.
type StepConfig struct {
	Schema string `yaml:"schema" validate:"oneof=AUTOMOTIVE_DESIGN CONFIG_CONTROL_DESIGN"`
}

// MetricsConfig controls the Prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// PublishConfig is the S3 destination for built artifacts.
type PublishConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// Config models hullform.yaml.
type Config struct {
	ConstantsDir string        `yaml:"constants_dir" validate:"required"`
	BuildDir     string        `yaml:"build_dir" validate:"required"`
	DesignScript string        `yaml:"design_script"`
	MaterialSet  string        `yaml:"material_set" validate:"required"`
	EvalTimeout  time.Duration `yaml:"eval_timeout" validate:"gt=0"`

	Kernel  KernelConfig  `yaml:"kernel"`
	Step    StepConfig    `yaml:"step"`
	Metrics MetricsConfig `yaml:"metrics"`
	Publish PublishConfig `yaml:"publish"`
}

var validate = validator.New()

// Default returns the settings of DefaultYAML.
func Default() Config {
	return Config{
		ConstantsDir: "constant",
		BuildDir:     "build",
		MaterialSet:  "default",
		EvalTimeout:  10 * time.Second,
		Kernel:       KernelConfig{MeshCells: 64},
		Step:         StepConfig{Schema: stepexport.SchemaAP214},
		Metrics:      MetricsConfig{Textfile: "build/metrics.prom"},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set; the defaults are returned instead.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result. Keys missing from
// data keep their current values.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the settings.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s%s", e.Namespace(), e.Tag(), param(e.Param())))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
