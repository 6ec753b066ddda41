package ctrlgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/broady/ctrlgen/emit"
	"github.com/broady/ctrlgen/extract"
	"github.com/broady/ctrlgen/openapi"
	"github.com/broady/ctrlgen/sink"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name the CLI looks for.
const DefaultConfigFile = "ctrlgen.yaml"

// Config configures one generation pass.
type Config struct {
	// Packages are go command patterns naming the server packages to scan,
	// resolved in Dir.
	// e.g. []string{"./api/..."}
	Packages []string `yaml:"packages" validate:"required_without=Snapshot,dive,required"`

	// Snapshot is a YAML graph snapshot scanned instead of Go packages.
	Snapshot string `yaml:"snapshot" validate:"excluded_with=Packages"`

	// Dir is the directory packages are resolved in. Default: the current
	// directory, or the config file's directory.
	Dir string `yaml:"dir"`

	// BuildTags are passed to the go command when loading packages.
	BuildTags []string `yaml:"buildTags"`

	// OutDir is where generated units are written.
	OutDir string `yaml:"outDir"`

	// Output is the client unit's file name within OutDir.
	// Default: the client name in snake case with a _gen.go suffix.
	Output string `yaml:"output" validate:"omitempty,endswith=.go"`

	Emit    emit.Options   `yaml:"emit"`
	Extract extract.Config `yaml:"extract"`

	// OpenAPI, when set, also writes an OpenAPI document.
	OpenAPI *OpenAPIConfig `yaml:"openapi"`
}

// OpenAPIConfig configures the OpenAPI document.
type OpenAPIConfig struct {
	openapi.Options `yaml:",inline"`

	// Output is the document's file name within OutDir. Its extension
	// selects the encoding.
	Output string `yaml:"output" validate:"required,endswith=.json|endswith=.yaml|endswith=.yml"`
}

// Format returns the document encoding selected by Output.
func (c *OpenAPIConfig) Format() openapi.Format {
	if filepath.Ext(c.Output) == ".json" {
		return openapi.JSON
	}
	return openapi.YAML
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// WithDefaults returns c with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	c.Emit = c.Emit.WithDefaults()
	c.Extract = c.Extract.WithDefaults()
	if c.Output == "" {
		c.Output = sink.FileName(c.Emit.ClientName, "_gen.go")
	}
	return c
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// LoadConfig reads a YAML config file. Relative Dir, Snapshot and OutDir
// paths are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Dir = resolvePath(base, cfg.Dir)
	cfg.OutDir = resolvePath(base, cfg.OutDir)
	if cfg.Snapshot != "" {
		cfg.Snapshot = resolvePath(base, cfg.Snapshot)
	}
	return cfg, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
