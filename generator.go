package ctrlgen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/broady/ctrlgen/extract"
	"github.com/broady/ctrlgen/ir"
	"github.com/broady/ctrlgen/openapi"
	"github.com/broady/ctrlgen/sink"
)

// Generator provides a fluent API over Config.
//
// Example:
//
//	ctrlgen.New("./api").
//	    WithClientName("Shop").
//	    WithOpenAPI("openapi.yaml", openapi.Options{Title: "Shop"}).
//	    ToDir(ctx, "./shopclient")
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// New returns a Generator scanning the packages matching patterns.
func New(patterns ...string) *Generator {
	return FromConfig(Config{Packages: patterns})
}

// FromSnapshot returns a Generator scanning a YAML graph snapshot.
func FromSnapshot(path string) *Generator {
	return FromConfig(Config{Snapshot: path})
}

// FromConfig returns a Generator for cfg.
func FromConfig(cfg Config) *Generator {
	return &Generator{cfg: cfg, logger: slog.Default()}
}

// WithDir sets the directory package patterns are resolved in.
func (g *Generator) WithDir(dir string) *Generator {
	g.cfg.Dir = dir
	return g
}

// WithBuildTags sets the build tags used to load packages.
func (g *Generator) WithBuildTags(tags ...string) *Generator {
	g.cfg.BuildTags = tags
	return g
}

// WithPackage sets the package name of the generated client.
func (g *Generator) WithPackage(name string) *Generator {
	g.cfg.Emit.Package = name
	return g
}

// WithPackagePath sets the import path of the generated client. Types
// declared there are not qualified.
func (g *Generator) WithPackagePath(path string) *Generator {
	g.cfg.Emit.PackagePath = path
	return g
}

// WithClientName sets the name of the aggregate client type.
func (g *Generator) WithClientName(name string) *Generator {
	g.cfg.Emit.ClientName = name
	return g
}

// WithOutput sets the client unit's file name.
func (g *Generator) WithOutput(name string) *Generator {
	g.cfg.Output = name
	return g
}

// WithExtract sets the well-known type names used to find controllers.
func (g *Generator) WithExtract(cfg extract.Config) *Generator {
	g.cfg.Extract = cfg
	return g
}

// WithOpenAPI also writes an OpenAPI document named output.
func (g *Generator) WithOpenAPI(output string, opts openapi.Options) *Generator {
	g.cfg.OpenAPI = &OpenAPIConfig{Options: opts, Output: output}
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Config returns the configuration built so far.
func (g *Generator) Config() Config {
	return g.cfg
}

// Extract returns the controllers without rendering them.
func (g *Generator) Extract(ctx context.Context) ([]ir.Controller, error) {
	return Extract(ctx, g.cfg, g.logger)
}

// Generate renders the units in memory.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	return Generate(ctx, g.cfg, sink.NewMemorySink(), g.logger)
}

// ToDir renders the units and writes them under dir.
func (g *Generator) ToDir(ctx context.Context, dir string) (*Result, error) {
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	g.cfg.OutDir = dir
	return Generate(ctx, g.cfg, sink.NewFilesystemSink(dir), g.logger)
}

// Check compares the units with the files under dir. See Check.
func (g *Generator) Check(ctx context.Context, dir string) ([]string, error) {
	g.cfg.OutDir = dir
	return Check(ctx, g.cfg, g.logger)
}
