// Package ctrlgen generates typed Go clients for HTTP controllers.
//
// A generation pass loads server packages, finds their controllers (structs
// embedding mvc.ControllerBase, or tagged //ctrlgen:controller), classifies
// their action methods and renders one client unit with a sub-client per
// controller:
//
//	//go:generate go run github.com/broady/ctrlgen/cmd/ctrlgen gen
//
// or from Go:
//
//	_, err := ctrlgen.New("./api").
//		WithPackage("apiclient").
//		ToDir(ctx, "./apiclient")
package ctrlgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/broady/ctrlgen/emit"
	"github.com/broady/ctrlgen/extract"
	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/graph/goload"
	"github.com/broady/ctrlgen/graph/snapshot"
	"github.com/broady/ctrlgen/ir"
	"github.com/broady/ctrlgen/openapi"
	"github.com/broady/ctrlgen/sink"
)

// ErrStale is returned by Check when generated units are missing or out of
// date.
var ErrStale = errors.New("generated code is out of date")

// Result describes one generation pass.
type Result struct {
	Controllers []ir.Controller

	// Files maps each written path, relative to the output directory, to
	// its content.
	Files map[string][]byte
}

type unit struct {
	path    string
	content []byte
}

// LoadModules loads the modules cfg names, from its snapshot or its Go
// packages.
func LoadModules(ctx context.Context, cfg Config, logger *slog.Logger) ([]graph.Module, error) {
	logger = orDefault(logger)
	if cfg.Snapshot != "" {
		logger.Debug("loading snapshot", slog.String("path", cfg.Snapshot))
		return snapshot.LoadFile(cfg.Snapshot)
	}
	return goload.New().
		WithDir(cfg.Dir).
		WithBuildTags(cfg.BuildTags...).
		WithLogger(logger).
		Load(ctx, cfg.Packages...)
}

// Extract loads and scans the modules cfg names. Modules are scanned in
// import path order; the first classification error aborts the pass.
func Extract(ctx context.Context, cfg Config, logger *slog.Logger) ([]ir.Controller, error) {
	logger = orDefault(logger)
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mods, err := LoadModules(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return extract.New(cfg.Extract).WithLogger(logger).ScanAll(mods)
}

// Generate runs one pass and writes its units to out.
func Generate(ctx context.Context, cfg Config, out sink.OutputSink, logger *slog.Logger) (*Result, error) {
	logger = orDefault(logger)
	cfg = cfg.WithDefaults()
	controllers, err := Extract(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	units, err := render(controllers, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{Controllers: controllers, Files: make(map[string][]byte, len(units))}
	for _, u := range units {
		if err := out.WriteFile(ctx, u.path, u.content); err != nil {
			return nil, fmt.Errorf("write %s: %w", u.path, err)
		}
		res.Files[u.path] = u.content
	}

	actions := 0
	for _, c := range controllers {
		actions += len(c.Actions)
	}
	logger.Info("client generated",
		slog.Int("controllers", len(controllers)),
		slog.Int("actions", actions),
		slog.Int("files", len(units)))
	return res, nil
}

func render(controllers []ir.Controller, cfg Config) ([]unit, error) {
	src, err := emit.Render(controllers, cfg.Emit)
	if err != nil {
		return nil, fmt.Errorf("render client: %w", err)
	}
	units := []unit{{path: cfg.Output, content: src}}

	if cfg.OpenAPI != nil {
		doc, err := openapi.Build(controllers, cfg.OpenAPI.Options)
		if err != nil {
			return nil, fmt.Errorf("build openapi document: %w", err)
		}
		data, err := openapi.Marshal(doc, cfg.OpenAPI.Format())
		if err != nil {
			return nil, err
		}
		units = append(units, unit{path: cfg.OpenAPI.Output, content: data})
	}
	return units, nil
}

// Check runs one pass against the files under cfg.OutDir without writing
// anything. It returns the stale paths, wrapped in ErrStale, if any unit
// differs from its file.
func Check(ctx context.Context, cfg Config, logger *slog.Logger) ([]string, error) {
	if cfg.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	check := sink.NewCheckSink(cfg.OutDir)
	if _, err := Generate(ctx, cfg, check, logger); err != nil {
		return nil, err
	}
	stale := check.Stale()
	if len(stale) > 0 {
		return stale, fmt.Errorf("%w: %v", ErrStale, stale)
	}
	return nil, nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
