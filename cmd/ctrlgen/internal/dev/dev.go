// Package dev serves a running view of a generation pass: the extracted
// controllers, the generated units and the OpenAPI document, reloaded on
// request.
package dev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/broady/ctrlgen/middleware"
	"github.com/broady/ctrlgen/mvc"
	"github.com/getkin/kin-openapi/openapi3"
)

// Prefix is where the dev app is mounted, clear of user routes.
const Prefix = "/__ctrlgen"

type Cmd struct {
	Addr     string `help:"Address to listen on." default:"localhost:9000"`
	Snapshot string `help:"Scan a YAML graph snapshot instead of Go packages." type:"existingfile"`
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	if c.Snapshot != "" {
		cfg.Snapshot = c.Snapshot
		cfg.Packages = nil
	}
	logger := g.Logger()

	svc := NewService(cfg, logger)
	if err := svc.Reload(ctx); err != nil {
		logger.Warn("initial generation failed", slog.Any("error", err))
	}

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           Mount(NewApp(svc, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(g.Out(), "ctrlgen dev listening on http://%s%s/\n", c.Addr, Prefix)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Mount serves app under Prefix.
func Mount(app *mvc.App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Prefix+"/", http.StripPrefix(Prefix, app.Handler()))
	return mux
}

// NewApp registers the DevController actions of svc.
func NewApp(svc *Service, logger *slog.Logger) *mvc.App {
	app := mvc.NewApp().
		WithLogger(logger).
		WithMiddleware(middleware.Logging(logger)).
		WithMiddleware(middleware.CORS(nil))

	ctrl := &DevController{svc: svc}
	mvc.Handle(app, http.MethodGet, "status", func(r *http.Request) (mvc.ActionResult[StatusResponse], error) {
		return ctrl.Status(r.Context())
	})
	mvc.Handle(app, http.MethodGet, "controllers", func(r *http.Request) (mvc.ActionResult[ControllersResponse], error) {
		return ctrl.Controllers(r.Context())
	})
	mvc.Handle(app, http.MethodGet, "client", func(r *http.Request) (mvc.ActionResult[ClientResponse], error) {
		return ctrl.Client(r.Context())
	})
	mvc.Handle(app, http.MethodGet, "openapi", func(r *http.Request) (mvc.ActionResult[*openapi3.T], error) {
		return ctrl.OpenAPI(r.Context())
	})
	mvc.HandleQuery(app, http.MethodGet, "source", func(r *http.Request, req SourceRequest) (mvc.ActionResult[SourceResponse], error) {
		return ctrl.Source(r.Context(), req)
	})
	mvc.Handle(app, http.MethodPost, "reload", func(r *http.Request) (mvc.ActionResult[StatusResponse], error) {
		return ctrl.Reload(r.Context())
	})
	return app
}
