package dev

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/broady/ctrlgen"
	"github.com/broady/ctrlgen/ir"
	"github.com/broady/ctrlgen/mvc"
	"github.com/broady/ctrlgen/openapi"
	"github.com/broady/ctrlgen/sink"
	"github.com/getkin/kin-openapi/openapi3"
)

const defaultSourceContext = 5

// Service holds the latest generation pass.
type Service struct {
	cfg    ctrlgen.Config
	logger *slog.Logger

	mu       sync.RWMutex
	last     *pass
	lastErr  error
	loadedAt time.Time
}

type pass struct {
	controllers []ir.Controller
	files       map[string][]byte
	doc         *openapi3.T
}

func NewService(cfg ctrlgen.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, logger: logger}
}

// Reload runs a generation pass in memory. A failed pass keeps the previous
// result and is reported by Status.
func (s *Service) Reload(ctx context.Context) error {
	p, err := s.generate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.loadedAt = time.Now()
	if err != nil {
		return err
	}
	s.last = p
	return nil
}

func (s *Service) generate(ctx context.Context) (*pass, error) {
	res, err := ctrlgen.Generate(ctx, s.cfg, sink.NewMemorySink(), s.logger)
	if err != nil {
		return nil, err
	}
	var opts openapi.Options
	if s.cfg.OpenAPI != nil {
		opts = s.cfg.OpenAPI.Options
	}
	doc, err := openapi.Build(res.Controllers, opts)
	if err != nil {
		return nil, err
	}
	return &pass{controllers: res.Controllers, files: res.Files, doc: doc}, nil
}

func (s *Service) current() (*pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		if s.lastErr != nil {
			return nil, mvc.Errorf(mvc.CodeUnavailable, "no successful generation: %v", s.lastErr)
		}
		return nil, mvc.NewError(mvc.CodeUnavailable, "not loaded yet")
	}
	return s.last, nil
}

func (s *Service) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := StatusResponse{Status: "ok"}
	switch {
	case s.lastErr != nil:
		resp.Status = "error"
		resp.Error = s.lastErr.Error()
	case s.last == nil:
		resp.Status = "starting"
	}
	if s.last != nil {
		resp.Controllers = len(s.last.controllers)
		for _, c := range s.last.controllers {
			resp.Actions += len(c.Actions)
		}
	}
	if !s.loadedAt.IsZero() {
		resp.LoadedAt = s.loadedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// root is the directory source files are served from.
func (s *Service) root() (string, error) {
	if s.cfg.Dir != "" {
		return filepath.Abs(s.cfg.Dir)
	}
	return os.Getwd()
}

// StatusResponse reports the latest generation pass.
type StatusResponse struct {
	Status      string `json:"status"` // "ok", "error" or "starting"
	Error       string `json:"error,omitempty"`
	Controllers int    `json:"controllers"`
	Actions     int    `json:"actions"`
	LoadedAt    string `json:"loadedAt,omitempty"`
}

// ControllersResponse lists extracted controllers.
type ControllersResponse struct {
	Controllers []ir.Controller `json:"controllers"`
}

// ClientResponse holds the generated units by path.
type ClientResponse struct {
	Files map[string]string `json:"files"`
}

// SourceRequest selects lines of a file below the scanned directory.
type SourceRequest struct {
	File    string `json:"file" schema:"file" validate:"required"`
	Line    int    `json:"line,omitempty" schema:"line" validate:"gte=0"`
	Context int    `json:"context,omitempty" schema:"context" validate:"gte=0"` // lines around Line (default 5)
}

// SourceLine is a single line of a source file.
type SourceLine struct {
	Num       int    `json:"num"`
	Content   string `json:"content"`
	Highlight bool   `json:"highlight,omitempty"`
}

// SourceResponse returns source code with context.
type SourceResponse struct {
	File     string       `json:"file"`
	Language string       `json:"language"`
	Lines    []SourceLine `json:"lines"`
	Context  int          `json:"context"`
}

// DevController serves the dev endpoints.
//
//ctrlgen:route __ctrlgen
type DevController struct {
	mvc.Controller
	svc *Service
}

//ctrlgen:get status
func (c *DevController) Status(ctx context.Context) (mvc.ActionResult[StatusResponse], error) {
	return mvc.OK(c.svc.status()), nil
}

//ctrlgen:get controllers
func (c *DevController) Controllers(ctx context.Context) (mvc.ActionResult[ControllersResponse], error) {
	p, err := c.svc.current()
	if err != nil {
		return mvc.ActionResult[ControllersResponse]{}, err
	}
	controllers := p.controllers
	if controllers == nil {
		controllers = []ir.Controller{}
	}
	return mvc.OK(ControllersResponse{Controllers: controllers}), nil
}

//ctrlgen:get client
func (c *DevController) Client(ctx context.Context) (mvc.ActionResult[ClientResponse], error) {
	p, err := c.svc.current()
	if err != nil {
		return mvc.ActionResult[ClientResponse]{}, err
	}
	files := make(map[string]string, len(p.files))
	for path, content := range p.files {
		files[path] = string(content)
	}
	return mvc.OK(ClientResponse{Files: files}), nil
}

//ctrlgen:get openapi
func (c *DevController) OpenAPI(ctx context.Context) (mvc.ActionResult[*openapi3.T], error) {
	p, err := c.svc.current()
	if err != nil {
		return mvc.ActionResult[*openapi3.T]{}, err
	}
	return mvc.OK(p.doc), nil
}

//ctrlgen:get source
func (c *DevController) Source(ctx context.Context, req SourceRequest) (mvc.ActionResult[SourceResponse], error) {
	root, err := c.svc.root()
	if err != nil {
		return mvc.ActionResult[SourceResponse]{}, err
	}
	path, err := sourcePath(root, req.File)
	if err != nil {
		return mvc.ActionResult[SourceResponse]{}, err
	}
	resp, err := readSource(path, req.Line, req.Context)
	if err != nil {
		return mvc.ActionResult[SourceResponse]{}, err
	}
	resp.File = req.File
	return mvc.OK(resp), nil
}

//ctrlgen:post reload
func (c *DevController) Reload(ctx context.Context) (mvc.ActionResult[StatusResponse], error) {
	if err := c.svc.Reload(ctx); err != nil {
		c.svc.logger.Warn("reload failed", slog.Any("error", err))
	}
	return mvc.OK(c.svc.status()), nil
}

// sourcePath resolves file below root, rejecting anything that escapes it.
func sourcePath(root, file string) (string, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", mvc.Errorf(mvc.CodePermissionDenied, "%s is outside %s", file, root)
	}
	return path, nil
}

func readSource(path string, line, around int) (SourceResponse, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return SourceResponse{}, mvc.Errorf(mvc.CodeNotFound, "%s not found", filepath.Base(path))
	}
	if err != nil {
		return SourceResponse{}, err
	}
	defer f.Close()

	if around == 0 {
		around = defaultSourceContext
	}
	first, last := 1, 0
	if line > 0 {
		first, last = max(1, line-around), line+around
	}

	resp := SourceResponse{Language: language(path), Context: around, Lines: []SourceLine{}}
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if n < first {
			continue
		}
		if last > 0 && n > last {
			break
		}
		resp.Lines = append(resp.Lines, SourceLine{Num: n, Content: sc.Text(), Highlight: n == line})
	}
	if err := sc.Err(); err != nil {
		return SourceResponse{}, fmt.Errorf("read %s: %w", path, err)
	}
	return resp, nil
}

func language(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".mod":
		return "go.mod"
	default:
		return "text"
	}
}
