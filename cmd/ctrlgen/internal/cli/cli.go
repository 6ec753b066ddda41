// Package cli holds the flags shared by every ctrlgen command.
package cli

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/broady/ctrlgen"
)

// Globals are flags accepted before any command.
type Globals struct {
	Config  string `help:"Config file." short:"c" default:"ctrlgen.yaml" type:"path"`
	Verbose bool   `help:"Log debug output." short:"v"`

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// Out returns the writer for command output.
func (g *Globals) Out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Logger returns a text logger writing to Stderr.
func (g *Globals) Logger() *slog.Logger {
	level := slog.LevelInfo
	if g.Verbose {
		level = slog.LevelDebug
	}
	w := g.Stderr
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Load reads the config file. A missing default config file yields a
// config scanning the current directory.
func (g *Globals) Load() (ctrlgen.Config, error) {
	cfg, err := ctrlgen.LoadConfig(g.Config)
	if errors.Is(err, fs.ErrNotExist) && g.isDefaultConfig() {
		return ctrlgen.Config{Packages: []string{"."}}, nil
	}
	return cfg, err
}

func (g *Globals) isDefaultConfig() bool {
	if g.Config == ctrlgen.DefaultConfigFile {
		return true
	}
	wd, err := os.Getwd()
	if err != nil {
		return false
	}
	return filepath.Clean(g.Config) == filepath.Join(wd, ctrlgen.DefaultConfigFile)
}
