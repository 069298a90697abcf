package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"manoonchai/internal/corpus"
	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/store"
)

// layoutFlags selects the layout a command works on. Both empty means the
// configured layout.
type layoutFlags struct {
	name string
	file string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "layout", "l", "", "preset or saved layout name")
	cmd.Flags().StringVar(&f.file, "layout-file", "", "layout file (TOML, JSON or YAML)")
	cmd.MarkFlagsMutuallyExclusive("layout", "layout-file")
}

func (a *app) weights() effort.Weights {
	return a.cfg.Model.Weights()
}

// resolveLayout returns the layout selected by f. Configured locked rows
// apply whichever way the layout was chosen.
func (a *app) resolveLayout(f layoutFlags) (*layout.Layout, error) {
	switch {
	case f.file != "":
		return a.cfg.LayoutFromFile(f.file)
	case f.name != "":
		return a.namedLayout(f.name)
	default:
		return a.cfg.LoadLayout()
	}
}

// namedLayout looks a name up among the presets, then in the store.
func (a *app) namedLayout(name string) (*layout.Layout, error) {
	cfg := a.cfg.Clone()
	cfg.Layout.Preset = name
	cfg.Layout.File = ""
	l, err := cfg.LoadLayout()
	if err == nil || !errors.Is(err, layout.ErrUnknownPreset) {
		return l, err
	}

	if _, statErr := os.Stat(a.cfg.Storage.Path); statErr != nil {
		return nil, err
	}
	st, serr := a.openStore()
	if serr != nil {
		return nil, serr
	}
	defer st.Close()

	rec, serr := st.GetLayoutByName(name)
	if serr != nil {
		return nil, serr
	}
	if rec == nil {
		return nil, err
	}
	return rec.Layout()
}

func (a *app) model(f layoutFlags) (*effort.Model, error) {
	l, err := a.resolveLayout(f)
	if err != nil {
		return nil, err
	}
	return effort.NewModel(l, a.weights()), nil
}

// corpusPaths returns args, or the configured corpus when args is empty.
func (a *app) corpusPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.Corpus.Paths) > 0 {
		return a.cfg.Corpus.Paths, nil
	}
	return nil, fmt.Errorf("%w: pass corpus files or set corpus.paths", corpus.ErrNoInput)
}

func (a *app) loadCorpus(args []string) (*corpus.Corpus, error) {
	paths, err := a.corpusPaths(args)
	if err != nil {
		return nil, err
	}
	c, err := corpus.Load(paths...)
	if err != nil {
		return nil, err
	}
	a.log.Debug("corpus loaded", "files", len(paths), "runes", c.Runes(), "hash", c.Hash()[:12])
	return c, nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// isLayoutFile reports whether arg names an existing layout file rather
// than a layout name.
func isLayoutFile(arg string) bool {
	switch filepath.Ext(arg) {
	case ".toml", ".json", ".yaml", ".yml":
	default:
		return false
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}
