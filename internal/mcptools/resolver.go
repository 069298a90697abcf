// Package mcptools exposes the effort model as MCP tools.
//
// Each tool is a struct holding its dependencies, with Definition returning
// the mcp.Tool schema and Handle serving a call. Failures the caller can fix
// (an unknown layout, a character not on the layout) are reported as tool
// errors rather than protocol errors.
package mcptools

import (
	"errors"
	"fmt"

	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/store"
)

// ErrUnknownLayout is returned when a name is neither a preset nor a stored
// layout.
var ErrUnknownLayout = errors.New("unknown layout")

// Resolver turns layout names into effort models. Presets are checked
// first, then layouts saved in the store.
type Resolver struct {
	store   *store.Store
	weights effort.Weights
}

// NewResolver creates a resolver. st may be nil, in which case only presets
// resolve.
func NewResolver(st *store.Store, w effort.Weights) *Resolver {
	return &Resolver{store: st, weights: w}
}

// Layout returns a fresh layout for name. An empty name means the default
// preset.
func (r *Resolver) Layout(name string) (*layout.Layout, error) {
	if name == "" {
		name = layout.DefaultPreset
	}
	l, err := layout.Load(name, layout.Mask{})
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, layout.ErrUnknownPreset) {
		return nil, err
	}

	if r.store != nil {
		rec, err := r.store.GetLayoutByName(name)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec.Layout()
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
}

// Model returns an effort model over the named layout.
func (r *Resolver) Model(name string) (*effort.Model, error) {
	l, err := r.Layout(name)
	if err != nil {
		return nil, err
	}
	return effort.NewModel(l, r.weights), nil
}
