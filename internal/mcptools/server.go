package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"manoonchai/internal/effort"
	"manoonchai/internal/store"
)

// Option configures NewServer.
type Option func(*options)

type options struct {
	store   *store.Store
	weights effort.Weights
}

// WithStore makes saved layouts available by name.
func WithStore(s *store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithWeights sets the model coefficients. The default is
// effort.DefaultWeights.
func WithWeights(w effort.Weights) Option {
	return func(o *options) { o.weights = w }
}

// NewServer creates an MCP server with every scoring tool registered.
func NewServer(version string, opts ...Option) *server.MCPServer {
	o := options{weights: effort.DefaultWeights()}
	for _, opt := range opts {
		opt(&o)
	}
	resolver := NewResolver(o.store, o.weights)

	s := server.NewMCPServer(
		"manoonchai",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	score := NewScoreTool(resolver)
	s.AddTool(score.Definition(), score.Handle)

	key := NewKeyTool(resolver)
	s.AddTool(key.Definition(), key.Handle)

	triad := NewTriadTool(resolver)
	s.AddTool(triad.Definition(), triad.Handle)

	list := NewListLayoutsTool(resolver)
	s.AddTool(list.Definition(), list.Handle)

	return s
}

const instructions = `manoonchai scores Thai keyboard layouts with a carpalx-style effort model.
Lower effort is better. Use list_layouts to see layout names, score_text to
compare layouts on a sample of text, and key_effort or triad_effort to explain
where the effort of a particular key or key sequence comes from.`
