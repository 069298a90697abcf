package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"manoonchai/internal/mcptools"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scoring tools over MCP on stdio",
		Long: `Runs a Model Context Protocol server on stdin/stdout exposing the tools
score_text, key_effort, triad_effort and list_layouts. Saved layouts are
available by name when the store can be opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []mcptools.Option{mcptools.WithWeights(a.weights())}

			st, err := a.openStore()
			if err != nil {
				a.log.Warn("saved layouts unavailable", "error", err)
			} else {
				defer st.Close()
				opts = append(opts, mcptools.WithStore(st))
			}

			a.log.Info("mcp server starting", "version", version)
			return server.ServeStdio(mcptools.NewServer(version, opts...))
		},
	}
}
