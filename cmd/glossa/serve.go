package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/dshills/glossa/internal/mcptools"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Stdout carries the protocol.
			a, closeApp, err := openApp(cmd.Context(), g.options(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeApp()

			s := mcptools.NewServer(mcptools.NewSession(a.Engine()), version)
			a.Logger().Info("serving MCP over stdio", "version", version)
			return ignoreCanceled(server.ServeStdio(s))
		},
	}
}
