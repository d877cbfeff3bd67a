package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/glossa/internal/terminal"
)

func newEditCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the session in the terminal editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts := g.options(cmd.ErrOrStderr())
			opts.DefaultLogFile = defaultLogFile()

			a, closeApp, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer closeApp()
			for _, f := range a.Report().Faults {
				fmt.Fprintf(cmd.ErrOrStderr(), "corrected: %s %s %s\n", f.Kind, f.ID, f.Detail)
			}

			screen, err := terminal.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			defer screen.Fini()

			ed := terminal.New(screen, a.Engine(),
				terminal.WithLogger(a.Logger()),
				terminal.WithControllerFactory(a.NewController))
			defer ed.Close()
			return ignoreCanceled(ed.Run(ctx))
		},
	}
}
