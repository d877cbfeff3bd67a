// Package main is the entry point for glossa.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/glossa/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config    string
	logLevel  string
	namespace string
}

func (g *globalFlags) options(console io.Writer) app.Options {
	return app.Options{
		ConfigPath: g.config,
		LogLevel:   g.logLevel,
		Namespace:  g.namespace,
		Console:    console,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "glossa",
		Short:         "Annotate documents with inline notes",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "configuration file (default: glossa.toml or the user config dir)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVarP(&g.namespace, "namespace", "n", "", "storage namespace of the session")

	root.AddCommand(
		newEditCmd(g),
		newServeCmd(g),
		newCheckCmd(g),
		newNotesCmd(g),
		newExportCmd(g),
	)
	return root
}

// openApp starts the application and returns it with a cleanup that
// reports close errors on stderr.
func openApp(ctx context.Context, opts app.Options) (*app.Application, func(), error) {
	a, err := app.New(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: closing: %v\n", err)
		}
	}, nil
}

// defaultLogFile is where the terminal editor logs when no file is
// configured.
func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "glossa", "glossa.log")
}
