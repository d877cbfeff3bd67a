package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/glossa/internal/annotation"
	"github.com/dshills/glossa/internal/notes"
)

// checkResult is the JSON form of the check command.
type checkResult struct {
	Namespace   string         `json:"namespace"`
	Defaulted   bool           `json:"defaulted"`
	Annotations int            `json:"annotations"`
	Faults      []faultSummary `json:"faults"`
}

type faultSummary struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the session, repair inconsistencies and report them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp(cmd.Context(), g.options(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeApp()

			report := a.Report()
			res := checkResult{
				Namespace:   a.Repository().Namespace(),
				Defaulted:   report.Defaulted,
				Annotations: len(a.Engine().IDs()),
				Faults:      []faultSummary{},
			}
			for _, f := range report.Faults {
				res.Faults = append(res.Faults, faultSummary{Kind: string(f.Kind), ID: f.ID, Detail: f.Detail})
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}

			fmt.Fprintf(out, "namespace:   %s\n", res.Namespace)
			fmt.Fprintf(out, "annotations: %d\n", res.Annotations)
			if res.Defaulted {
				fmt.Fprintln(out, "document:    empty store, default content used")
			}
			if len(res.Faults) == 0 {
				fmt.Fprintln(out, "consistent")
				return nil
			}
			fmt.Fprintf(out, "corrected %d fault(s):\n", len(res.Faults))
			for _, f := range res.Faults {
				fmt.Fprintf(out, "  %s %s %s\n", f.Kind, f.ID, f.Detail)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newNotesCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON bool
		match  string
	)
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List annotations with their notes in document order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp(cmd.Context(), g.options(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeApp()

			var anns []annotation.Annotation
			for _, ann := range a.Engine().Annotations() {
				if notes.Matches(ann.Note, match) || notes.Matches(ann.Text, match) {
					anns = append(anns, ann)
				}
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if anns == nil {
					anns = []annotation.Annotation{}
				}
				return writeJSON(out, anns)
			}
			if len(anns) == 0 {
				fmt.Fprintln(out, "no notes")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTEXT\tNOTE")
			for _, ann := range anns {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ann.ID, ann.Text, ann.Note)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the notes as JSON")
	cmd.Flags().StringVarP(&match, "match", "m", "", "only list notes whose note or marked text contains this string")
	return cmd
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the document content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp(cmd.Context(), g.options(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeApp()

			if text {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), a.Engine().Document().TextContent())
				return err
			}
			markup, err := a.Engine().Markup()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), markup)
			return err
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print plain text instead of markup")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
