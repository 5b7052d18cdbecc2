package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tako0614/takomusic/cmd/tako/internal/report"
)

func newInspectCmd() *cobra.Command {
	var columns int

	cmd := &cobra.Command{
		Use:   "inspect <entry.tako>",
		Short: "Print a colorized piano-roll summary of a compiled score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := args[0]
			result, err := runPipeline(entry)
			if err != nil {
				return err
			}
			if result.bag.HasErrors() {
				report.Diagnostics(os.Stderr, result.bag)
				return fmt.Errorf("tako: %s failed to compile", entry)
			}

			fmt.Printf("%s (%d tracks, %d sounds)\n", entry, len(result.doc.Tracks), len(result.doc.Sounds))
			report.PianoRoll(os.Stdout, result.doc, columns)
			report.Diagnostics(os.Stderr, result.bag)
			return nil
		},
	}

	cmd.Flags().IntVar(&columns, "columns", 48, "width of the piano-roll sketch")
	return cmd
}
