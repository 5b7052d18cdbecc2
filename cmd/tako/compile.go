package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tako0614/takomusic/cmd/tako/internal/report"
	"github.com/tako0614/takomusic/internal/ir"
	"github.com/tako0614/takomusic/renderer/midi"
)

func newCompileCmd() *cobra.Command {
	var outPath string
	var midiPath string

	cmd := &cobra.Command{
		Use:   "compile <entry.tako>",
		Short: "Compile a score to IR, optionally rendering a MIDI file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := args[0]
			log.Printf("tako: compiling %s", entry)

			result, err := runPipeline(entry)
			if err != nil {
				return err
			}
			if result.bag.HasErrors() {
				report.Diagnostics(os.Stderr, result.bag)
				return fmt.Errorf("tako: %s failed to compile", entry)
			}

			out, err := ir.Marshal(result.doc)
			if err != nil {
				return fmt.Errorf("tako: marshaling IR: %w", err)
			}
			if err := writeOutput(outPath, out); err != nil {
				return err
			}

			if midiPath != "" {
				smf, err := midi.Render(result.doc, result.bag)
				if err != nil {
					report.Diagnostics(os.Stderr, result.bag)
					return fmt.Errorf("tako: rendering MIDI: %w", err)
				}
				f, err := os.Create(midiPath)
				if err != nil {
					return fmt.Errorf("tako: creating %s: %w", midiPath, err)
				}
				defer f.Close()
				if _, err := smf.WriteTo(f); err != nil {
					return fmt.Errorf("tako: writing %s: %w", midiPath, err)
				}
				log.Printf("tako: wrote %s", midiPath)
			}

			report.Diagnostics(os.Stderr, result.bag)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "write IR JSON here instead of stdout")
	cmd.Flags().StringVar(&midiPath, "midi", "", "also render a Standard MIDI File to this path")
	return cmd
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tako: writing %s: %w", path, err)
	}
	return nil
}
