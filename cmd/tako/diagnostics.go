package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/tako0614/takomusic/cmd/tako/internal/report"
)

func newDiagnosticsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diagnostics <entry.tako>",
		Short: "Run the full pipeline and print only its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := args[0]
			result, err := runPipeline(entry)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(result.bag.All(), "", "  ")
				if err != nil {
					return fmt.Errorf("tako: marshaling diagnostics: %w", err)
				}
				fmt.Println(string(data))
			} else {
				report.Diagnostics(os.Stdout, result.bag)
			}

			if result.bag.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print diagnostics as a JSON array")
	return cmd
}
