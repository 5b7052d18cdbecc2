// Command tako compiles TakoMusic scores to IR and Standard MIDI Files.
// It replaces leafo-songtool's single flag-parsed main() with a cobra
// subcommand tree, since a compiler pipeline naturally grows more verbs
// (compile, inspect, diagnostics) than one chart-conversion tool ever
// needed.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "tako",
		Short:         "Compile and inspect TakoMusic scores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newDiagnosticsCmd())

	if err := root.Execute(); err != nil {
		log.Printf("tako: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
