package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the assetctl entry point; subcommand packages attach to it
// through their Init functions.
var RootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Asset lifecycle CLI",
	Long:  "Command line interface for the asset lifecycle API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
