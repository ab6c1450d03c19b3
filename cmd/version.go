package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigilo-project/vigilo/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Vigilo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Vigilo %s (%s)\n", version.Version, version.InstallationSource)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
