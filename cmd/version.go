package cmd

import (
	"fmt"

	"github.com/casegen-io/casegen/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the version of casegen`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("casegen v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
