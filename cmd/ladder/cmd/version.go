package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the ladder CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ladder version %s\n", version)
		fmt.Fprintln(out, "Laddered take-profit backtester for US equities")
		fmt.Fprintln(out, "https://github.com/rustyeddy/ladder")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
