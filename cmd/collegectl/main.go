package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "collegectl",
	Short: "college admin maintenance tool",
	Example: `collegectl migrate
collegectl seed --sample-data
collegectl reconcile --grace 5m`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd(), seedCmd(), reconcileCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
