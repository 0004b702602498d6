package main

import (
	"quarry/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Quarry - source code search server",
	Long: `Quarry serves precomputed source-code search indexes over HTTP: rendered
source pages, full-text and identifier search, symbol cross-references and
definition lookup across one or more indexed trees.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("Quarry version {{.Version}}\n")
}
