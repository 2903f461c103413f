package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var profilePath string

var rootCmd = &cobra.Command{
	Use:   "atlaswatch",
	Short: "Drift-aware safety gate for extracted virtual objects",
	Long: "Tracks versioned snapshots of virtual objects extracted from diagrams,\n" +
		"telemetry, markup, schemas, and code modules; classifies each revision for\n" +
		"auto-use, display, or quarantine; and enforces per-domain runtime policy\n" +
		"with an auditable trail of denials.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Path to safety profile YAML (default ~/.atlaswatch/profile.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
