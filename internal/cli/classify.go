package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"atlaswatch/internal/gate"
	"atlaswatch/internal/profile"
)

var (
	classifyConfidence float64
	classifyDrift      float64
	classifyFormat     string
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().Float64Var(&classifyConfidence, "confidence", 0, "Extraction confidence in [0,1] (required)")
	classifyCmd.Flags().Float64Var(&classifyDrift, "drift", 0, "Drift score in [0,1] (required)")
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "Output format (text|json)")
	classifyCmd.MarkFlagRequired("confidence")
	classifyCmd.MarkFlagRequired("drift")
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a revision by confidence and drift",
	Long: "Applies the profile's ordered threshold tests and prints exactly one of\n" +
		"auto-use, show-with-warning, or quarantine.",
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	p, hash, err := profile.LoadWithHash(profilePath)
	if err != nil {
		return err
	}

	verdict := gate.New(p).Classify(classifyConfidence, classifyDrift)

	switch classifyFormat {
	case "json":
		out, err := json.MarshalIndent(map[string]any{
			"classification": verdict,
			"confidence":     classifyConfidence,
			"drift":          classifyDrift,
			"profile":        p.Name,
			"profile_hash":   hash,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Println(verdict)
	}
	return nil
}
