package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"atlaswatch/internal/gate"
	"atlaswatch/internal/profile"
)

var (
	deepValue float64
	deepCost  float64
)

func init() {
	rootCmd.AddCommand(deepPassCmd)
	deepPassCmd.Flags().Float64Var(&deepValue, "value", 0, "Estimated value score (required)")
	deepPassCmd.Flags().Float64Var(&deepCost, "cost", 0, "Estimated cost score (required)")
	deepPassCmd.MarkFlagRequired("value")
	deepPassCmd.MarkFlagRequired("cost")
}

var deepPassCmd = &cobra.Command{
	Use:   "deep-pass",
	Short: "Decide deep-pass admission for value/cost scores",
	Long: "Admits when value minus cost reaches the fixed admission margin of\n" +
		"0.25. A profile with a zero deep-pass budget never admits.",
	RunE: runDeepPass,
}

func runDeepPass(cmd *cobra.Command, args []string) error {
	p, _, err := profile.LoadWithHash(profilePath)
	if err != nil {
		return err
	}

	if gate.New(p).ShouldEnterDeepPass(deepValue, deepCost) {
		fmt.Println("admit")
	} else {
		fmt.Println("shallow-only")
	}
	return nil
}
