package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"atlaswatch/internal/gate"
	"atlaswatch/internal/profile"
)

var (
	budgetNodes    uint64
	budgetSpans    uint64
	budgetDeep     uint64
	budgetDuration time.Duration
	budgetFormat   string
)

func init() {
	rootCmd.AddCommand(budgetsCmd)
	budgetsCmd.Flags().Uint64Var(&budgetNodes, "nodes", 0, "Observed node count")
	budgetsCmd.Flags().Uint64Var(&budgetSpans, "spans", 0, "Observed trace span count")
	budgetsCmd.Flags().Uint64Var(&budgetDeep, "deep-candidates", 0, "Observed deep-pass candidate count")
	budgetsCmd.Flags().DurationVar(&budgetDuration, "duration", 0, "Elapsed run duration (e.g. 12s)")
	budgetsCmd.Flags().StringVarP(&budgetFormat, "format", "f", "text", "Output format (text|json)")
}

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Check observed run usage against profile budgets",
	Long: "Checks each observed quantity against the profile's budgets independently\n" +
		"and reports the complete set of violated budget names.\n\n" +
		"Exit code 0 when all budgets hold, 1 when any is breached.",
	RunE: runBudgets,
}

func runBudgets(cmd *cobra.Command, args []string) error {
	p, _, err := profile.LoadWithHash(profilePath)
	if err != nil {
		return err
	}

	usage := gate.Usage{
		Nodes:          budgetNodes,
		Spans:          budgetSpans,
		DeepCandidates: budgetDeep,
		RunDuration:    budgetDuration,
	}
	violations := gate.New(p).EnforceBudgets(usage)

	switch budgetFormat {
	case "json":
		out, err := json.MarshalIndent(map[string]any{
			"profile":    p.Name,
			"violations": violations,
			"ok":         len(violations) == 0,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		if len(violations) == 0 {
			fmt.Println("within budgets")
		} else {
			fmt.Printf("violated: %s\n", strings.Join(violations, ", "))
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("%d budget(s) breached", len(violations))
	}
	return nil
}
