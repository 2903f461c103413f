package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"atlaswatch/internal/governance"
	"atlaswatch/internal/model"
)

var (
	gateQualified  bool
	gateEnergy     float64
	gateProtein    float64
	gateGovernance string
	gateDrift      float64
)

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().BoolVar(&gateQualified, "env-qualified", false, "Environment reports itself safety-qualified")
	gateCmd.Flags().Float64Var(&gateEnergy, "energy", 0, "Remaining host energy (joules)")
	gateCmd.Flags().Float64Var(&gateProtein, "protein", 0, "Remaining host protein (grams)")
	gateCmd.Flags().StringVar(&gateGovernance, "governance", "none", "Governance requirement (none|requires-governance|requires-multisig)")
	gateCmd.Flags().Float64Var(&gateDrift, "drift", 0, "Object's current drift score")
}

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the governance consumption decision",
	Long: "Evaluates the ordered chain: environment qualification, host resource\n" +
		"budget, then the governance-aware drift rule with its fixed 0.30\n" +
		"backstop.\n\nExit code 0 on pass, 1 on block.",
	RunE: runGate,
}

func runGate(cmd *cobra.Command, args []string) error {
	gov := model.GovernanceRequirement(gateGovernance)
	switch gov {
	case model.GovernanceNone, model.RequiresGovernance, model.RequiresMultisig:
	default:
		return fmt.Errorf("unknown governance requirement %q", gateGovernance)
	}

	obj := model.VirtualObjectDescriptor{
		ID:         model.NewVirtualObjectID(),
		Governance: gov,
		Drift:      model.DriftMetrics{DriftScore: gateDrift},
	}
	host := governance.HostBudget{
		RemainingEnergyJoules: gateEnergy,
		RemainingProteinGrams: gateProtein,
	}

	ok, reason := governance.EvaluateWithReason(governance.StaticQualifier(gateQualified), host, obj)
	if ok {
		fmt.Println("pass")
		return nil
	}
	fmt.Printf("block: %s\n", reason)
	return fmt.Errorf("governance gate blocked")
}
