package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"atlaswatch/internal/policy"
)

var (
	policyConfigPath string
	policyDomain     string
)

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.PersistentFlags().StringVar(&policyConfigPath, "config", "", "Path to policy registry YAML (default ~/.atlaswatch/policies.yaml)")
	policyShowCmd.Flags().StringVar(&policyDomain, "domain", "", "Show the resolved policy for one domain")
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the per-domain policy registry",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print registered domains or one resolved policy",
	Long: "Without --domain, lists registered domains. With --domain, prints the\n" +
		"resolved policy for it; unregistered domains resolve to the\n" +
		"deny-by-default policy scoped to the requested name.",
	RunE: runPolicyShow,
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	reg, hash, err := policy.LoadWithHash(policyConfigPath)
	if err != nil {
		return err
	}

	if policyDomain != "" {
		p := reg.PolicyFor(policyDomain)
		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	domains := reg.Domains()
	sort.Strings(domains)
	fmt.Printf("registry %s\n", hash)
	if len(domains) == 0 {
		fmt.Println("no domains registered (everything denied by default)")
		return nil
	}
	for _, d := range domains {
		p := reg.PolicyFor(d)
		fmt.Printf("%s\ttelemetry=%v cross_origin=%v sdks=%d mode=%s\n",
			d, p.AllowTelemetry, p.AllowCrossOriginIntrospection, len(p.AllowedSDKs), p.CitizenMode)
	}
	return nil
}
