package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"atlaswatch/internal/audit"
	"atlaswatch/internal/excavate"
	"atlaswatch/internal/gate"
	"atlaswatch/internal/governance"
	"atlaswatch/internal/ledger"
	"atlaswatch/internal/model"
	"atlaswatch/internal/profile"
	"atlaswatch/internal/store/sqlite"
)

var (
	passInputPath string
	passDBPath    string
	passTrailPath string
)

func init() {
	rootCmd.AddCommand(passCmd)
	passCmd.Flags().StringVar(&passInputPath, "input", "", "Path to pass input YAML (required)")
	passCmd.Flags().StringVar(&passDBPath, "db", "", "SQLite database path (empty = in-memory store)")
	passCmd.Flags().StringVar(&passTrailPath, "audit-trail", "", "Append denial audit events to this JSONL file")
	passCmd.MarkFlagRequired("input")
}

var passCmd = &cobra.Command{
	Use:   "pass",
	Short: "Run one extraction pass end to end",
	Long: "Loads a pass description from YAML, enforces budgets, decides deep-pass\n" +
		"admission, classifies the revision, records the snapshot and metrics in\n" +
		"the ledger, and runs the governance gate for governed objects.\n" +
		"Prints the pass result as JSON.",
	RunE: runPass,
}

// passFile is the YAML shape the pass command consumes.
type passFile struct {
	Object struct {
		ID         string `yaml:"id"`
		Kind       string `yaml:"kind"`
		TrustTier  string `yaml:"trust_tier"`
		Governance string `yaml:"governance"`
		Name       string `yaml:"name"`
		OriginURI  string `yaml:"origin_uri"`
	} `yaml:"object"`
	Payload      string                    `yaml:"payload"`
	Topology     *model.GraphTopologyStats `yaml:"topology"`
	Stability    model.StabilityMetrics    `yaml:"stability"`
	Drift        model.DriftMetrics        `yaml:"drift"`
	Confidence   float64                   `yaml:"confidence"`
	ValueScore   float64                   `yaml:"value_score"`
	CostScore    float64                   `yaml:"cost_score"`
	Usage struct {
		Nodes          uint64        `yaml:"nodes"`
		Spans          uint64        `yaml:"spans"`
		DeepCandidates uint64        `yaml:"deep_candidates"`
		RunDuration    time.Duration `yaml:"run_duration"`
	} `yaml:"usage"`
	EnvQualified bool                  `yaml:"env_qualified"`
	Host         governance.HostBudget `yaml:"host"`
}

func runPass(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(passInputPath)
	if err != nil {
		return fmt.Errorf("read pass input: %w", err)
	}
	var in passFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse pass input: %w", err)
	}

	p, _, err := profile.LoadWithHash(profilePath)
	if err != nil {
		return err
	}

	var store ledger.Store
	if passDBPath != "" {
		db, err := sqlite.Open(passDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	} else {
		store = ledger.NewMemoryStore()
	}

	var sink audit.Sink = audit.Discard
	if passTrailPath != "" {
		trail, err := audit.OpenTrail(passTrailPath)
		if err != nil {
			return err
		}
		defer trail.Close()
		sink = trail
	}

	descriptor, err := buildDescriptor(in)
	if err != nil {
		return err
	}

	runner := &excavate.Runner{
		Gate:   gate.New(p),
		Ledger: ledger.New(store, p),
		Env:    governance.StaticQualifier(in.EnvQualified),
		Host:   in.Host,
		Sink:   sink,
	}

	result, err := runner.RunPass(context.Background(), excavate.PassInput{
		Descriptor: descriptor,
		Payload:    []byte(in.Payload),
		Topology:   in.Topology,
		Stability:  in.Stability,
		Drift:      in.Drift,
		Confidence: in.Confidence,
		ValueScore: in.ValueScore,
		CostScore:  in.CostScore,
		Usage: gate.Usage{
			Nodes:          in.Usage.Nodes,
			Spans:          in.Usage.Spans,
			DeepCandidates: in.Usage.DeepCandidates,
			RunDuration:    in.Usage.RunDuration,
		},
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func buildDescriptor(in passFile) (model.VirtualObjectDescriptor, error) {
	var d model.VirtualObjectDescriptor

	if in.Object.ID != "" {
		id, err := uuid.Parse(in.Object.ID)
		if err != nil {
			return d, fmt.Errorf("invalid object id: %w", err)
		}
		d.ID = id
	} else {
		d.ID = model.NewVirtualObjectID()
	}

	d.Kind = model.VirtualObjectKind(in.Object.Kind)
	if !model.ValidKind(d.Kind) {
		return d, fmt.Errorf("unknown object kind %q", in.Object.Kind)
	}

	d.TrustTier = model.TrustTier(in.Object.TrustTier)
	if d.TrustTier == "" {
		d.TrustTier = model.TierEphemeral
	}

	d.Governance = model.GovernanceRequirement(in.Object.Governance)
	if d.Governance == "" {
		d.Governance = model.GovernanceNone
	}
	switch d.Governance {
	case model.GovernanceNone, model.RequiresGovernance, model.RequiresMultisig:
	default:
		return d, fmt.Errorf("unknown governance requirement %q", in.Object.Governance)
	}

	d.Name = in.Object.Name
	d.OriginURI = in.Object.OriginURI
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	return d, nil
}
