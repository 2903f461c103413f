package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"atlaswatch/internal/policy"
	"atlaswatch/internal/profile"
	"atlaswatch/internal/reload"
)

var watchPolicyPath string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPolicyPath, "policy-config", "", "Path to policy registry YAML to watch")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch profile and policy files and hot-reload them",
	Long: "Validates the profile and policy registry on every change burst and\n" +
		"logs the reload outcome. Runs until interrupted.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Initial load so a broken config fails fast instead of at first edit.
	if _, _, err := profile.LoadWithHash(profilePath); err != nil {
		return err
	}
	reg, _, err := policy.LoadWithHash(watchPolicyPath)
	if err != nil {
		return err
	}

	w, err := reload.New([]string{profilePath, watchPolicyPath}, logger, func() error {
		if _, _, err := profile.LoadWithHash(profilePath); err != nil {
			return err
		}
		next, hash, err := policy.LoadWithHash(watchPolicyPath)
		if err != nil {
			return err
		}
		replacement := make(map[string]policy.RuntimePolicy)
		for _, d := range next.Domains() {
			replacement[d] = next.PolicyFor(d)
		}
		reg.Replace(replacement)
		logger.Info().Str("policy_hash", hash).Int("domains", len(replacement)).Msg("policies swapped")
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().Strs("paths", w.Paths()).Msg("watching configuration")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
