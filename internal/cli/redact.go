package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"atlaswatch/internal/gate"
)

func init() {
	rootCmd.AddCommand(redactCmd)
}

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "Redact structured identifiers from text",
	Long: "Replaces national-identifier-like digit groups, payment-card-like digit\n" +
		"runs, and email-like strings with " + gate.Marker + ". Reads stdin when no\n" +
		"argument is given. Re-redacting already-redacted text changes nothing.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRedact,
}

func runRedact(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	out := gate.Redact(text)
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}
