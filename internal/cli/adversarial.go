package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/adversarial"
	"github.com/roach88/graphreplay/internal/config"
	"github.com/roach88/graphreplay/internal/ir"
	"github.com/roach88/graphreplay/internal/logging"
	"github.com/roach88/graphreplay/internal/store"
)

// AdversarialOptions holds flags shared by the adversarial subcommands.
type AdversarialOptions struct {
	*RootOptions
	OutputDir       string
	AdversarialTool string
	ManifestPath    string
}

// NewAdversarialCommand creates the adversarial command group.
func NewAdversarialCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdversarialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "adversarial",
		Short: "Build fuzz seed ledgers and promote crash findings",
		Long: `Turn a threat taxonomy into a deterministic fuzz seed ledger, then triage
the harness events and promote every finding into the regression fixture
bundle. Both stages are idempotent: rerunning them over the same input
rewrites the same files.`,
	}

	cmd.PersistentFlags().StringVar(&opts.OutputDir, "output-dir", "", "directory for ledger, triage and fixture artifacts (required)")
	cmd.PersistentFlags().StringVar(&opts.AdversarialTool, "adversarial-tool", "", "fuzz harness binary named in replay commands (default: adversarial_tool from config)")
	_ = cmd.MarkPersistentFlagRequired("output-dir")

	ledger := &cobra.Command{
		Use:           "ledger",
		Short:         "Expand a threat taxonomy into the seed ledger",
		Example:       `  graphreplay adversarial ledger --manifest taxonomy.yaml --output-dir out/adversarial`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdversarialLedger(cmd, opts)
		},
	}
	ledger.Flags().StringVar(&opts.ManifestPath, "manifest", "", "threat taxonomy manifest, YAML or JSON (required)")
	_ = ledger.MarkFlagRequired("manifest")

	triage := &cobra.Command{
		Use:           "triage",
		Short:         "Triage harness events and promote regression fixtures",
		Example:       `  graphreplay adversarial triage --output-dir out/adversarial`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdversarialTriage(cmd, opts)
		},
	}

	cmd.AddCommand(ledger, triage)
	return cmd
}

// tool resolves the fuzz harness name: flag, then config, then default.
func (o *AdversarialOptions) tool() (string, error) {
	if o.AdversarialTool != "" {
		return o.AdversarialTool, nil
	}
	if o.ConfigPath == "" {
		return config.DefaultAdversarialTool, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.AdversarialTool, nil
}

func (o *AdversarialOptions) pipeline(mirror adversarial.FixtureMirror) (*adversarial.Pipeline, error) {
	tool, err := o.tool()
	if err != nil {
		return nil, err
	}
	p, err := adversarial.NewPipeline(tool, ir.EnvironmentFingerprint(), mirror, logging.New("adversarial"))
	if err != nil {
		return nil, configError(err)
	}
	return p, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runAdversarialLedger(cmd *cobra.Command, opts *AdversarialOptions) error {
	p, err := opts.pipeline(nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output dir", err)
	}
	res, err := p.RunLedger(commandContext(cmd), opts.ManifestPath, opts.OutputDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "seed ledger failed", err)
	}
	return writeReport(cmd.OutOrStdout(), res.Report)
}

func runAdversarialTriage(cmd *cobra.Command, opts *AdversarialOptions) error {
	ledger, err := store.Open(filepath.Join(opts.OutputDir, store.FileName))
	if err != nil {
		return WrapExitError(ExitCommandError, "open run ledger", err)
	}
	defer ledger.Close()

	p, err := opts.pipeline(ledger)
	if err != nil {
		return err
	}
	res, err := p.RunTriage(commandContext(cmd), opts.OutputDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "crash triage failed", err)
	}
	return writeReport(cmd.OutOrStdout(), res.Report)
}
