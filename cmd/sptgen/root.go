package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/app"
	"github.com/upb/spt-policy-engineer/config"
	"github.com/upb/spt-policy-engineer/internal/observability"
)

// annotation marking commands that need providers wired before they run
const needsDeps = "needs-deps"

// cli carries flag values and the dependencies built for a command run.
type cli struct {
	provider string
	model    string
	apiKey   string

	iterations int
	output     string
	casesFile  string

	deps   *app.Dependencies
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "sptgen",
		Short: "Generate SimplePolicyTalk policies from natural-language requirements",
		Long: `sptgen turns natural-language AWS access requirements into a structured
requirements checklist and SimplePolicyTalk (SPT) policy statements using a
completion model, and records repeated samples as test data.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.provider, "provider", "", "completion provider: openai or gemini (or set LLM_PROVIDER)")
	flags.StringVar(&c.model, "model", "", "completion model (or set LLM_MODEL)")
	flags.StringVar(&c.apiKey, "api-key", "", "provider API key, overrides OPENAI_API_KEY / GEMINI_API_KEY")

	root.AddCommand(
		newBatchCmd(c),
		newInteractiveCmd(c),
		newExamplesCmd(),
	)
	return root
}

// setup loads configuration and wires dependencies for commands that call
// the completion service.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[needsDeps] != "true" {
		return nil
	}

	var opts []config.Option
	if c.provider != "" {
		opts = append(opts, config.WithProvider(c.provider))
	}
	if c.model != "" {
		opts = append(opts, config.WithModel(c.model))
	}
	if c.apiKey != "" {
		opts = append(opts, config.WithAPIKey(c.apiKey))
	}
	if cmd.Flags().Changed("iterations") {
		opts = append(opts, config.WithIterations(c.iterations))
	}
	if cmd.Flags().Changed("output") {
		opts = append(opts, config.WithOutputPath(c.output))
	}

	cfg, err := config.New(cmd.Context(), opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return err
	}
	c.logger = logger

	deps, err := app.NewDependencies(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.deps = deps
	return nil
}
