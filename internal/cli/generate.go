package cli

import (
	"fmt"
	"io"

	"chatbot_server/config"
	"chatbot_server/core/service/corpus"
	"chatbot_server/internal/bootstrap"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	templates string
	perIntent int
	seed      int64
	output    string
}

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic intent corpus from templates",
		Long: `Expand every intent template with random slot fillers and write a
text,intent CSV. Output is identical for the same templates and seed.`,
		Example: `  # Default templates, 400 rows per intent, into $DATA_DIR
  chatbot-ml generate

  # Custom templates and size
  chatbot-ml generate --templates ./templates.yaml --per-intent 50 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyGenerateFlags(cmd, cfg, &opts)
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.templates, "templates", "", "Template YAML file (default: built-in templates)")
	cmd.Flags().IntVar(&opts.perIntent, "per-intent", 0, "Rows generated per intent")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output CSV (default: $DATA_DIR/chatbot_intents.csv)")

	return cmd
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, opts *generateOptions) {
	if !cmd.Flags().Changed("templates") {
		opts.templates = cfg.TemplatesPath
	}
	if !cmd.Flags().Changed("per-intent") {
		opts.perIntent = cfg.PerIntent
	}
	if !cmd.Flags().Changed("seed") {
		opts.seed = cfg.Seed
	}
	if opts.output == "" {
		opts.output = bootstrap.SyntheticCorpusPath(cfg)
	}
}

func runGenerate(w io.Writer, opts generateOptions) error {
	set, err := corpus.LoadTemplates(opts.templates)
	if err != nil {
		return err
	}
	gen := corpus.NewGenerator(set, corpus.GeneratorConfig{PerIntent: opts.perIntent, Seed: opts.seed})
	n, err := gen.GenerateFile(opts.output)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d rows for %d intents to %s\n", n, len(set.Intents()), opts.output)
	return nil
}
