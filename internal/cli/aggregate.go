package cli

import (
	"fmt"
	"io"

	"chatbot_server/config"
	"chatbot_server/core/service/corpus"
	"chatbot_server/internal/bootstrap"

	"github.com/spf13/cobra"
)

type aggregateOptions struct {
	dataDir string
	cap     int
	limit   int
	output  string
	asJSON  bool
}

// NewAggregateCmd creates the aggregate command.
func NewAggregateCmd() *cobra.Command {
	var opts aggregateOptions

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge all data sources into the consolidated training corpus",
		Long: `Read the synthetic corpus, the product catalogs, the sales and review
datasets and the user contributions from the data directory, normalize their
labels, and write one text,intent,sentiment CSV. Every intent is capped across
all sources together; missing source files are skipped.`,
		Example: `  chatbot-ml aggregate
  chatbot-ml aggregate --data-dir ./data --cap 500 --limit 50 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyAggregateFlags(cmd, cfg, &opts)
			return runAggregate(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the source datasets")
	cmd.Flags().IntVar(&opts.cap, "cap", 0, "Maximum rows per intent across all sources")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum accepted rows per external dataset")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output CSV (default: $CORPUS_PATH)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the per-source and per-intent summary as JSON")

	return cmd
}

func applyAggregateFlags(cmd *cobra.Command, cfg *config.Config, opts *aggregateOptions) {
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if cmd.Flags().Changed("cap") {
		cfg.IntentCap = opts.cap
	}
	if cmd.Flags().Changed("limit") {
		cfg.SourceLimit = opts.limit
	}
	if opts.output != "" {
		cfg.CorpusPath = opts.output
	}
}

func runAggregate(cmd *cobra.Command, cfg *config.Config, opts aggregateOptions) error {
	agg := corpus.NewAggregator(bootstrap.AggregatorConfig(cfg))
	c, err := agg.Aggregate(cmd.Context(), corpus.BuiltinSources(bootstrap.SourceOptions(cfg)))
	if err != nil {
		return err
	}
	if err := c.WriteCSVFile(cfg.CorpusPath); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.asJSON {
		return printJSON(w, map[string]any{
			"output":  cfg.CorpusPath,
			"rows":    c.Len(),
			"sources": c.Sources,
			"intents": c.Summary(),
		})
	}
	printAggregateSummary(w, c)
	fmt.Fprintf(w, "Wrote %d rows to %s\n", c.Len(), cfg.CorpusPath)
	return nil
}

func printAggregateSummary(w io.Writer, c *corpus.Corpus) {
	for _, s := range c.Sources {
		if s.Missing {
			fmt.Fprintf(w, "  %-20s missing\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "  %-20s %d accepted\n", s.Name, s.Accepted)
	}
	fmt.Fprintln(w, "Intent counts:")
	for _, ic := range c.Summary() {
		fmt.Fprintf(w, "  %-20s %d\n", ic.Intent, ic.Count)
	}
}
