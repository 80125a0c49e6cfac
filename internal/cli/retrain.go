package cli

import (
	"context"
	"errors"
	"fmt"

	"chatbot_server/adapter/out/mongodb"
	"chatbot_server/core/service/retrain"
	"chatbot_server/internal/bootstrap"

	"github.com/spf13/cobra"
)

// NewRetrainCmd creates the retrain command.
func NewRetrainCmd() *cobra.Command {
	var exportOnly string

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Rebuild corpus and models from logged user interactions",
		Long: `Export every logged user interaction from MongoDB to the user contribution
file, then regenerate the synthetic corpus, re-aggregate all sources and retrain
both models from scratch. Nothing is rebuilt when no interactions are logged.

A running server only picks up the new models after a reload, which
POST /admin/retrain does on its own.`,
		Example: `  MONGODB_URL=mongodb://localhost:27017 chatbot-ml retrain

  # Only export interactions
  chatbot-ml retrain --export-only ./data/user_contributions.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.MongoDBURL == "" {
				return errors.New("retrain requires MONGODB_URL")
			}
			ctx := cmd.Context()
			client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			runner := retrain.NewRunner(bootstrap.RetrainConfig(cfg),
				mongodb.NewInteractionAdapter(client.Database(cfg.MongoDBName)))
			w := cmd.OutOrStdout()

			if exportOnly != "" {
				n, err := runner.ExportInteractions(ctx, exportOnly)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Exported %d interactions to %s\n", n, exportOnly)
				return nil
			}

			report, err := runner.Run(ctx)
			if errors.Is(err, retrain.ErrNoInteractions) {
				fmt.Fprintln(w, "No user interactions found, nothing to retrain.")
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(w, report)
		},
	}

	cmd.Flags().StringVar(&exportOnly, "export-only", "", "Write interactions to this CSV and stop")

	return cmd
}
