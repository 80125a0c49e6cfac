package cli

import (
	"io"

	"chatbot_server/config"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the offline pipeline commands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatbot-ml",
		Short: "Build corpora and train the chatbot models",
		Long: `chatbot-ml runs the offline half of the chatbot: it expands intent templates
into a synthetic corpus, merges every data source into one consolidated corpus,
trains the intent and sentiment models, and rebuilds everything from logged
user interactions.

Paths, caps and seeds default to the same environment variables the server
reads (DATA_DIR, MODEL_DIR, CORPUS_PATH, SEED, ...). Flags override them.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		NewGenerateCmd(),
		NewAggregateCmd(),
		NewTrainIntentCmd(),
		NewTrainSentimentCmd(),
		NewRetrainCmd(),
		NewExportFastTextCmd(),
	)
	return root
}

// loadConfig reads the environment configuration shared with the server.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
