package cli

import (
	"fmt"

	"chatbot_server/config"
	"chatbot_server/core/service/training"
	"chatbot_server/internal/bootstrap"

	"github.com/spf13/cobra"
)

type trainIntentOptions struct {
	corpus  string
	folds   int
	maxIter int
	workers int
}

// NewTrainIntentCmd creates the train-intent command.
func NewTrainIntentCmd() *cobra.Command {
	var opts trainIntentOptions

	cmd := &cobra.Command{
		Use:   "train-intent",
		Short: "Train the TF-IDF + logistic regression intent model",
		Long: `Fit the TF-IDF vectorizer and the class-balanced logistic regression on the
consolidated corpus, save both artifacts to the model directory, then report
stratified cross-validation accuracy.`,
		Example: `  chatbot-ml train-intent
  chatbot-ml train-intent --corpus ./data/consolidated_training_data.csv --folds 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.corpus != "" {
				cfg.CorpusPath = opts.corpus
			}
			if cmd.Flags().Changed("folds") {
				cfg.CVFolds = opts.folds
			}
			if cmd.Flags().Changed("max-iter") {
				cfg.LogRegMaxIter = opts.maxIter
			}
			if cmd.Flags().Changed("workers") {
				cfg.TrainWorkers = opts.workers
			}
			return runTrainIntent(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Consolidated corpus CSV (default: $CORPUS_PATH)")
	cmd.Flags().IntVar(&opts.folds, "folds", 5, "Cross-validation folds")
	cmd.Flags().IntVar(&opts.maxIter, "max-iter", 1000, "Maximum optimizer iterations")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel fold workers (default: GOMAXPROCS)")

	return cmd
}

func runTrainIntent(cmd *cobra.Command, cfg *config.Config) error {
	ic := bootstrap.IntentConfig(cfg)
	report, err := training.NewIntentTrainer(ic).Train(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Saved %s and %s\n", ic.VectorizerPath, ic.ModelPath)
	return printJSON(w, report)
}

type trainSentimentOptions struct {
	corpus    string
	limit     int
	epochs    int
	batchSize int
}

// NewTrainSentimentCmd creates the train-sentiment command.
func NewTrainSentimentCmd() *cobra.Command {
	var opts trainSentimentOptions

	cmd := &cobra.Command{
		Use:   "train-sentiment",
		Short: "Train the bidirectional LSTM sentiment model",
		Long: `Read rated reviews (fastText __label__N lines, UTF-16 or UTF-8, or a CSV with
text and rating columns), map ratings to sentiments, train the recurrent
network and save the network, tokenizer and label encoder artifacts.`,
		Example: `  chatbot-ml train-sentiment
  chatbot-ml train-sentiment --corpus ./data/train.ft.txt --limit 2000 --epochs 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.corpus != "" {
				cfg.SentimentCorpusPath = opts.corpus
			}
			if cmd.Flags().Changed("limit") {
				cfg.SentimentLimit = opts.limit
			}
			if cmd.Flags().Changed("epochs") {
				cfg.Epochs = opts.epochs
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = opts.batchSize
			}
			return runTrainSentiment(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Rated review corpus (default: $SENTIMENT_CORPUS_PATH)")
	cmd.Flags().IntVar(&opts.limit, "limit", 2000, "Maximum lines read from the corpus")
	cmd.Flags().IntVar(&opts.epochs, "epochs", 5, "Training epochs")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 128, "Mini-batch size")

	return cmd
}

func runTrainSentiment(cmd *cobra.Command, cfg *config.Config) error {
	sc := bootstrap.SentimentConfig(cfg)
	report, err := training.NewSentimentTrainer(sc).Train(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Saved %s, %s and %s\n", sc.NetworkPath, sc.TokenizerPath, sc.EncoderPath)
	return printJSON(w, report)
}
