package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"chatbot_server/core/service/corpus"

	"github.com/spf13/cobra"
)

// NewExportFastTextCmd creates the export-fasttext command.
func NewExportFastTextCmd() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "export-fasttext",
		Short: "Export the consolidated corpus in fastText format",
		Long: `Convert the consolidated text,intent,sentiment corpus into one
"__label__<intent> <text>" line per row for external fastText tooling.`,
		Example: `  chatbot-ml export-fasttext --output ./data/intents.ft.txt
  chatbot-ml export-fasttext --input ./corpus.csv --output -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				input = cfg.CorpusPath
			}
			return runExportFastText(cmd.OutOrStdout(), input, output)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Consolidated corpus CSV (default: $CORPUS_PATH)")
	cmd.Flags().StringVar(&output, "output", "-", "Output file, - for stdout")

	return cmd
}

func runExportFastText(stdout io.Writer, input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	examples, err := corpus.ReadCorpusCSV(f)
	if err != nil {
		return err
	}

	if output == "-" || output == "" {
		return corpus.WriteFastText(stdout, examples)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	bw := bufio.NewWriter(out)
	if err := corpus.WriteFastText(bw, examples); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d lines to %s\n", len(examples), output)
	return nil
}
