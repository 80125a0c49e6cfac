/*
Package main is the entry point for the chatbot-ml pipeline CLI.

Usage:
  chatbot-ml [command]

Available Commands:
  generate         Generate the synthetic intent corpus from templates
  aggregate        Merge all data sources into the consolidated training corpus
  train-intent     Train the TF-IDF + logistic regression intent model
  train-sentiment  Train the bidirectional LSTM sentiment model
  retrain          Rebuild corpus and models from logged user interactions
  export-fasttext  Export the consolidated corpus in fastText format
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatbot_server/internal/cli"
	"chatbot_server/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger.Init(logger.Config{
		Level:   logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Output:  os.Stderr,
		Service: "chatbot-ml",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
