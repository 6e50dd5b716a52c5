package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(context.Background()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(ctx context.Context) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "finsignal",
		Short:         "Sentiment-to-signal scoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(serveCmd(ctx, &configPath))
	root.AddCommand(replayCmd(ctx, &configPath))
	return root
}
