package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"FinSignal/internal/di"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	applogger "FinSignal/pkg/logger"
)

func replayCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		file string
		risk string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Score a JSONL file of sentiment inputs offline and print one signal per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadReplayConfig(*configPath)
			if err != nil {
				return err
			}
			l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}

			cal, err := di.ProvideCalibration(cfg)
			if err != nil {
				return err
			}
			decider, err := di.ProvideDecider(cfg, l)
			if err != nil {
				return err
			}
			r, err := usecase.NewReplayer(di.ProvideEngine(cal, l), di.ProvideAnalyzer(cfg).Config(), decider, risk, l)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open inputs: %w", err)
				}
				defer f.Close()
				in = f
			}

			stats, err := r.Run(ctx, in, cmd.OutOrStdout())
			l.Info("replay finished",
				applogger.Int("lines", stats.Lines),
				applogger.Int("scored", stats.Scored),
				applogger.Int("skipped", stats.Skipped))
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "JSONL inputs, - for stdin")
	cmd.Flags().StringVar(&risk, "risk", "", "override every input's risk tolerance (conservative, moderate, aggressive)")
	return cmd
}

// loadReplayConfig falls back to defaults when the config file is absent; replay
// needs only the scoring, temporal and decision sections.
func loadReplayConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}
