package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saxsrs/batchsched/internal/config"
	"github.com/saxsrs/batchsched/internal/logging"
	"github.com/saxsrs/batchsched/internal/runtime"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
)

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load a batch config and run it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			return runBatch(configPath, verbose)
		},
	}
}

func runBatch(path string, verbose bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	samples, err := config.BuildSamples(cfg)
	if err != nil {
		return err
	}

	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Config{Level: level, Format: logging.FormatText})

	reporter := newProgressReporter(len(samples))

	rt := runtime.New(
		runtime.Config{WorkerCount: cfg.WorkerCount, MaxStages: cfg.MaxStages},
		stage.NewDefaultRegistry(),
		log,
		nil,
		runtime.Callbacks{
			OnSample:   reporter.onSample,
			OnProgress: reporter.onProgress,
		},
	)

	if err := rt.SetCheckpoints(cfg.Checkpoints); err != nil {
		return err
	}
	for _, s := range samples {
		if err := rt.AddSample(s); err != nil {
			return err
		}
	}

	code := rt.RunSync(context.Background())
	reporter.reportFinal(code)
	if code != status.Ok {
		return fmt.Errorf("run ended with status %s", code)
	}
	return nil
}
