package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saxsrs/batchsched/internal/config"
)

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a batch config without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				if ve, ok := err.(*config.ValidationError); ok {
					for _, w := range ve.Warnings {
						fmt.Printf("warning: %s\n", w)
					}
				}
				return err
			}
			fmt.Printf("ok: %d sample(s), %d worker(s), %d checkpoint(s)\n",
				len(cfg.Samples), cfg.WorkerCount, len(cfg.Checkpoints))
			return nil
		},
	}
}
