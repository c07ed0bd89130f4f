package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opsched/internal/action"
	"opsched/internal/input"
)

var (
	seqFeatures string
	seqSeed     int64
	seqWorkers  int
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Optimize the visiting order of features",
	RunE:  runSequence,
}

func init() {
	sequenceCmd.Flags().StringVarP(&seqFeatures, "features", "f", "", "features file (yaml or json)")
	sequenceCmd.Flags().Int64Var(&seqSeed, "seed", 0, "random seed; 0 uses the clock")
	sequenceCmd.Flags().IntVar(&seqWorkers, "workers", 0, "parallel ant construction; 0 keeps the configured value")
	_ = sequenceCmd.MarkFlagRequired("features")
	rootCmd.AddCommand(sequenceCmd)
}

func runSequence(cmd *cobra.Command, args []string) error {
	a, err := loadApp("sequence")
	if err != nil {
		return err
	}
	fs, err := input.LoadFeatures(seqFeatures)
	if err != nil {
		return fmt.Errorf("load features: %w", err)
	}
	if seqWorkers > 0 {
		a.cfg.ACO.Workers = seqWorkers
	}
	return a.call(cmd, action.OptimizeSequence, map[string]any{"features": fs, "seed": seqSeed})
}
