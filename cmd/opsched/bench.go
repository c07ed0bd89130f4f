package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"opsched/internal/aco"
	"opsched/internal/bench"
	"opsched/internal/config"
	"opsched/internal/opt"
)

var benchFlags struct {
	sizes        []int
	runs         int
	seed         int64
	instanceSeed int64
	area         float64
	tools        int
	out          string
	db           string
	workers      int
	perRunTO     time.Duration
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the sequence optimizer on seeded random instances",
	RunE:  runBench,
}

func init() {
	f := benchCmd.Flags()
	f.IntSliceVar(&benchFlags.sizes, "sizes", nil, "feature counts, e.g. 20,50,100")
	f.IntVar(&benchFlags.runs, "runs", 0, "runs per case with consecutive seeds")
	f.Int64Var(&benchFlags.seed, "seed", 0, "base seed of the optimizer runs")
	f.Int64Var(&benchFlags.instanceSeed, "instance-seed", 0, "base seed of the generated instances")
	f.Float64Var(&benchFlags.area, "area", 0, "side length of the plate features are placed on")
	f.IntVar(&benchFlags.tools, "tools", 0, "number of distinct tools")
	f.StringVar(&benchFlags.out, "out", "", "output CSV file")
	f.StringVar(&benchFlags.db, "db", "", "SQLite database to append the records to")
	f.IntVar(&benchFlags.workers, "workers", 0, "also run a parallel variant with this many workers")
	f.DurationVar(&benchFlags.perRunTO, "per-run-timeout", 0, "timeout of a single run; 0 disables it")
	rootCmd.AddCommand(benchCmd)
}

// applyBenchFlags overrides the configured bench settings with the flags set
// on the command line.
func applyBenchFlags(cmd *cobra.Command, c *config.BenchConfig) {
	f := cmd.Flags()
	if f.Changed("sizes") {
		c.Sizes = benchFlags.sizes
	}
	if f.Changed("runs") {
		c.Runs = benchFlags.runs
	}
	if f.Changed("seed") {
		c.Seed = benchFlags.seed
	}
	if f.Changed("instance-seed") {
		c.InstanceSeed = benchFlags.instanceSeed
	}
	if f.Changed("area") {
		c.Area = benchFlags.area
	}
	if f.Changed("tools") {
		c.Tools = benchFlags.tools
	}
	if f.Changed("out") {
		c.Out = benchFlags.out
	}
	if f.Changed("db") {
		c.DB = benchFlags.db
	}
}

func acoFactory(cfg aco.Config, a *app) func(seed int64) (opt.Sequencer, error) {
	return func(seed int64) (opt.Sequencer, error) {
		s, err := aco.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		s.Log = a.log
		return s, nil
	}
}

func cases(c config.BenchConfig) ([]bench.Case, error) {
	if c.Area <= 0 {
		return nil, fmt.Errorf("area must be > 0 (got %v)", c.Area)
	}
	out := make([]bench.Case, 0, len(c.Sizes))
	for i, n := range c.Sizes {
		if n <= 0 {
			return nil, fmt.Errorf("size %d: feature count must be > 0", n)
		}
		out = append(out, bench.Case{
			Features:     n,
			Tools:        c.Tools,
			Area:         c.Area,
			InstanceSeed: c.InstanceSeed + int64(i)*10_000 + int64(n)*100 + int64(c.Tools),
		})
	}
	return out, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	a, err := loadApp("bench")
	if err != nil {
		return err
	}
	bc := a.cfg.Bench
	applyBenchFlags(cmd, &bc)

	cs, err := cases(bc)
	if err != nil {
		return err
	}

	acoCfg := a.cfg.ACO
	acoCfg.MaxFeatures = max(acoCfg.MaxFeatures, maxSize(bc.Sizes))
	algos := []bench.Algorithm{{Name: "ACO", Factory: acoFactory(acoCfg, a)}}
	if benchFlags.workers > 1 {
		par := acoCfg
		par.Workers = benchFlags.workers
		algos = append(algos, bench.Algorithm{Name: fmt.Sprintf("ACO-W%d", par.Workers), Factory: acoFactory(par, a)})
	}

	runner := bench.Runner{
		Runs:          bc.Runs,
		BaseSeed:      bc.Seed,
		PerRunTimeout: benchFlags.perRunTO,
		RunID:         uuid.NewString(),
	}

	var records []bench.Record
	for _, c := range cs {
		for _, al := range algos {
			a.log.Infof("bench %s: %d features, %d tools (runs=%d)", al.Name, c.Features, c.Tools, runner.Runs)

			rec, err := runner.RunCase(cmd.Context(), c, al)
			if err != nil {
				return fmt.Errorf("%s n=%d: %w", al.Name, c.Features, err)
			}
			records = append(records, rec)

			a.log.Infof("  cost: best=%.2f mean=%.2f std=%.2f baseline=%.2f | time: mean=%.2fms std=%.2fms",
				rec.CostBest, rec.CostMean, rec.CostStd, rec.BaselineCost, rec.TimeMeanMs, rec.TimeStdMs)
		}
	}

	if err := bench.WriteCSV(bc.Out, records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	a.log.Infof("saved %s", bc.Out)

	if bc.DB != "" {
		store, err := bench.OpenStore(bc.DB)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				a.log.Errorf("store close: %v", err)
			}
		}()
		if err := store.Save(cmd.Context(), records); err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		a.log.Infof("saved run %s to %s", runner.RunID, bc.DB)
	}
	return writeJSON(cmd.OutOrStdout(), records)
}

func maxSize(sizes []int) int {
	m := 0
	for _, n := range sizes {
		m = max(m, n)
	}
	return m
}
