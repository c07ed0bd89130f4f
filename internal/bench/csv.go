package bench

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

func WriteCSV(path string, records []Record) error {
	if d := dirOf(path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"run_id", "algo", "features", "tools", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"cost_best", "cost_mean", "cost_std",
		"baseline_cost", "improvement_mean", "tool_changes_mean",
		"iterations_mean", "converged_runs",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.RunID,
			r.Algo,
			itoa(r.Features),
			itoa(r.Tools),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.CostBest),
			ftoa(r.CostMean),
			ftoa(r.CostStd),

			ftoa(r.BaselineCost),
			ftoa(r.ImprovementMean),
			ftoa(r.ToolChangesMean),
			ftoa(r.IterationsMean),
			itoa(r.ConvergedRuns),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func dirOf(path string) string {
	d := filepath.Dir(path)
	if d == "." {
		return ""
	}
	return d
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
