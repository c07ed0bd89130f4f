package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opsched/internal/action"
	"opsched/internal/input"
)

var (
	schedJobs     string
	schedRule     string
	schedMode     string
	schedMachines []string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule jobs with a dispatching rule, Johnson's rule or the job-shop simulator",
	RunE:  runSchedule,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare all dispatching rules on a single machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedule(cmd, action.ModeCompare)
	},
}

func init() {
	for _, c := range []*cobra.Command{scheduleCmd, compareCmd} {
		c.Flags().StringVarP(&schedJobs, "jobs", "j", "", "jobs file (yaml or json)")
		_ = c.MarkFlagRequired("jobs")
		rootCmd.AddCommand(c)
	}
	scheduleCmd.Flags().StringVarP(&schedRule, "rule", "r", "", "dispatching rule: FIFO, SPT, LPT, EDD, CR, SLACK")
	scheduleCmd.Flags().StringVarP(&schedMode, "mode", "m", "", "single, flow-shop, job-shop or compare")
	scheduleCmd.Flags().StringSliceVar(&schedMachines, "machines", nil, "machine list for the job shop, e.g. M1,M2")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	return schedule(cmd, schedMode)
}

func schedule(cmd *cobra.Command, mode string) error {
	a, err := loadApp("schedule")
	if err != nil {
		return err
	}
	jf, err := input.LoadJobs(schedJobs)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	machines := schedMachines
	if len(machines) == 0 {
		machines = jf.Machines
	}
	return a.call(cmd, action.ScheduleOperations, map[string]any{
		"jobs":     jf.Jobs,
		"machines": machines,
		"rule":     schedRule,
		"mode":     mode,
	})
}
