package schedule

import (
	"opsched/internal/rules"
	"opsched/internal/shop"
)

// RuleRow is one line of the rule comparison table.
type RuleRow struct {
	Rule            rules.Rule `json:"rule"`
	Makespan        float64    `json:"makespan"`
	AverageFlowTime float64    `json:"averageFlowTime"`
	TotalTardiness  float64    `json:"totalTardiness"`
	MaxTardiness    float64    `json:"maxTardiness"`
	TardyJobs       int        `json:"tardyJobs"`
}

type Comparison struct {
	Rows []RuleRow `json:"rows"`
	// BestByFlowTime and BestByTardiness name the first rule, in table order,
	// reaching the minimum of the respective column.
	BestByFlowTime  rules.Rule `json:"bestByFlowTime"`
	BestByTardiness rules.Rule `json:"bestByTardiness"`
}

// CompareRules runs SingleMachine once per rule over the same jobs.
func CompareRules(jobs []shop.Job) (Comparison, error) {
	if _, err := shop.ValidateJobs(jobs); err != nil {
		return Comparison{}, err
	}

	var cmp Comparison
	bestFlow, bestTard := -1, -1
	for _, r := range rules.All() {
		res, err := SingleMachine(jobs, r)
		if err != nil {
			return Comparison{}, err
		}
		row := RuleRow{
			Rule:            r,
			Makespan:        res.Makespan,
			AverageFlowTime: res.AverageFlowTime,
			TotalTardiness:  res.TotalTardiness,
			MaxTardiness:    res.MaxTardiness,
			TardyJobs:       res.TardyJobs,
		}
		cmp.Rows = append(cmp.Rows, row)

		i := len(cmp.Rows) - 1
		if bestFlow < 0 || row.AverageFlowTime < cmp.Rows[bestFlow].AverageFlowTime {
			bestFlow = i
		}
		if bestTard < 0 || row.TotalTardiness < cmp.Rows[bestTard].TotalTardiness {
			bestTard = i
		}
	}
	cmp.BestByFlowTime = cmp.Rows[bestFlow].Rule
	cmp.BestByTardiness = cmp.Rows[bestTard].Rule
	return cmp, nil
}

// Row returns the row of rule r.
func (c Comparison) Row(r rules.Rule) (RuleRow, bool) {
	for _, row := range c.Rows {
		if row.Rule == r {
			return row, true
		}
	}
	return RuleRow{}, false
}
