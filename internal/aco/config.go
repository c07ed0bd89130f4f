package aco

import (
	"fmt"
	"time"

	"opsched/internal/sequence"
)

type Config struct {
	NumAnts    int `json:"numAnts"`
	Iterations int `json:"iterations"`

	// Alpha - вес феромона, Beta - вес эвристики (1/расстояние).
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`

	Evaporation float64 `json:"evaporation"`
	Q           float64 `json:"q"`

	ElitistWeight float64 `json:"elitistWeight"`

	ConvergenceThreshold float64 `json:"convergenceThreshold"`
	// StagnationLimit <= 0 отключает раннюю остановку.
	StagnationLimit int `json:"stagnationLimit"`

	ToolChangeTime float64 `json:"toolChangeTime"`

	// StartNode == nil - каждый муравей стартует со случайной точки.
	StartNode *int `json:"startNode,omitempty"`

	InitialPheromone float64 `json:"initialPheromone"`

	// Workers > 1 строит маршруты муравьёв параллельно.
	Workers int `json:"workers"`

	// TimeLimit == 0 - без ограничения по времени.
	TimeLimit time.Duration `json:"timeLimit"`

	MaxFeatures int `json:"maxFeatures"`
}

func DefaultConfig() Config {
	return Config{
		NumAnts:    20,
		Iterations: 100,

		Alpha: 1.0,
		Beta:  2.0,

		Evaporation: 0.1,
		Q:           100.0,

		ElitistWeight: 2.0,

		ConvergenceThreshold: 0.001,
		StagnationLimit:      20,

		ToolChangeTime: 15.0,

		InitialPheromone: 1.0,
		Workers:          1,
		MaxFeatures:      sequence.DefaultMaxFeatures,
	}
}

func (c Config) Validate() error {
	if c.NumAnts <= 0 {
		return fmt.Errorf("numAnts должно быть > 0 (получено %d)", c.NumAnts)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations должно быть > 0 (получено %d)", c.Iterations)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha должно быть >= 0 (получено %f)", c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta должно быть >= 0 (получено %f)", c.Beta)
	}
	if c.Evaporation <= 0 || c.Evaporation >= 1 {
		return fmt.Errorf("evaporation должно лежать в интервале (0,1) (получено %f)", c.Evaporation)
	}
	if c.Q <= 0 {
		return fmt.Errorf("Q должно быть > 0 (получено %f)", c.Q)
	}
	if c.ElitistWeight < 0 {
		return fmt.Errorf("elitistWeight должно быть >= 0 (получено %f)", c.ElitistWeight)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("convergenceThreshold должно быть >= 0 (получено %f)", c.ConvergenceThreshold)
	}
	if c.ToolChangeTime < 0 {
		return fmt.Errorf("toolChangeTime должно быть >= 0 (получено %f)", c.ToolChangeTime)
	}
	if c.StartNode != nil && *c.StartNode < 0 {
		return fmt.Errorf("startNode должно быть >= 0 (получено %d)", *c.StartNode)
	}
	if c.InitialPheromone <= 0 {
		return fmt.Errorf("initialPheromone должно быть > 0 (получено %f)", c.InitialPheromone)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers должно быть >= 0 (получено %d)", c.Workers)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("timeLimit должно быть >= 0 (получено %s)", c.TimeLimit)
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("maxFeatures должно быть > 0 (получено %d)", c.MaxFeatures)
	}
	return nil
}
