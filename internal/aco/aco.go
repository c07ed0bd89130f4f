package aco

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"opsched/internal/logger"
	"opsched/internal/opt"
	"opsched/internal/sequence"
)

// ErrNoFeatures - пустой список точек.
var ErrNoFeatures = sequence.ErrNoFeatures

// Solver - структура реализации муравьиного алгоритма.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log logger.Logger
}

// New возвращает новый ACO-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng, Log: logger.NopLogger{}}, nil
}

// Solve - реализация эвристики.
//
// Маршрут строится только по расстояниям, а стоимость маршрута для выбора
// лучшего и отложения феромона считается полностью, со штрафами за смену
// инструмента.
func (s *Solver) Solve(ctx context.Context, features []sequence.Feature) (opt.Result, error) {
	startTime := time.Now()
	log := logger.OrNop(s.Log)

	// Валидация входных данных
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	n := len(features)
	if n == 0 {
		return opt.Result{}, ErrNoFeatures
	}
	if n > s.Cfg.MaxFeatures {
		log.Warnf("aco: %d точек превышают лимит %d", n, s.Cfg.MaxFeatures)
		return opt.Result{
			Success:  false,
			Message:  fmt.Sprintf("слишком много точек: %d превышает лимит %d", n, s.Cfg.MaxFeatures),
			Duration: time.Since(startTime),
		}, nil
	}
	if err := sequence.ValidateFeatures(features); err != nil {
		return opt.Result{}, err
	}
	if s.Cfg.StartNode != nil && *s.Cfg.StartNode >= n {
		return opt.Result{}, fmt.Errorf("startNode %d вне диапазона [0,%d)", *s.Cfg.StartNode, n)
	}

	// Меньше двух точек - оптимизировать нечего
	if n < 2 {
		return opt.Result{
			Success:    true,
			Message:    "меньше двух точек, оптимизировать нечего",
			Sequence:   sequence.Identity(n),
			FeatureIDs: labels(features, sequence.Identity(n)),
			Converged:  true,
			Duration:   time.Since(startTime),
		}, nil
	}

	model, err := sequence.NewCostModel(features, s.Cfg.ToolChangeTime)
	if err != nil {
		return opt.Result{}, err
	}

	baselinePath := sequence.Identity(n)
	baseline := model.PathCost(baselinePath)

	var deadline time.Time
	if s.Cfg.TimeLimit > 0 {
		deadline = startTime.Add(s.Cfg.TimeLimit)
	}

	field := NewField(n, s.Cfg.InitialPheromone)
	best := Tour{Cost: math.Inf(1)}
	prevBest := math.Inf(1)
	stagnation := 0

	run := runState{}

	for iter := 0; iter < s.Cfg.Iterations; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			run.stopped = "context"
			return s.result(features, model, best, baseline, run, startTime), err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			run.stopped = "time_limit"
			break
		}

		// Муравьи пошли
		tours, err := s.buildTours(ctx, field, model)
		if err != nil {
			run.stopped = "context"
			return s.result(features, model, best, baseline, run, startTime), err
		}
		run.evals += len(tours)

		// Глобальное лучшее за всё время
		for _, t := range tours {
			if t.Cost < best.Cost {
				best = Tour{Path: append([]int(nil), t.Path...), Cost: t.Cost}
				log.Debugw("aco: новое лучшее", map[string]any{"iteration": iter + 1, "cost": t.Cost})
			}
		}

		// Испарение, отложение от всех муравьёв и элитный бонус
		field = field.Update(s.Cfg.Evaporation, s.Cfg.Q, s.Cfg.ElitistWeight, tours, best)
		run.iterations = iter + 1

		// Проверка сходимости
		if math.Abs(best.Cost-prevBest) < s.Cfg.ConvergenceThreshold {
			stagnation++
		} else {
			stagnation = 0
		}
		prevBest = best.Cost
		if s.Cfg.StagnationLimit > 0 && stagnation >= s.Cfg.StagnationLimit {
			run.converged = true
			run.convergedAt = iter + 1
			break
		}
	}

	res := s.result(features, model, best, baseline, run, startTime)
	log.Debugf("aco: %d точек, стоимость %.3f (базовая %.3f), итераций %d", n, res.Cost, baseline, res.Iterations)
	return res, nil
}

type runState struct {
	iterations  int
	evals       int
	converged   bool
	convergedAt int
	stopped     string
}

// buildTours строит маршруты всех муравьёв итерации. Каждый муравей получает
// собственный генератор, сид которого берётся из генератора солвера по порядку,
// поэтому результат не зависит от числа воркеров.
func (s *Solver) buildTours(ctx context.Context, field Field, model *sequence.CostModel) ([]Tour, error) {
	ants := s.Cfg.NumAnts
	n := model.Size()

	seeds := make([]int64, ants)
	for a := range seeds {
		seeds[a] = s.Rng.Int63()
	}

	tours := make([]Tour, ants)
	build := func(a int) {
		rnd := rand.New(rand.NewSource(seeds[a]))
		var start int
		if s.Cfg.StartNode != nil {
			start = *s.Cfg.StartNode
		} else {
			start = rnd.Intn(n)
		}
		path := constructTour(start, n, field, model.Distance, s.Cfg.Alpha, s.Cfg.Beta, rnd)
		tours[a] = Tour{Path: path, Cost: model.PathCost(path)}
	}

	if s.Cfg.Workers <= 1 {
		for a := 0; a < ants; a++ {
			build(a)
		}
		return tours, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Workers)
	for a := 0; a < ants; a++ {
		a := a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			build(a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tours, nil
}

func (s *Solver) result(
	features []sequence.Feature,
	model *sequence.CostModel,
	best Tour,
	baseline float64,
	run runState,
	startTime time.Time,
) opt.Result {
	seq := best.Path
	cost := best.Cost
	if seq == nil {
		seq = sequence.Identity(len(features))
		cost = model.PathCost(seq)
	}

	meta := map[string]any{
		"numAnts":       s.Cfg.NumAnts,
		"alpha":         s.Cfg.Alpha,
		"beta":          s.Cfg.Beta,
		"evaporation":   s.Cfg.Evaporation,
		"Q":             s.Cfg.Q,
		"elitistWeight": s.Cfg.ElitistWeight,
		"distance":      model.DistanceCost(seq),
	}
	if run.stopped != "" {
		meta["stopped"] = run.stopped
	}

	return opt.Result{
		Success:              true,
		Sequence:             seq,
		FeatureIDs:           labels(features, seq),
		Cost:                 cost,
		BaselineCost:         baseline,
		Improvement:          opt.ImprovementPct(baseline, cost),
		ToolChanges:          sequence.CountToolChanges(features, seq),
		Iterations:           run.iterations,
		Converged:            run.converged,
		ConvergenceIteration: run.convergedAt,
		Evaluations:          run.evals,
		Duration:             time.Since(startTime),
		Meta:                 meta,
	}
}

func labels(features []sequence.Feature, seq []int) []string {
	out := make([]string, len(seq))
	for i, idx := range seq {
		out[i] = features[idx].Label(idx)
	}
	return out
}
