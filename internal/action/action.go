// Package action maps named action calls onto the sequencing and scheduling
// engines. Problems with the caller's input come back as ErrorResult values;
// the only error Call returns is ErrUnknownAction.
package action

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"opsched/internal/aco"
	"opsched/internal/config"
	"opsched/internal/flowshop"
	"opsched/internal/jobshop"
	"opsched/internal/logger"
	"opsched/internal/metrics"
	"opsched/internal/rules"
	"opsched/internal/schedule"
	"opsched/internal/sequence"
	"opsched/internal/shop"
)

const (
	OptimizeSequence   = "optimize-sequence"
	ScheduleOperations = "schedule-operations"
)

// Scheduling modes accepted by schedule-operations.
const (
	ModeSingle   = "single"
	ModeFlowShop = "flow-shop"
	ModeJohnson  = "johnson"
	ModeJobShop  = "job-shop"
	ModeCompare  = "compare"
)

var ErrUnknownAction = errors.New("unknown action")

// ErrorResult is returned for invalid caller input so that batch callers can
// carry on with the remaining requests.
type ErrorResult struct {
	Error string `json:"error"`
}

// Dispatcher is safe for concurrent use: every call builds its own solver
// state.
type Dispatcher struct {
	cfg  config.Config
	log  logger.Logger
	sink metrics.Sink
	seed func() int64
}

type Option func(*Dispatcher)

func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = logger.OrNop(l) }
}

func WithMetrics(s metrics.Sink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

// WithSeedSource replaces the clock-based seed used when a call carries none.
func WithSeedSource(f func() int64) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.seed = f
		}
	}
}

func New(cfg config.Config, opts ...Option) *Dispatcher {
	cfg.SetDefaults()
	d := &Dispatcher{
		cfg:  cfg,
		log:  logger.NopLogger{},
		sink: metrics.NopSink{},
		seed: func() int64 { return time.Now().UnixNano() },
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Call runs the named action with its parameter bag.
func (d *Dispatcher) Call(ctx context.Context, name string, params map[string]any) (any, error) {
	reqID := uuid.NewString()
	d.log.Debugw("action call", map[string]any{"action": name, "request_id": reqID})

	switch name {
	case OptimizeSequence:
		return d.optimizeSequence(ctx, reqID, params), nil
	case ScheduleOperations:
		return d.scheduleOperations(ctx, reqID, params), nil
	default:
		_ = d.sink.RecordActionError(name, "unknown_action")
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

func (d *Dispatcher) reject(action, reqID, kind string, err error) ErrorResult {
	d.log.Warnf("action %s [%s]: %v", action, reqID, err)
	_ = d.sink.RecordActionError(action, kind)
	return ErrorResult{Error: err.Error()}
}

// SequenceOptions are the optimizer settings a caller may override per call.
// Operator limits (maxFeatures, workers, timeLimit, initialPheromone) come
// from the dispatcher configuration only, so a request cannot lift them.
type SequenceOptions struct {
	NumAnts              *int     `json:"numAnts"`
	Iterations           *int     `json:"iterations"`
	Alpha                *float64 `json:"alpha"`
	Beta                 *float64 `json:"beta"`
	Evaporation          *float64 `json:"evaporation"`
	Q                    *float64 `json:"q"`
	ElitistWeight        *float64 `json:"elitistWeight"`
	ConvergenceThreshold *float64 `json:"convergenceThreshold"`
	StagnationLimit      *int     `json:"stagnationLimit"`
	ToolChangeTime       *float64 `json:"toolChangeTime"`
	StartNode            *int     `json:"startNode"`
}

func (o SequenceOptions) apply(cfg *aco.Config) {
	set(&cfg.NumAnts, o.NumAnts)
	set(&cfg.Iterations, o.Iterations)
	set(&cfg.Alpha, o.Alpha)
	set(&cfg.Beta, o.Beta)
	set(&cfg.Evaporation, o.Evaporation)
	set(&cfg.Q, o.Q)
	set(&cfg.ElitistWeight, o.ElitistWeight)
	set(&cfg.ConvergenceThreshold, o.ConvergenceThreshold)
	set(&cfg.StagnationLimit, o.StagnationLimit)
	set(&cfg.ToolChangeTime, o.ToolChangeTime)
	if o.StartNode != nil {
		cfg.StartNode = o.StartNode
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

type sequenceParams struct {
	Features []sequence.Feature `json:"features"`
	Config   map[string]any     `json:"config"`
	Seed     int64              `json:"seed"`
}

func (d *Dispatcher) optimizeSequence(ctx context.Context, reqID string, params map[string]any) any {
	var p sequenceParams
	params, typed := take[[]sequence.Feature](params, "features")
	p.Features = typed
	if err := decode(params, &p, false); err != nil {
		return d.reject(OptimizeSequence, reqID, "invalid_input", err)
	}
	if len(p.Features) == 0 {
		return d.reject(OptimizeSequence, reqID, "invalid_input", sequence.ErrNoFeatures)
	}

	cfg := d.cfg.ACO
	if len(p.Config) > 0 {
		var o SequenceOptions
		if err := decode(p.Config, &o, true); err != nil {
			return d.reject(OptimizeSequence, reqID, "invalid_config", fmt.Errorf("config: %w", err))
		}
		o.apply(&cfg)
	}
	seed := p.Seed
	if seed == 0 {
		seed = d.seed()
	}

	solver, err := aco.New(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return d.reject(OptimizeSequence, reqID, "invalid_config", fmt.Errorf("config: %w", err))
	}
	solver.Log = d.log

	res, err := solver.Solve(ctx, p.Features)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return d.reject(OptimizeSequence, reqID, "invalid_input", err)
	}
	if err != nil {
		d.log.Warnf("action %s [%s]: stopped early: %v", OptimizeSequence, reqID, err)
	}
	if res.Meta == nil {
		res.Meta = map[string]any{}
	}
	res.Meta["requestId"] = reqID
	res.Meta["seed"] = seed

	_ = d.sink.RecordSequence(metrics.SequenceEvent{
		Features:    len(p.Features),
		Success:     res.Success,
		Converged:   res.Converged,
		Iterations:  res.Iterations,
		Cost:        res.Cost,
		Improvement: res.Improvement,
		Duration:    res.Duration,
	})
	d.log.Infof("action %s [%s]: %d features, cost %.3f, %d iterations", OptimizeSequence, reqID, len(p.Features), res.Cost, res.Iterations)
	return res
}

type scheduleParams struct {
	Jobs     []shop.Job `json:"jobs"`
	Machines []string   `json:"machines"`
	Rule     string     `json:"rule"`
	Mode     string     `json:"mode"`
}

func (d *Dispatcher) scheduleOperations(ctx context.Context, reqID string, params map[string]any) any {
	var p scheduleParams
	params, typed := take[[]shop.Job](params, "jobs")
	p.Jobs = typed
	if err := decode(params, &p, false); err != nil {
		return d.reject(ScheduleOperations, reqID, "invalid_input", err)
	}
	if len(p.Jobs) == 0 {
		return d.reject(ScheduleOperations, reqID, "invalid_input", shop.ErrNoJobs)
	}
	if p.Rule == "" {
		p.Rule = d.cfg.Schedule.Rule
	}
	rule, err := rules.Parse(p.Rule)
	if err != nil {
		return d.reject(ScheduleOperations, reqID, "invalid_input", err)
	}
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	if mode == "" {
		mode = d.cfg.Schedule.Mode
	}

	start := time.Now()
	var (
		out      any
		makespan float64
		complete = true
	)
	switch mode {
	case "", ModeSingle:
		mode = ModeSingle
		r, err := schedule.SingleMachine(p.Jobs, rule)
		if err != nil {
			return d.reject(ScheduleOperations, reqID, "invalid_input", err)
		}
		out, makespan = r, r.Makespan
	case ModeFlowShop, ModeJohnson:
		mode = ModeFlowShop
		rule = ""
		r, err := flowshop.Johnson(p.Jobs)
		if err != nil {
			return d.reject(ScheduleOperations, reqID, "invalid_input", err)
		}
		out, makespan = r, r.Makespan
	case ModeJobShop:
		r, err := jobshop.Simulate(ctx, p.Jobs, p.Machines, rule, d.cfg.Schedule.JobShop)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return d.reject(ScheduleOperations, reqID, "invalid_input", err)
		}
		out, makespan, complete = r, r.Makespan, r.Complete
		if !r.Complete {
			d.log.Warnf("action %s [%s]: partial job-shop schedule %d/%d operations (%s)",
				ScheduleOperations, reqID, r.CompletedOperations, r.TotalOperations, r.Stopped)
		}
	case ModeCompare:
		rule = ""
		c, err := schedule.CompareRules(p.Jobs)
		if err != nil {
			return d.reject(ScheduleOperations, reqID, "invalid_input", err)
		}
		out = c
		if len(c.Rows) > 0 {
			makespan = c.Rows[0].Makespan
		}
	default:
		return d.reject(ScheduleOperations, reqID, "invalid_input", fmt.Errorf("unknown mode %q", p.Mode))
	}

	_ = d.sink.RecordSchedule(metrics.ScheduleEvent{
		Mode:     mode,
		Rule:     string(rule),
		Jobs:     len(p.Jobs),
		Makespan: makespan,
		Complete: complete,
		Duration: time.Since(start),
	})
	d.log.Infof("action %s [%s]: mode %s, %d jobs, makespan %.3f", ScheduleOperations, reqID, mode, len(p.Jobs), makespan)
	return out
}

// decode reads a parameter bag by json tag names with weak typing, so
// numbers that arrive as strings or float64 still land in int fields. Strict
// mode rejects keys the target does not know.
func decode(in map[string]any, out any, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		Result:           out,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// take removes an already typed value from the bag, so in-process callers
// such as the CLI skip the map round trip.
func take[T any](params map[string]any, key string) (map[string]any, T) {
	var zero T
	v, ok := params[key].(T)
	if !ok {
		return params, zero
	}
	rest := make(map[string]any, len(params))
	for k, val := range params {
		if k != key {
			rest[k] = val
		}
	}
	return rest, v
}
