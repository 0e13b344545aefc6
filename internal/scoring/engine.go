package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/observe"
)

// CriticalRateCap is the highest critical rate any configuration can reach.
const CriticalRateCap = 0.5

// Config holds the scoring constants.
type Config struct {
	// ComboStep is added to the combo multiplier every ComboSpan units.
	ComboStep float64
	ComboSpan int
	// BaseCriticalRate is the chance of a critical before modifiers.
	BaseCriticalRate float64
	// BaseCriticalMultiplier applies on a critical before modifiers.
	BaseCriticalMultiplier float64
	// MaxCriticalRate may lower CriticalRateCap, never raise it.
	MaxCriticalRate float64
}

// DefaultConfig returns the standard game balance.
func DefaultConfig() Config {
	return Config{
		ComboStep:              0.1,
		ComboSpan:              10,
		BaseCriticalRate:       0.05,
		BaseCriticalMultiplier: 2,
		MaxCriticalRate:        CriticalRateCap,
	}
}

// Input describes one completed unit.
type Input struct {
	Phrase         string
	Romaji         string
	Unit           string
	Combo          int
	InputRate      float64
	TimeRemaining  int
	WordMultiplier float64
	// Base is the per-unit accumulator value. Nil counts as one.
	Base bignum.Number
}

// ModifierFailure records a modifier skipped during evaluation.
type ModifierFailure struct {
	ID  string
	Err error
}

// Breakdown is the reward for one unit and the factors that produced it.
type Breakdown struct {
	Score              bignum.Number
	Critical           bool
	CriticalRate       float64
	ComboMultiplier    float64
	ModifierMultiplier float64
	CriticalMultiplier float64
	WordMultiplier     float64
	Failures           []ModifierFailure
}

// Engine computes rewards. It is synchronous and holds no per-round state.
type Engine struct {
	cfg     Config
	rng     RandomSource
	num     bignum.Arithmetic
	logger  *slog.Logger
	metrics *observe.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG sets the source used for critical rolls.
func WithRNG(rng RandomSource) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithArithmetic sets the big-number representation.
func WithArithmetic(num bignum.Arithmetic) Option {
	return func(e *Engine) {
		if num != nil {
			e.num = num
		}
	}
}

// WithLogger sets the logger for modifier failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine returns an engine with crypto randomness, decimal arithmetic,
// the default logger and the default metrics unless overridden.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		rng: DefaultRNG(),
		num: bignum.Decimals,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Arithmetic returns the engine's number representation.
func (e *Engine) Arithmetic() bignum.Arithmetic {
	return e.num
}

// ComboMultiplier returns 1 + floor(combo/span) * step, where combo-rate
// modifiers add to the step.
func (e *Engine) ComboMultiplier(combo int, mods *ModifierSet) float64 {
	return e.comboFactor(combo, mods).Float64()
}

// comboFactor is ComboMultiplier in decimal, so 1 + 7 x 0.1 is exactly 1.7.
func (e *Engine) comboFactor(combo int, mods *ModifierSet) bignum.Number {
	one := e.num.FromInt(1)
	span := e.cfg.ComboSpan
	if span <= 0 || combo <= 0 {
		return one
	}
	step := e.decimal("combo step", e.cfg.ComboStep)
	for _, m := range mods.All() {
		if cr, ok := m.(ComboRate); ok {
			step = step.Add(e.decimal(cr.ID, cr.StepBonus))
		}
	}
	return one.Add(e.num.FromInt(int64(combo / span)).Mul(step))
}

// decimal lifts a small float into the engine's number type. Non-finite
// values count as zero.
func (e *Engine) decimal(name string, v float64) bignum.Number {
	n, err := e.num.FromFloat(v)
	if err != nil {
		e.logger.Warn("value ignored", "name", name, "value", v, "error", err)
		return e.num.Zero()
	}
	return n
}

// CriticalRate returns the chance of a critical: bonuses are added to the
// base rate, scales multiply the sum, and the result is clamped.
func (e *Engine) CriticalRate(mods *ModifierSet) float64 {
	rate := e.cfg.BaseCriticalRate
	scale := 1.0
	for _, m := range mods.All() {
		cr, ok := m.(CriticalRate)
		if !ok {
			continue
		}
		rate += cr.RateBonus
		if cr.RateScale != 0 {
			scale *= cr.RateScale
		}
	}
	rate *= scale
	maxRate := CriticalRateCap
	if e.cfg.MaxCriticalRate > 0 && e.cfg.MaxCriticalRate < maxRate {
		maxRate = e.cfg.MaxCriticalRate
	}
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return math.Min(rate, maxRate)
}

// CriticalMultiplier returns the factor applied on a critical.
func (e *Engine) CriticalMultiplier(mods *ModifierSet) float64 {
	return e.criticalFactor(mods).Float64()
}

func (e *Engine) criticalFactor(mods *ModifierSet) bignum.Number {
	mult := e.decimal("critical multiplier", e.cfg.BaseCriticalMultiplier)
	for _, m := range mods.All() {
		if cr, ok := m.(CriticalRate); ok {
			mult = mult.Add(e.decimal(cr.ID, cr.MultiplierBonus))
		}
	}
	return mult
}

// Compute scores one completed unit. Round-end modifiers are ignored here;
// see ApplyRoundEnd.
func (e *Engine) Compute(ctx context.Context, in Input, mods *ModifierSet) Breakdown {
	one := e.num.FromInt(1)
	combo := e.comboFactor(in.Combo, mods)
	critical := one
	modifier := one
	out := Breakdown{
		ComboMultiplier:    combo.Float64(),
		CriticalMultiplier: 1,
		ModifierMultiplier: 1,
		WordMultiplier:     in.WordMultiplier,
	}

	out.CriticalRate = e.CriticalRate(mods)
	draw := e.rng.Float64()
	if draw < out.CriticalRate {
		out.Critical = true
		critical = e.criticalFactor(mods)
		out.CriticalMultiplier = critical.Float64()
	}

	wc := WordContext{
		Phrase:        in.Phrase,
		Romaji:        in.Romaji,
		Unit:          in.Unit,
		BaseScore:     1,
		InputRate:     in.InputRate,
		TimeRemaining: in.TimeRemaining,
		Combo:         in.Combo,
	}
	for _, m := range mods.All() {
		ws, ok := m.(WordScoped)
		if !ok {
			continue
		}
		v, err := evalWord(ws.Fn, wc)
		if err != nil {
			out.Failures = append(out.Failures, ModifierFailure{ID: ws.ID, Err: err})
			e.logger.Warn("modifier skipped", "modifier", ws.ID, "unit", in.Unit, "error", err)
			e.metrics.RecordModifierFailure(ctx, ws.ID)
			continue
		}
		modifier = modifier.Mul(e.decimal(ws.ID, v))
	}
	out.ModifierMultiplier = modifier.Float64()

	score := in.Base
	if score == nil {
		score = one
	}
	score = score.Mul(combo).Mul(modifier).Mul(critical)
	if word, err := e.num.FromFloat(in.WordMultiplier); err != nil {
		e.logger.Warn("multiplier ignored", "factor", "word", "value", in.WordMultiplier, "error", err)
	} else {
		score = score.Mul(word)
	}
	out.Score = score

	if out.Critical {
		e.metrics.CriticalHits.Add(ctx, 1)
	}
	if score.Sign() > 0 {
		e.metrics.RewardMagnitude.Record(ctx, score.Log10())
	}
	return out
}

// ApplyRoundEnd multiplies a round total by every round-end modifier. It is
// called once per round by the session, never per keystroke. Failing
// modifiers are skipped like word-scoped ones.
func (e *Engine) ApplyRoundEnd(ctx context.Context, total bignum.Number, res RoundResult, mods *ModifierSet) (bignum.Number, []ModifierFailure) {
	var failures []ModifierFailure
	for _, m := range mods.All() {
		re, ok := m.(RoundEnd)
		if !ok {
			continue
		}
		v, err := evalRound(re.Fn, res)
		if err == nil {
			var factor bignum.Number
			factor, err = e.num.FromFloat(v)
			if err == nil {
				total = total.Mul(factor)
				continue
			}
		}
		failures = append(failures, ModifierFailure{ID: re.ID, Err: err})
		e.logger.Warn("round-end modifier skipped", "modifier", re.ID, "error", err)
		e.metrics.RecordModifierFailure(ctx, re.ID)
	}
	return total, failures
}

func evalWord(fn WordFunc, wc WordContext) (v float64, err error) {
	if fn == nil {
		return 1, nil
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("%w: %v", ErrModifierPanic, r)
		}
	}()
	v, err = fn(wc)
	if err != nil {
		return 0, err
	}
	return checkMultiplier(v)
}

func evalRound(fn RoundFunc, res RoundResult) (v float64, err error) {
	if fn == nil {
		return 1, nil
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("%w: %v", ErrModifierPanic, r)
		}
	}()
	v, err = fn(res)
	if err != nil {
		return 0, err
	}
	return checkMultiplier(v)
}

func checkMultiplier(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %v", ErrModifierValue, v)
	}
	return v, nil
}
