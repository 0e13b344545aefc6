// Package session runs a play cycle: it feeds keystrokes to the matcher,
// scores completed units, and owns combo, timing and the score accumulators.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/observe"
	"github.com/verte-zerg/kanabake/internal/romaji"
	"github.com/verte-zerg/kanabake/internal/scoring"
	"github.com/verte-zerg/kanabake/internal/wordlist"
)

var (
	// ErrMalformedSnapshot reports a save that cannot be restored. Callers
	// should start a fresh cycle instead.
	ErrMalformedSnapshot = errors.New("session: malformed snapshot")
	// ErrUnknownTier is returned when unlocking a tier that does not exist.
	ErrUnknownTier = errors.New("session: unknown tier")
	// ErrTierLocked is returned when a tier's prerequisite is still locked.
	ErrTierLocked = errors.New("session: prerequisite tier not unlocked")
	// ErrInsufficientScore is returned when the cycle total cannot pay a cost.
	ErrInsufficientScore = errors.New("session: not enough cookies")
	// ErrRoundActive is returned by operations only allowed between rounds.
	ErrRoundActive = errors.New("session: round in progress")
	// ErrCycleOver is returned when starting a round after the last one.
	ErrCycleOver = errors.New("session: cycle finished")
	// ErrNoRound is returned when ending a round that is not running.
	ErrNoRound = errors.New("session: no round in progress")
)

// PhraseProvider supplies the next phrase from the unlocked tiers.
type PhraseProvider interface {
	Next(unlocked []string) (wordlist.Phrase, error)
}

// Config holds session timing.
type Config struct {
	RoundSeconds int
	Rounds       int
	Cooldown     time.Duration
	// ChipBonus is the base accumulator bonus per heavenly chip.
	ChipBonus float64
}

// DefaultConfig returns 30-second rounds, 10 rounds per cycle and a 500ms
// miss cooldown.
func DefaultConfig() Config {
	return Config{
		RoundSeconds: 30,
		Rounds:       10,
		Cooldown:     500 * time.Millisecond,
		ChipBonus:    0.02,
	}
}

// KeyResult describes how a keystroke was handled.
type KeyResult struct {
	// Ignored is set when no round is running.
	Ignored bool
	// Locked is set when the keystroke arrived during the miss cooldown.
	Locked          bool
	Miss            bool
	UnitCompleted   bool
	PhraseCompleted bool
	Unit            string
	// Reward is set for every completed unit.
	Reward *scoring.Breakdown
}

// RoundSummary is returned when a round ends.
type RoundSummary struct {
	Stats    model.RoundStats
	Units    []model.UnitStats
	RawScore bignum.Number
	Score    bignum.Number
	Failures []scoring.ModifierFailure
	// CycleOver is set after the last round of the cycle.
	CycleOver bool
}

// Status is a read-only view for rendering.
type Status struct {
	Round           int
	Rounds          int
	Active          bool
	TimeRemaining   int
	Combo           int
	MaxCombo        int
	Misses          int
	Criticals       int
	InputRate       float64
	ComboMultiplier float64
	Locked          bool
	Phrase          wordlist.Phrase
	Progress        romaji.Progress
	Guide           []romaji.GuideSegment
	RoundScore      bignum.Number
	TotalScore      bignum.Number
	Chips           bignum.Number
	Base            bignum.Number
	Modifiers       []string
	Unlocked        []string
	Upgrades        map[string]int
	CycleID         string
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Session is owned by a single goroutine; it is not safe for concurrent use.
type Session struct {
	cfg      Config
	engine   *scoring.Engine
	num      bignum.Arithmetic
	table    *romaji.Table
	matcher  *romaji.Matcher
	provider PhraseProvider
	tiers    []wordlist.Tier
	mods     *scoring.ModifierSet
	logger   *slog.Logger
	metrics  *observe.Metrics
	now      func() time.Time
	lock     Lockout

	cycleID  string
	round    int
	active   bool
	unlocked []string
	upgrades map[string]int

	// effective is mods plus upgrade effects; it is what the engine sees.
	effective *scoring.ModifierSet

	phrase       wordlist.Phrase
	phraseRomaji string

	timeRemaining int
	roundStart    time.Time
	lastUnitAt    time.Time
	combo         int
	maxCombo      int
	misses        int
	criticals     int
	keystrokes    int
	units         int
	recent        []time.Time
	unitStats     map[string]*model.UnitStats

	roundScore bignum.Number
	totalScore bignum.Number
	chips      bignum.Number
}

// New returns a session at round 1 of a fresh cycle.
func New(cfg Config, engine *scoring.Engine, table *romaji.Table, tiers []wordlist.Tier, provider PhraseProvider, opts ...Option) *Session {
	if table == nil {
		table = romaji.DefaultTable()
	}
	s := &Session{
		cfg:      cfg,
		engine:   engine,
		num:      engine.Arithmetic(),
		table:    table,
		matcher:  romaji.NewMatcher(table),
		provider: provider,
		tiers:    tiers,
		mods:     scoring.NewModifierSet(),
		now:      time.Now,
		lock:     Lockout{Cooldown: cfg.Cooldown},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.effective = scoring.NewModifierSet()
	s.chips = s.num.Zero()
	s.resetCycle()
	return s
}

func (s *Session) resetCycle() {
	s.cycleID = uuid.NewString()
	s.round = 1
	s.active = false
	s.unlocked = wordlist.Starting(s.tiers)
	s.mods.Reset()
	s.upgrades = map[string]int{}
	s.rebuildModifiers()
	s.totalScore = s.num.Zero()
	s.resetRound()
}

func (s *Session) resetRound() {
	s.roundScore = s.num.Zero()
	s.timeRemaining = s.cfg.RoundSeconds
	s.combo = 0
	s.maxCombo = 0
	s.misses = 0
	s.criticals = 0
	s.keystrokes = 0
	s.units = 0
	s.recent = nil
	s.unitStats = map[string]*model.UnitStats{}
	s.lock.Clear()
	s.matcher.SetText("")
	s.phrase = wordlist.Phrase{}
	s.phraseRomaji = ""
}

// StartRound begins the current round with a fresh phrase.
func (s *Session) StartRound() error {
	if s.active {
		return ErrRoundActive
	}
	if s.CycleOver() {
		return ErrCycleOver
	}
	s.resetRound()
	if err := s.nextPhrase(); err != nil {
		return err
	}
	s.roundStart = s.now()
	s.lastUnitAt = s.roundStart
	s.active = true
	s.logger.Debug("round started", "cycle", s.cycleID, "round", s.round)
	return nil
}

func (s *Session) nextPhrase() error {
	p, err := s.provider.Next(s.unlocked)
	if err != nil {
		return fmt.Errorf("next phrase: %w", err)
	}
	s.phrase = p
	s.phraseRomaji = romaji.Romaji(s.table, p.Text)
	s.matcher.SetText(p.Text)
	return nil
}

// Key handles one keystroke. It never blocks.
func (s *Session) Key(ctx context.Context, r rune) (KeyResult, error) {
	if !s.active {
		return KeyResult{Ignored: true}, nil
	}
	now := s.now()
	if s.lock.State(now) == Rejecting {
		return KeyResult{Locked: true}, nil
	}

	current := s.matcher.Current()
	res := s.matcher.HandleInput(r)
	if !res.Success {
		s.combo = 0
		s.misses++
		s.lock.Trip(now)
		s.stat(current).Incorrect++
		s.metrics.Misses.Add(ctx, 1)
		return KeyResult{Miss: true}, nil
	}

	s.keystrokes++
	s.recent = append(s.recent, now)
	s.pruneRecent(now)
	if !res.UnitCompleted {
		return KeyResult{}, nil
	}

	s.combo++
	if s.combo > s.maxCombo {
		s.maxCombo = s.combo
	}
	s.units++
	st := s.stat(res.Unit)
	st.Correct++
	st.LatencySumMs += now.Sub(s.lastUnitAt).Milliseconds()
	st.LatencyCount++
	s.lastUnitAt = now

	out := s.engine.Compute(ctx, scoring.Input{
		Phrase:         s.phrase.Text,
		Romaji:         s.phraseRomaji,
		Unit:           res.Unit,
		Combo:          s.combo,
		InputRate:      s.InputRate(),
		TimeRemaining:  s.timeRemaining,
		WordMultiplier: s.phrase.Multiplier,
		Base:           s.BaseAccumulator(),
	}, s.effective)
	s.roundScore = s.roundScore.Add(out.Score)
	if out.Critical {
		s.criticals++
	}
	s.metrics.UnitsCompleted.Add(ctx, 1)

	result := KeyResult{
		UnitCompleted:   true,
		PhraseCompleted: res.PhraseCompleted,
		Unit:            res.Unit,
		Reward:          &out,
	}
	if res.PhraseCompleted {
		if err := s.nextPhrase(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Session) stat(unit string) *model.UnitStats {
	if unit == "" {
		unit = "?"
	}
	st, ok := s.unitStats[unit]
	if !ok {
		st = &model.UnitStats{Unit: unit}
		s.unitStats[unit] = st
	}
	return st
}

func (s *Session) pruneRecent(now time.Time) {
	keep := s.recent[:0]
	for _, t := range s.recent {
		if now.Sub(t) < time.Second {
			keep = append(keep, t)
		}
	}
	s.recent = keep
}

// InputRate returns correct keystrokes within the last second.
func (s *Session) InputRate() float64 {
	s.pruneRecent(s.now())
	return float64(len(s.recent))
}

// Tick advances the countdown by one second and reports whether the round
// ran out of time. The caller ends the round.
func (s *Session) Tick() bool {
	if !s.active {
		return false
	}
	s.timeRemaining = TickDown(s.timeRemaining)
	return s.timeRemaining == 0
}

// EndRound stops the round, applies round-end modifiers to its score and adds
// it to the cycle total.
func (s *Session) EndRound(ctx context.Context) (RoundSummary, error) {
	if !s.active {
		return RoundSummary{}, ErrNoRound
	}
	s.active = false
	ended := s.now()

	raw := s.roundScore
	final, failures := s.engine.ApplyRoundEnd(ctx, raw, scoring.RoundResult{
		Misses:   s.misses,
		MaxCombo: s.maxCombo,
		Units:    s.units,
	}, s.effective)
	s.roundScore = final
	s.totalScore = s.totalScore.Add(final)

	summary := RoundSummary{
		Stats: model.RoundStats{
			CycleID:    s.cycleID,
			Round:      s.round,
			StartedAt:  s.roundStart,
			EndedAt:    ended,
			Keystrokes: s.keystrokes,
			Misses:     s.misses,
			Units:      s.units,
			MaxCombo:   s.maxCombo,
			Criticals:  s.criticals,
			Score:      final.String(),
			DurationMs: ended.Sub(s.roundStart).Milliseconds(),
		},
		Units:    s.unitStatsList(),
		RawScore: raw,
		Score:    final,
		Failures: failures,
	}
	s.round++
	s.combo = 0
	s.matcher.SetText("")
	summary.CycleOver = s.CycleOver()
	s.logger.Info("round finished",
		"cycle", s.cycleID,
		"round", summary.Stats.Round,
		"score", final.String(),
		"misses", s.misses,
		"max_combo", s.maxCombo,
	)
	return summary, nil
}

func (s *Session) unitStatsList() []model.UnitStats {
	out := make([]model.UnitStats, 0, len(s.unitStats))
	for _, st := range s.unitStats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

// CycleOver reports whether every round of the cycle has been played.
func (s *Session) CycleOver() bool {
	return s.round > s.cfg.Rounds
}

// AddModifier activates a modifier for the rest of the cycle.
func (s *Session) AddModifier(m scoring.Modifier) error {
	if s.active {
		return ErrRoundActive
	}
	s.mods.Add(m)
	s.rebuildModifiers()
	return nil
}

// UnlockTier spends the cycle total on a tier.
func (s *Session) UnlockTier(id string) error {
	if s.active {
		return ErrRoundActive
	}
	tier, ok := wordlist.Find(s.tiers, id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTier, id)
	}
	if s.IsUnlocked(id) {
		return nil
	}
	if tier.Requires != "" && !s.IsUnlocked(tier.Requires) {
		return fmt.Errorf("%w: %q needs %q", ErrTierLocked, id, tier.Requires)
	}
	cost, err := tier.CostIn(s.num)
	if err != nil {
		return fmt.Errorf("tier %q cost: %w", id, err)
	}
	if s.totalScore.Cmp(cost) < 0 {
		return fmt.Errorf("%w: %q costs %s", ErrInsufficientScore, id, bignum.Format(cost))
	}
	s.totalScore = s.totalScore.Sub(cost)
	s.unlocked = append(s.unlocked, id)
	return nil
}

// IsUnlocked reports whether a tier is available.
func (s *Session) IsUnlocked(id string) bool {
	for _, u := range s.unlocked {
		if u == id {
			return true
		}
	}
	return false
}

// ChipsFor returns the heavenly chips a cycle total is worth:
// floor(log10(total)), or zero below one.
func ChipsFor(num bignum.Arithmetic, total bignum.Number) bignum.Number {
	if total.Cmp(num.FromInt(1)) < 0 {
		return num.Zero()
	}
	l := total.Log10()
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return num.Zero()
	}
	return num.FromInt(int64(math.Floor(l)))
}

// Prestige ends the cycle: it converts the total into heavenly chips and
// resets everything else. It returns the chips gained.
func (s *Session) Prestige() (bignum.Number, error) {
	if s.active {
		return nil, ErrRoundActive
	}
	gained := ChipsFor(s.num, s.totalScore)
	s.chips = s.chips.Add(gained)
	s.logger.Info("prestige", "cycle", s.cycleID, "total", s.totalScore.String(), "chips_gained", gained.String())
	s.resetCycle()
	return gained, nil
}

// BaseAccumulator is the per-unit base value:
// (1 + OvenBaseBonus x ovens) x (1 + ChipBonus x chips).
func (s *Session) BaseAccumulator() bignum.Number {
	one := s.num.FromInt(1)
	base := one.Add(s.num.FromInt(OvenBaseBonus * int64(s.upgrades[UpgradeOven])))
	bonus, err := s.num.FromFloat(s.cfg.ChipBonus)
	if err != nil {
		return base
	}
	return base.Mul(one.Add(s.chips.Mul(bonus)))
}

// Status returns a snapshot of the state for rendering.
func (s *Session) Status() Status {
	now := s.now()
	return Status{
		Round:           s.round,
		Rounds:          s.cfg.Rounds,
		Active:          s.active,
		TimeRemaining:   s.timeRemaining,
		Combo:           s.combo,
		MaxCombo:        s.maxCombo,
		Misses:          s.misses,
		Criticals:       s.criticals,
		InputRate:       s.InputRate(),
		ComboMultiplier: s.engine.ComboMultiplier(s.combo, s.effective),
		Locked:          s.active && s.lock.State(now) == Rejecting,
		Phrase:          s.phrase,
		Progress:        s.matcher.Progress(),
		Guide:           s.matcher.Guide(),
		RoundScore:      s.roundScore,
		TotalScore:      s.totalScore,
		Chips:           s.chips,
		Base:            s.BaseAccumulator(),
		Modifiers:       s.mods.IDs(),
		Unlocked:        append([]string(nil), s.unlocked...),
		Upgrades:        s.upgradeCounts(),
		CycleID:         s.cycleID,
	}
}

// LockRemaining returns how long input stays blocked after a miss.
func (s *Session) LockRemaining() time.Duration {
	return s.lock.Remaining(s.now())
}
