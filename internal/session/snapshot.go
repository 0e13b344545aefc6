package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/scoring"
)

// Resolver turns saved modifier IDs back into modifiers.
type Resolver func(ids []string) ([]scoring.Modifier, error)

// Snapshot captures the cycle between rounds.
func (s *Session) Snapshot() model.Snapshot {
	return model.Snapshot{
		CycleID:    s.cycleID,
		Round:      s.round,
		Combo:      s.combo,
		TotalScore: s.totalScore.String(),
		RoundScore: s.roundScore.String(),
		Chips:      s.chips.String(),
		Modifiers:  s.mods.IDs(),
		Unlocked:   append([]string(nil), s.unlocked...),
		Upgrades:   s.upgradeCounts(),
		SavedAt:    s.now(),
	}
}

// Restore replaces the cycle state with a snapshot. Nothing changes when
// the snapshot is rejected; the error wraps ErrMalformedSnapshot.
func (s *Session) Restore(snap model.Snapshot, resolve Resolver) error {
	if s.active {
		return ErrRoundActive
	}
	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...))
	}

	if snap.Round < 1 {
		return malformed("round %d", snap.Round)
	}
	if snap.Combo < 0 {
		return malformed("combo %d", snap.Combo)
	}
	total, err := s.parseScore(snap.TotalScore)
	if err != nil {
		return malformed("total score: %v", err)
	}
	roundScore, err := s.parseScore(snap.RoundScore)
	if err != nil {
		return malformed("round score: %v", err)
	}
	chips, err := s.parseScore(snap.Chips)
	if err != nil {
		return malformed("chips: %v", err)
	}

	var mods []scoring.Modifier
	if len(snap.Modifiers) > 0 {
		if resolve == nil {
			return malformed("no resolver for modifiers")
		}
		mods, err = resolve(snap.Modifiers)
		if err != nil {
			return malformed("modifiers: %v", err)
		}
	}
	unlocked := make([]string, 0, len(snap.Unlocked))
	seen := map[string]bool{}
	for _, id := range snap.Unlocked {
		if !s.tierExists(id) {
			return malformed("unknown tier %q", id)
		}
		if !seen[id] {
			seen[id] = true
			unlocked = append(unlocked, id)
		}
	}
	if len(unlocked) == 0 {
		return malformed("no unlocked tiers")
	}
	owned := map[string]int{}
	for _, id := range sortedUpgradeIDs(snap.Upgrades) {
		n := snap.Upgrades[id]
		if _, ok := findUpgrade(id); !ok {
			return malformed("unknown upgrade %q", id)
		}
		if n < 0 {
			return malformed("upgrade %q count %d", id, n)
		}
		if n > 0 {
			owned[id] = n
		}
	}

	cycleID := snap.CycleID
	if _, err := uuid.Parse(cycleID); err != nil {
		cycleID = uuid.NewString()
	}

	s.resetRound()
	s.cycleID = cycleID
	s.round = snap.Round
	s.combo = snap.Combo
	s.totalScore = total
	s.roundScore = roundScore
	s.chips = chips
	s.unlocked = unlocked
	s.upgrades = owned
	s.mods.Reset()
	for _, m := range mods {
		s.mods.Add(m)
	}
	s.rebuildModifiers()
	s.logger.Info("snapshot restored", "cycle", cycleID, "round", snap.Round, "saved_at", snap.SavedAt.Format(time.RFC3339))
	return nil
}

func (s *Session) parseScore(v string) (bignum.Number, error) {
	n, err := s.num.Parse(v)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", v)
	}
	return n, nil
}

func (s *Session) tierExists(id string) bool {
	for _, t := range s.tiers {
		if t.ID == id {
			return true
		}
	}
	return false
}
