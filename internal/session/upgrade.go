package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/scoring"
)

// Upgrade IDs.
const (
	UpgradeOven   = "oven"
	UpgradeButter = "butter"
)

// Per-purchase upgrade effects.
const (
	OvenBaseBonus         = 10
	ButterRateBonus       = 0.01
	ButterMultiplierBonus = 2
)

// ErrUnknownUpgrade is returned when buying an upgrade that does not exist.
var ErrUnknownUpgrade = errors.New("session: unknown upgrade")

// Upgrade is a repeatable shop purchase. Purchases last until prestige.
type Upgrade struct {
	ID          string
	Name        string
	Description string
	BasePrice   int64
	// PriceGrowth is a decimal factor applied to the price per copy owned.
	PriceGrowth string
}

var upgrades = []Upgrade{
	{
		ID:          UpgradeOven,
		Name:        "Professional Oven",
		Description: "+10 base cookies per kana",
		BasePrice:   100,
		PriceGrowth: "1.15",
	},
	{
		ID:          UpgradeButter,
		Name:        "Pure Butter",
		Description: "+1% critical rate, +2 critical multiplier",
		BasePrice:   1000,
		PriceGrowth: "1.25",
	},
}

// Upgrades returns the shop catalog in display order.
func Upgrades() []Upgrade {
	return append([]Upgrade(nil), upgrades...)
}

func findUpgrade(id string) (Upgrade, bool) {
	for _, u := range upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// UpgradeCount returns how many copies of an upgrade were bought this cycle.
func (s *Session) UpgradeCount(id string) int {
	return s.upgrades[id]
}

// UpgradePrice returns BasePrice x PriceGrowth^owned.
func (s *Session) UpgradePrice(id string) (bignum.Number, error) {
	u, ok := findUpgrade(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUpgrade, id)
	}
	growth, err := s.num.Parse(u.PriceGrowth)
	if err != nil {
		return nil, fmt.Errorf("upgrade %q price growth: %w", id, err)
	}
	price := s.num.FromInt(u.BasePrice)
	for range s.upgrades[id] {
		price = price.Mul(growth)
	}
	return price, nil
}

// BuyUpgrade spends the cycle total on one more copy of an upgrade.
func (s *Session) BuyUpgrade(id string) error {
	if s.active {
		return ErrRoundActive
	}
	price, err := s.UpgradePrice(id)
	if err != nil {
		return err
	}
	if s.totalScore.Cmp(price) < 0 {
		return fmt.Errorf("%w: %q costs %s", ErrInsufficientScore, id, bignum.Format(price))
	}
	s.totalScore = s.totalScore.Sub(price)
	s.upgrades[id]++
	s.rebuildModifiers()
	s.logger.Info("upgrade bought", "cycle", s.cycleID, "upgrade", id, "count", s.upgrades[id], "price", price.String())
	return nil
}

// upgradeModifiers expresses upgrade effects that feed the reward engine.
// The oven is applied through BaseAccumulator instead.
func (s *Session) upgradeModifiers() []scoring.Modifier {
	var out []scoring.Modifier
	if n := s.upgrades[UpgradeButter]; n > 0 {
		out = append(out, scoring.CriticalRate{
			ID:              UpgradeButter,
			RateBonus:       ButterRateBonus * float64(n),
			MultiplierBonus: ButterMultiplierBonus * float64(n),
		})
	}
	return out
}

// rebuildModifiers refreshes the set handed to the engine: active cards
// followed by upgrade effects.
func (s *Session) rebuildModifiers() {
	s.effective.Reset()
	for _, m := range s.mods.All() {
		s.effective.Add(m)
	}
	for _, m := range s.upgradeModifiers() {
		s.effective.Add(m)
	}
}

func (s *Session) upgradeCounts() map[string]int {
	out := make(map[string]int, len(s.upgrades))
	for id, n := range s.upgrades {
		if n > 0 {
			out[id] = n
		}
	}
	return out
}

func sortedUpgradeIDs(counts map[string]int) []string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
