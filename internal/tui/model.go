// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/cards"
	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/scoring"
	"github.com/verte-zerg/kanabake/internal/session"
	statsPkg "github.com/verte-zerg/kanabake/internal/stats"
	"github.com/verte-zerg/kanabake/internal/store"
	"github.com/verte-zerg/kanabake/internal/wordlist"
)

type screen int

const (
	screenReady screen = iota
	screenTyping
	screenResult
	screenCycleOver
)

// Recorder persists finished rounds and the cycle between rounds.
// *store.Store satisfies it.
type Recorder interface {
	InsertRound(ctx context.Context, stats model.RoundStats, units []model.UnitStats) (int64, error)
	SaveSnapshot(ctx context.Context, slot string, snap model.Snapshot) error
}

// Deps wires the model to the game and its storage.
type Deps struct {
	Session      *session.Session
	Recorder     Recorder
	Tiers        []wordlist.Tier
	RoundSeconds int
	// Draft deals the cards offered after a round.
	Draft func() []cards.Card
	// AfterRound runs once a round has been saved, e.g. to refresh the weak
	// kana bias.
	AfterRound func(ctx context.Context)
	Logger     *slog.Logger
}

type tickMsg struct{ round int }

type unlockMsg struct{}

// Model implements the Bubble Tea typing UI.
type Model struct {
	deps   Deps
	sess   *session.Session
	logger *slog.Logger
	timer  progress.Model

	width  int
	height int

	screen   screen
	roundSeq int

	lastReward *scoring.Breakdown
	lastMiss   bool

	summary session.RoundSummary
	hand    []cards.Card
	picked  string
	notice  string

	hasLast bool
	lastKPM float64
	lastAcc float64
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	criticalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F1C")).Bold(true)
	cardStyle        = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
)

// NewModel constructs a typing TUI model.
func NewModel(deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Draft == nil {
		rng := scoring.DefaultRNG()
		deps.Draft = func() []cards.Card { return cards.Draft(rng, 3) }
	}
	m := &Model{
		deps:   deps,
		sess:   deps.Session,
		logger: logger,
		timer:  progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
	if m.sess.CycleOver() {
		m.screen = screenCycleOver
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.timer.Width = m.contentWidth()
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case unlockMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.quit()
			return m, tea.Quit
		}
		switch m.screen {
		case screenReady:
			if msg.Type == tea.KeyEnter {
				return m, m.startRound()
			}
		case screenTyping:
			if msg.Type == tea.KeyRunes {
				return m, m.handleRunes(msg.Runes)
			}
		case screenResult:
			return m, m.handleResultKey(msg)
		case screenCycleOver:
			if msg.Type == tea.KeyEnter || msg.String() == "p" {
				m.prestige()
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenTyping:
		content = m.renderTyping()
	case screenResult:
		content = m.renderResult()
	case screenCycleOver:
		content = m.renderCycleOver()
	default:
		content = m.renderReady()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	content = lipgloss.NewStyle().Width(m.contentWidth()).Render(content)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	return max(1, int(float64(m.width)*0.70))
}

func tick(round int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{round: round}
	})
}

func (m *Model) startRound() tea.Cmd {
	if err := m.sess.StartRound(); err != nil {
		m.logger.Error("start round", "err", err)
		m.notice = err.Error()
		return nil
	}
	m.roundSeq++
	m.screen = screenTyping
	m.lastReward = nil
	m.lastMiss = false
	m.notice = ""
	return tick(m.roundSeq)
}

// handleTick ignores ticks left over from an earlier round.
func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if m.screen != screenTyping || msg.round != m.roundSeq {
		return nil
	}
	if m.sess.Tick() {
		m.finishRound()
		return nil
	}
	return tick(m.roundSeq)
}

func (m *Model) handleRunes(runes []rune) tea.Cmd {
	ctx := context.Background()
	var cmd tea.Cmd
	for _, r := range runes {
		res, err := m.sess.Key(ctx, r)
		if err != nil {
			m.logger.Error("handle key", "err", err)
			m.notice = err.Error()
			m.finishRound()
			return nil
		}
		switch {
		case res.Miss:
			m.lastMiss = true
			if wait := m.sess.LockRemaining(); wait > 0 {
				cmd = tea.Tick(wait, func(time.Time) tea.Msg { return unlockMsg{} })
			}
		case res.Reward != nil:
			m.lastMiss = false
			m.lastReward = res.Reward
		}
	}
	return cmd
}

func (m *Model) finishRound() {
	ctx := context.Background()
	summary, err := m.sess.EndRound(ctx)
	if err != nil {
		m.logger.Error("end round", "err", err)
		return
	}
	m.summary = summary
	for _, f := range summary.Failures {
		m.logger.Warn("round-end modifier skipped", "modifier", f.ID, "err", f.Err)
	}
	if m.deps.Recorder != nil {
		if _, err := m.deps.Recorder.InsertRound(ctx, summary.Stats, summary.Units); err != nil {
			m.logger.Error("save round", "err", err)
		}
	}
	m.save(ctx)
	if m.deps.AfterRound != nil {
		m.deps.AfterRound(ctx)
	}
	m.lastKPM, m.lastAcc = statsPkg.RoundMetrics(summary.Stats.Keystrokes, summary.Stats.Misses, summary.Stats.DurationMs)
	m.hasLast = true

	m.picked = ""
	m.hand = nil
	if !summary.CycleOver {
		m.hand = m.deps.Draft()
	}
	m.screen = screenResult
}

func (m *Model) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyEnter {
		if m.sess.CycleOver() {
			m.screen = screenCycleOver
			return nil
		}
		return m.startRound()
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return nil
	}
	r := msg.Runes[0]
	switch {
	case r >= '1' && r <= '9':
		m.pickCard(int(r - '1'))
	case r >= 'a' && r <= 'z':
		m.unlockTier(int(r - 'a'))
	case r >= 'A' && r <= 'Z':
		m.buyUpgrade(int(r - 'A'))
	}
	return nil
}

func (m *Model) pickCard(idx int) {
	if m.picked != "" || idx < 0 || idx >= len(m.hand) {
		return
	}
	c := m.hand[idx]
	if err := m.sess.AddModifier(c.Modifier()); err != nil {
		m.notice = err.Error()
		return
	}
	m.picked = c.ID
	m.notice = fmt.Sprintf("%s is active for the rest of the cycle.", c.Name)
	m.save(context.Background())
}

func (m *Model) unlockTier(idx int) {
	if idx < 0 || idx >= len(m.deps.Tiers) {
		return
	}
	tier := m.deps.Tiers[idx]
	if err := m.sess.UnlockTier(tier.ID); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = fmt.Sprintf("Unlocked %s.", tier.Name)
	m.save(context.Background())
}

func (m *Model) buyUpgrade(idx int) {
	catalog := session.Upgrades()
	if idx < 0 || idx >= len(catalog) {
		return
	}
	u := catalog[idx]
	if err := m.sess.BuyUpgrade(u.ID); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = fmt.Sprintf("Bought %s (owned %d).", u.Name, m.sess.UpgradeCount(u.ID))
	m.save(context.Background())
}

func (m *Model) prestige() {
	gained, err := m.sess.Prestige()
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = fmt.Sprintf("Prestige! +%s heavenly chips.", bignum.Format(gained))
	m.save(context.Background())
	m.screen = screenReady
}

func (m *Model) save(ctx context.Context) {
	if m.deps.Recorder == nil {
		return
	}
	if err := m.deps.Recorder.SaveSnapshot(ctx, store.DefaultSlot, m.sess.Snapshot()); err != nil {
		m.logger.Error("save snapshot", "err", err)
	}
}

// quit keeps the last between-round save when a round is abandoned.
func (m *Model) quit() {
	if m.screen == screenTyping {
		return
	}
	m.save(context.Background())
}

func (m *Model) renderReady() string {
	st := m.sess.Status()
	lines := []string{
		titleStyle.Render("kanabake"),
		"",
		fmt.Sprintf("Round %d/%d", st.Round, st.Rounds),
		fmt.Sprintf("Cookies %s · Heavenly chips %s", bignum.Format(st.TotalScore), bignum.Format(st.Chips)),
	}
	if m.notice != "" {
		lines = append(lines, "", m.notice)
	}
	lines = append(lines, "", pendingStyle.Render("enter: start round · esc: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderTyping() string {
	st := m.sess.Status()
	header := fmt.Sprintf("Round %d/%d · %ds · Combo %d ×%.2f · %.0f KPS",
		st.Round, st.Rounds, st.TimeRemaining, st.Combo, st.ComboMultiplier, st.InputRate)

	frac := 0.0
	if m.deps.RoundSeconds > 0 {
		frac = float64(st.TimeRemaining) / float64(m.deps.RoundSeconds)
	}

	units := currentUnits(st.Guide, st.Progress.Cursor)
	phrase := renderStyledRunes(buildPhraseRunes([]rune(st.Phrase.Text), st.Progress.Cursor, units, st.Locked))
	guide := wrapStyledRunes(buildGuideRunes(st.Guide, st.Progress.Cursor, st.Progress.Buffer), m.contentWidth())

	reward := ""
	switch {
	case st.Locked:
		reward = incorrectStyle.Render(fmt.Sprintf("miss! %dms", m.sess.LockRemaining().Milliseconds()))
	case m.lastMiss:
		reward = incorrectStyle.Render("miss")
	case m.lastReward != nil:
		reward = "+" + bignum.Format(m.lastReward.Score)
		if m.lastReward.Critical {
			reward = criticalStyle.Render(fmt.Sprintf("%s CRITICAL ×%.0f", reward, m.lastReward.CriticalMultiplier))
		}
	}

	lines := []string{
		header,
		m.timer.ViewAs(frac),
		"",
		phrase,
		guide,
		"",
		fmt.Sprintf("Round %s · Tier ×%g", bignum.Format(st.RoundScore), st.Phrase.Multiplier),
		reward,
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderResult() string {
	s := m.summary
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Round %d complete", s.Stats.Round)),
		fmt.Sprintf("Score %s", bignum.Format(s.Score)),
	}
	if s.RawScore != nil && s.Score != nil && s.RawScore.Cmp(s.Score) != 0 {
		lines = append(lines, fmt.Sprintf("Round bonus %s → %s", bignum.Format(s.RawScore), bignum.Format(s.Score)))
	}
	lines = append(lines,
		fmt.Sprintf("Units %d · Misses %d · Max combo %d · Criticals %d",
			s.Stats.Units, s.Stats.Misses, s.Stats.MaxCombo, s.Stats.Criticals),
		fmt.Sprintf("Cookies %s", bignum.Format(m.sess.Status().TotalScore)),
	)

	if len(m.hand) > 0 {
		lines = append(lines, "", "Pick a card:")
		for i, c := range m.hand {
			mark := " "
			if c.ID == m.picked {
				mark = "*"
			}
			lines = append(lines, cardStyle.Render(fmt.Sprintf("%s[%d] %s (%s)\n%s", mark, i+1, c.Name, c.Rarity, c.Description)))
		}
	}

	lines = append(lines, "", "Tiers:")
	lines = append(lines, m.tierLines()...)
	lines = append(lines, "", "Shop:")
	lines = append(lines, m.upgradeLines()...)
	if m.notice != "" {
		lines = append(lines, "", m.notice)
	}
	next := "enter: next round"
	if s.CycleOver {
		next = "enter: finish cycle"
	}
	lines = append(lines, "", pendingStyle.Render("1-3: pick card · a-z: unlock tier · A-B: buy upgrade · "+next))
	return strings.Join(lines, "\n")
}

func (m *Model) tierLines() []string {
	out := make([]string, 0, len(m.deps.Tiers))
	for i, t := range m.deps.Tiers {
		state := "unlocked"
		if !m.sess.IsUnlocked(t.ID) {
			state = "cost " + t.Cost
			if cost, err := t.CostIn(bignum.Decimals); err == nil {
				state = "cost " + bignum.Format(cost)
			}
			if t.Requires != "" && !m.sess.IsUnlocked(t.Requires) {
				state += ", needs " + t.Requires
			}
		}
		out = append(out, fmt.Sprintf("[%c] %s ×%g (%s)", 'a'+i, t.Name, t.Multiplier, state))
	}
	return out
}

func (m *Model) upgradeLines() []string {
	catalog := session.Upgrades()
	out := make([]string, 0, len(catalog))
	for i, u := range catalog {
		price := "?"
		if p, err := m.sess.UpgradePrice(u.ID); err == nil {
			price = bignum.Format(p)
		}
		out = append(out, fmt.Sprintf("[%c] %s: %s (owned %d, cost %s)", 'A'+i, u.Name, u.Description, m.sess.UpgradeCount(u.ID), price))
	}
	return out
}

func (m *Model) renderCycleOver() string {
	st := m.sess.Status()
	chips := session.ChipsFor(bignum.Decimals, st.TotalScore)
	lines := []string{
		titleStyle.Render("Cycle complete"),
		fmt.Sprintf("Cookies %s", bignum.Format(st.TotalScore)),
		fmt.Sprintf("Prestige for %s heavenly chips", bignum.Format(chips)),
		"",
		pendingStyle.Render("p or enter: prestige · esc: quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	st := m.sess.Status()
	segments := []string{
		fmt.Sprintf("Cookies %s", bignum.Format(st.TotalScore)),
		fmt.Sprintf("Chips %s", bignum.Format(st.Chips)),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f KPM · %.1f%%", m.lastKPM, m.lastAcc*100))
	}
	if len(st.Modifiers) > 0 {
		segments = append(segments, "Cards "+strings.Join(st.Modifiers, ","))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
