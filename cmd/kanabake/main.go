// Package main provides the CLI entrypoint for kanabake.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kanabake/internal/cards"
	"github.com/verte-zerg/kanabake/internal/config"
	"github.com/verte-zerg/kanabake/internal/generator"
	"github.com/verte-zerg/kanabake/internal/logging"
	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/observe"
	"github.com/verte-zerg/kanabake/internal/romaji"
	"github.com/verte-zerg/kanabake/internal/scoring"
	"github.com/verte-zerg/kanabake/internal/session"
	"github.com/verte-zerg/kanabake/internal/stats"
	"github.com/verte-zerg/kanabake/internal/statsui"
	"github.com/verte-zerg/kanabake/internal/store"
	"github.com/verte-zerg/kanabake/internal/tui"
	"github.com/verte-zerg/kanabake/internal/wordlist"
)

const (
	defaultRoundSeconds = 30
	defaultRounds       = 10
	defaultCooldownMs   = 500
	defaultWeakTop      = 8
	defaultWeakFactor   = 2.0
	defaultWeakWindow   = 20
	defaultCurveWindow  = 20
	defaultLogLevel     = "info"
	draftSize           = 3
)

var (
	playRoundSeconds int
	playRounds       int
	playCooldownMs   int
	playTiers        string
	playFocusWeak    bool
	playWeakTop      int
	playWeakFactor   float64
	playWeakWindow   int
	playSeed         int64
	playFresh        bool
	playLogLevel     string

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsKana        string
	statsInteractive bool

	tiersForce bool

	resetSaveOnly bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kanabake",
		Short:         "Kana typing game with an idle-game score economy",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().IntVar(&playRoundSeconds, "round-seconds", defaultRoundSeconds, "seconds per round")
	rootCmd.Flags().IntVar(&playRounds, "rounds", defaultRounds, "rounds per cycle")
	rootCmd.Flags().IntVar(&playCooldownMs, "cooldown-ms", defaultCooldownMs, "input lockout after a miss (ms)")
	rootCmd.Flags().StringVar(&playTiers, "tiers", "", "word tier YAML file (default: built-in tiers)")
	rootCmd.Flags().BoolVar(&playFocusWeak, "focus-weak", false, "bias words toward weak kana")
	rootCmd.Flags().IntVar(&playWeakTop, "weak-top", defaultWeakTop, "number of weak kana to focus on")
	rootCmd.Flags().Float64Var(&playWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak kana")
	rootCmd.Flags().IntVar(&playWeakWindow, "weak-window", defaultWeakWindow, "number of recent rounds to compute weak kana")
	rootCmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed for words, cards and criticals (0: random)")
	rootCmd.Flags().BoolVar(&playFresh, "fresh", false, "ignore the saved cycle and start over")
	rootCmd.Flags().StringVar(&playLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newTiersCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "round-seconds", &playRoundSeconds, fileCfg.Game.RoundSeconds)
	applyIntConfig(cmd, "rounds", &playRounds, fileCfg.Game.Rounds)
	applyIntConfig(cmd, "cooldown-ms", &playCooldownMs, fileCfg.Game.CooldownMs)
	applyStringConfig(cmd, "tiers", &playTiers, fileCfg.Game.Tiers)
	applyBoolConfig(cmd, "focus-weak", &playFocusWeak, fileCfg.Game.FocusWeak)
	applyIntConfig(cmd, "weak-top", &playWeakTop, fileCfg.Game.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &playWeakFactor, fileCfg.Game.WeakFactor)
	applyIntConfig(cmd, "weak-window", &playWeakWindow, fileCfg.Game.WeakWindow)
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Game.LogLevel)

	cfg := model.Config{
		RoundSeconds: playRoundSeconds,
		Rounds:       playRounds,
		CooldownMs:   playCooldownMs,
		FocusWeak:    playFocusWeak,
		WeakTop:      playWeakTop,
		WeakFactor:   playWeakFactor,
		WeakWindow:   playWeakWindow,
		TiersPath:    playTiers,
		Seed:         playSeed,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	scoringCfg := scoringConfig(fileCfg.Scoring)
	if err := validateScoring(scoringCfg); err != nil {
		return err
	}

	logger, logFile, err := logging.Setup(playLogLevel, config.DefaultLogPath())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort log close.
			_ = cerr
		}
	}()

	metrics := observe.InitProvider(observe.ProviderConfig{Logger: logger})
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown metrics", "err", err)
		}
	}()

	table := romaji.DefaultTable().Extend(fileCfg.Romaji)
	tiers, err := loadTiers(cfg.TiersPath, table)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	rng := scoring.DefaultRNG()
	gen := generator.New(tiers)
	if cfg.Seed != 0 {
		rng = scoring.NewSeededRNG(uint64(cfg.Seed))
		gen = generator.NewSeeded(tiers, cfg.Seed)
	}
	engine := scoring.NewEngine(scoringCfg, scoring.WithRNG(rng), scoring.WithLogger(logger))
	sess := session.New(session.Config{
		RoundSeconds: cfg.RoundSeconds,
		Rounds:       cfg.Rounds,
		Cooldown:     time.Duration(cfg.CooldownMs) * time.Millisecond,
		ChipBonus:    session.DefaultConfig().ChipBonus,
	}, engine, table, tiers, gen, session.WithLogger(logger))

	ctx := context.Background()
	if !playFresh {
		restoreSnapshot(ctx, st, sess, logger)
	}

	refreshWeak := func(ctx context.Context) {}
	if cfg.FocusWeak {
		refreshWeak = func(ctx context.Context) {
			aggs, err := st.GetWeakUnits(ctx, cfg.WeakWindow)
			if err != nil {
				logger.Error("load weak kana", "err", err)
				return
			}
			gen.SetWeak(stats.SelectWeakUnits(aggs, cfg.WeakTop), cfg.WeakFactor)
		}
		refreshWeak(ctx)
	}
	afterRound := func(ctx context.Context) {
		refreshWeak(ctx)
		metrics.Report(ctx)
	}

	m := tui.NewModel(tui.Deps{
		Session:      sess,
		Recorder:     st,
		Tiers:        tiers,
		RoundSeconds: cfg.RoundSeconds,
		Draft:        func() []cards.Card { return cards.Draft(rng, draftSize) },
		AfterRound:   afterRound,
		Logger:       logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// restoreSnapshot resumes the saved cycle. A malformed save is reported and
// the game starts fresh.
func restoreSnapshot(ctx context.Context, st *store.Store, sess *session.Session, logger *slog.Logger) {
	snap, err := st.LoadSnapshot(ctx, store.DefaultSlot)
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		return
	case err != nil:
		logger.Warn("unreadable save, starting fresh", "err", err)
		logErrf("saved game could not be read (%v); starting a fresh cycle\n", err)
		return
	}
	if err := sess.Restore(snap, cards.Modifiers); err != nil {
		logger.Warn("rejected save, starting fresh", "err", err)
		logErrf("saved game is invalid (%v); starting a fresh cycle\n", err)
	}
}

func loadTiers(path string, table *romaji.Table) ([]wordlist.Tier, error) {
	var (
		tiers []wordlist.Tier
		err   error
	)
	if path == "" {
		tiers, err = wordlist.DefaultTiers()
	} else {
		tiers, err = wordlist.LoadTiers(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers: %w", err)
	}
	tiers, dropped, removed := wordlist.FilterTiers(tiers, wordlist.FilterMapped(table))
	if len(dropped) > 0 {
		logErrf("skipping %d words with kana missing from the romaji table: %s\n", len(dropped), strings.Join(dropped, ", "))
	}
	if len(removed) > 0 {
		logErrf("skipping tiers with no typeable words or an unreachable requirement: %s\n", strings.Join(removed, ", "))
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("failed to load tiers: %w", wordlist.ErrEmptyTiers)
	}
	return tiers, nil
}

func scoringConfig(file config.ScoringConfig) scoring.Config {
	cfg := scoring.DefaultConfig()
	if file.ComboStep != nil {
		cfg.ComboStep = *file.ComboStep
	}
	if file.ComboSpan != nil {
		cfg.ComboSpan = *file.ComboSpan
	}
	if file.CriticalRate != nil {
		cfg.BaseCriticalRate = *file.CriticalRate
	}
	if file.CriticalMultiplier != nil {
		cfg.BaseCriticalMultiplier = *file.CriticalMultiplier
	}
	if file.MaxCriticalRate != nil {
		cfg.MaxCriticalRate = *file.MaxCriticalRate
	}
	return cfg
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsKana, "kana", "", "kana for the per-kana table (comma separated)")
	cmd.Flags().BoolVar(&statsInteractive, "tui", false, "open the interactive stats viewer")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Kana:        statsKana,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsInteractive {
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return printReport(cmd.OutOrStdout(), report, cfg, stats.TerminalWidth())
}

func printReport(w io.Writer, report stats.Report, cfg model.StatsConfig, width int) error {
	if err := stats.RenderSummary(w, report.Rounds); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Rounds, cfg.CurveWindow, width); err != nil {
		return err
	}
	var keep []string
	if cfg.Kana != "" {
		keep = strings.Split(cfg.Kana, ",")
		for i := range keep {
			keep[i] = strings.TrimSpace(keep[i])
		}
	}
	return stats.RenderUnitTable(w, stats.FilterUnits(report.UnitAggsWindow, keep))
}

func newTiersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "List word tiers",
		Args:  cobra.NoArgs,
		RunE:  runTiersCmd,
	}
	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the built-in tiers as an editable YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTiersExportCmd,
	}
	exportCmd.Flags().BoolVar(&tiersForce, "force", false, "overwrite an existing file")
	cmd.AddCommand(exportCmd)
	return cmd
}

func runTiersCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path := ""
	if fileCfg.Game.Tiers != nil {
		path = *fileCfg.Game.Tiers
	}
	tiers, err := loadTiers(path, romaji.DefaultTable().Extend(fileCfg.Romaji))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, t := range tiers {
		requires := ""
		if t.Requires != "" {
			requires = ", requires " + t.Requires
		}
		if _, err := fmt.Fprintf(out, "%-8s %-12s x%-4g cost %s%s (%d words)\n", t.ID, t.Name, t.Multiplier, t.Cost, requires, len(t.Words)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runTiersExportCmd(_ *cobra.Command, args []string) error {
	path := config.DefaultTiersPath()
	if len(args) == 1 {
		path = args[0]
	}
	if !tiersForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("tiers file already exists: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat tiers file: %w", err)
		}
	}
	if err := writeFileAtomic(path, wordlist.DefaultTiersYAML()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logErrf("Wrote %s\n", path)
	logErrln("Set `tiers` in the [game] section of the config to use it.")
	return nil
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the kana to romaji table",
		Args:  cobra.NoArgs,
		RunE:  runTableCmd,
	}
}

func runTableCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	table := romaji.DefaultTable().Extend(fileCfg.Romaji)
	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, unit := range table.Units() {
		spellings, _ := table.Lookup(unit)
		if _, err := fmt.Fprintf(w, "%s\t%s\n", unit, strings.Join(spellings, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete saved progress and round history",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetSaveOnly, "save-only", false, "only delete the saved cycle, keep round history")
	return cmd
}

func runResetCmd(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	ctx := context.Background()
	if resetSaveOnly {
		if err := st.ClearSnapshot(ctx, store.DefaultSlot); err != nil {
			return fmt.Errorf("failed to clear save: %w", err)
		}
		logErrln("Saved cycle deleted.")
		return nil
	}
	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	logErrln("Saved cycle and round history deleted.")
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "tiers-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateConfig(cfg model.Config) error {
	if cfg.RoundSeconds <= 0 {
		return fmt.Errorf("--round-seconds must be > 0")
	}
	if cfg.Rounds <= 0 {
		return fmt.Errorf("--rounds must be > 0")
	}
	if cfg.CooldownMs < 0 {
		return fmt.Errorf("--cooldown-ms must be >= 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func validateScoring(cfg scoring.Config) error {
	if cfg.ComboSpan <= 0 {
		return fmt.Errorf("scoring.combo-span must be > 0")
	}
	if cfg.ComboStep < 0 {
		return fmt.Errorf("scoring.combo-step must be >= 0")
	}
	if cfg.BaseCriticalRate < 0 || cfg.BaseCriticalRate > 1 {
		return fmt.Errorf("scoring.critical-rate must be between 0 and 1")
	}
	if cfg.BaseCriticalMultiplier < 1 {
		return fmt.Errorf("scoring.critical-multiplier must be >= 1")
	}
	if cfg.MaxCriticalRate < 0 {
		return fmt.Errorf("scoring.max-critical-rate must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
