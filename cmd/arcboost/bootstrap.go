package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/config"
	"github.com/jamesainslie/arcboost/pkg/boost/disksize"
	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/journal"
	"github.com/jamesainslie/arcboost/pkg/boost/logging"
	"github.com/jamesainslie/arcboost/pkg/boost/ops"
	"github.com/jamesainslie/arcboost/pkg/boost/privilege"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

func init() {
	rootCmd.PersistentPreRunE = initializeLogging
}

// initializeLogging is the PersistentPreRunE hook. It makes sure the
// application directories exist and brings the logging system up from
// configuration before any command runs.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}
	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to ensure data directory: %w", err)
	}
	if err := config.EnsureStateDir(); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: cfg.Logging.ConsoleLevel,
	}

	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}
	if getQuiet() {
		logCfg.ConsoleLevel = ""
	}

	return logging.Init(logCfg)
}

// initTUILogging re-initializes logging for TUI mode: console output off
// because the TUI owns the terminal, in-memory buffer on for the log pane.
func initTUILogging() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
		TUIMode:    true,
	}

	if getVerbose() {
		logCfg.Level = "debug"
	}

	return logging.Init(logCfg)
}

// parseRotationConfig converts the string-based rotation settings from the
// config file into the byte-based form the logging package wants. An empty
// or unparseable max_size falls back to 10MB.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize, err := disksize.ParseSize(rc.MaxSize)
	if err != nil || maxSize <= 0 {
		maxSize = 10 * disksize.MiB
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}

// resolveStatePath picks the applied-record path: the --state-file flag
// wins, then the configured state_path, then the default. Simulated runs
// get their own record file so they never mix with real system state.
func resolveStatePath(cfg *config.Config) string {
	if p := viper.GetString("state_file"); p != "" {
		if expanded, err := config.ExpandPath(p); err == nil {
			return expanded
		}
		return p
	}
	if cfg != nil && cfg.StatePath != "" {
		return cfg.StatePath
	}
	if viper.GetBool("simulate") {
		return filepath.Join(config.DataDir(), "applied.sim.json")
	}
	return config.DefaultStatePath()
}

// currentGate returns the privilege gate for this invocation. Simulated
// runs pretend to be elevated so every tweak is exercisable.
func currentGate() privilege.Gate {
	if viper.GetBool("simulate") {
		return privilege.Static(true)
	}
	return privilege.OS()
}

// newEngine builds the full stack behind a command: catalog, executor,
// applied-tweak record, and privilege gate. With --simulate the executor
// is an in-memory snapshot of a stock Windows install.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	st, err := state.Open(resolveStatePath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open applied-tweak record: %w", err)
	}

	var x ops.Executor
	if viper.GetBool("simulate") {
		x = simulatedSystem()
	} else {
		x = ops.NewOS()
	}

	return engine.New(catalog.Default(), x, st, currentGate()), nil
}

// openJournal opens the batch history journal when enabled. Both return
// values are nil when journaling is disabled.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if cfg == nil || !cfg.Journal.Enabled {
		return nil, nil
	}
	dir := cfg.Journal.Path
	if dir == "" {
		dir = config.DefaultJournalPath()
	}
	return journal.Open(dir)
}

// journalBatch records a completed batch on a best-effort basis. Journal
// problems are logged, never surfaced: history must not fail a batch that
// already ran.
func journalBatch(rep *engine.Report) {
	cfg, err := config.Load()
	if err != nil {
		return
	}
	j, err := openJournal(cfg)
	if err != nil {
		printVerbose("journal unavailable: %v", err)
		return
	}
	if j == nil {
		return
	}
	defer func() { _ = j.Close() }()

	if _, err := j.Record(rep); err != nil {
		printVerbose("failed to record batch in journal: %v", err)
	}
}
