package main

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wayneeseguin/autolog/pkg/autolog"
	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/types"
)

func loadSnapshot(path string) (config.Configuration, *settings.Snapshot, error) {
	if path == "" {
		return config.Configuration{}, nil, fmt.Errorf("no configuration file given (argument, --config or %s)", envConfig)
	}
	cfg, err := config.ParseFile(path)
	if err != nil {
		return config.Configuration{}, nil, err
	}
	snap, err := config.ApplyToSnapshot(settings.Default(), cfg, path)
	if err != nil {
		return config.Configuration{}, nil, err
	}
	return cfg, snap, nil
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check that a configuration file parses and holds valid settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configArg(opts, args)
			_, snap, err := loadSnapshot(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", path)
			fmt.Fprintf(out, "  LogLevel:            %s\n", types.LevelName(snap.LogLevel()))
			fmt.Fprintf(out, "  AutoLogSQLThreshold: %gs\n", snap.AutoLogSQLThreshold())
			fmt.Fprintf(out, "  DebugLevels:         %d\n", len(snap.DebugLevels()))
			fmt.Fprintf(out, "  MonitoredSettings:   %d\n", len(snap.MonitoredSettings()))
			fmt.Fprintf(out, "  IsPassword:          %d\n", len(snap.IsPassword()))
			return nil
		},
	}
}

func newPrintCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print [file]",
		Short: "Print every key of a configuration file with passwords masked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, snap, err := loadSnapshot(configArg(opts, args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range cfg.Paths() {
				p, _ := cfg.Get(path)
				fmt.Fprintf(out, "%s = %s\n", path, maskedValue(snap, path, p.Value))
			}
			return nil
		},
	}
}

// maskedValue hides monitored settings flagged in IsPassword.
func maskedValue(snap *settings.Snapshot, path, value string) string {
	const prefix = "/monitoredsettings/"
	if strings.HasPrefix(strings.ToLower(path), prefix) && snap.IsPasswordKey(path[len(prefix):]) {
		return autolog.MaskToken
	}
	return value
}

// startLogger builds a monitoring logger from the global flags and reports
// each applied change on the CLI log.
func startLogger(opts *globalOptions) (*autolog.Logger, error) {
	if opts.configFile == "" {
		return nil, fmt.Errorf("--config or %s is required", envConfig)
	}
	level, ok := types.ParseLevel(opts.level)
	if !ok {
		return nil, fmt.Errorf("invalid level %q", opts.level)
	}
	sink, err := buildSink(opts)
	if err != nil {
		return nil, err
	}

	logger, err := autolog.New(
		autolog.WithSink(sink),
		autolog.WithLevel(level),
		autolog.WithConfigFile(opts.configFile),
		autolog.WithErrorHandler(func(e autolog.LogError) {
			log.Error().Err(e.Err).Str("op", e.Operation).Str("code", e.Code).Msg(e.Message)
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.OnConfigFileChanged(func(ev autolog.ConfigFileChangedEvent) {
		log.Info().
			Str("source", ev.Source).
			Str("level", types.LevelName(ev.Current.LogLevel())).
			Float64("sql_threshold", ev.Current.AutoLogSQLThreshold()).
			Strs("categories", sortedKeys(ev.Current.DebugLevels())).
			Msg("configuration applied")
		logger.LogMonitoredSettings()
	})

	if err := logger.SetMonitoring(true); err != nil {
		logger.Close()
		return nil, err
	}
	return logger, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow a configuration file and report every applied change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := startLogger(opts)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("config", opts.configFile).Msg("watching, press Ctrl-C to stop")
			<-ctx.Done()
			return nil
		},
	}
}

func newDemoCommand(opts *globalOptions) *cobra.Command {
	var (
		interval time.Duration
		maxDelay time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run instrumented calls while following a configuration file",
		Long: "Runs a simulated data-access call on every tick. Raise LogLevel or lower\n" +
			"AutoLogSQLThreshold in the watched file to see the output change live.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := startLogger(opts)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, logger, interval, maxDelay, count)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "time between calls")
	cmd.Flags().DurationVar(&maxDelay, "max-delay", 2*time.Second, "upper bound of the simulated query time")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many calls, 0 runs until interrupted")
	return cmd
}

func runDemo(ctx context.Context, logger *autolog.Logger, interval, maxDelay time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; count == 0 || i <= count; i++ {
		_ = demoQuery(ctx, logger, i, maxDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	m := logger.Metrics()
	log.Info().
		Uint64("scopes", m.ScopesClosed).
		Uint64("failures", m.ScopeFailures).
		Uint64("escalations", m.Escalations).
		Msg("demo finished")
	return nil
}

func demoQuery(ctx context.Context, logger *autolog.Logger, id int, maxDelay time.Duration) error {
	scope := logger.AutoLogSQL("demo.Query", autolog.Arg("id", id), autolog.Arg("password", "hunter2"))
	defer scope.Close()

	delay := time.Duration(0)
	if maxDelay > 0 {
		delay = time.Duration(rand.Int63n(int64(maxDelay)))
	}
	select {
	case <-ctx.Done():
		return scope.LogFunction(ctx.Err())
	case <-time.After(delay):
	}

	if id%5 == 0 {
		return scope.LogFunction(pkgerrors.Errorf("row %d is locked", id))
	}
	scope.SetResult(fmt.Sprintf("%d rows", id%3+1))
	return nil
}
