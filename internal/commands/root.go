package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glabrego/soupdeck/internal/app"
	"github.com/glabrego/soupdeck/internal/config"
	"github.com/glabrego/soupdeck/internal/fetcher"
	"github.com/glabrego/soupdeck/internal/logging"
	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/storage"
	"github.com/glabrego/soupdeck/internal/tui"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// cliEnv is the state every subcommand shares once flags and settings
// have been resolved.
type cliEnv struct {
	v        *viper.Viper
	settings string
	cfg      config.Config
	log      *logrus.Logger
	closer   io.Closer
}

func (r *cliEnv) close() {
	if r.closer != nil {
		_ = r.closer.Close()
		r.closer = nil
	}
}

// NewRootCmd builds the soupdeck command tree.
func NewRootCmd() *cobra.Command {
	rt := &cliEnv{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "soupdeck",
		Short:         "soupdeck: a terminal deck of live web page extracts",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(rt.v, rt.settings); err != nil {
				return err
			}
			cfg, err := config.Load(rt.v)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			rt.cfg = cfg

			logger, closer, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Format: cfg.LogFormat})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			rt.log, rt.closer = logger, closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			load, _ := cmd.Flags().GetBool("load")
			autoRefresh, _ := cmd.Flags().GetBool("auto-refresh")
			empty, _ := cmd.Flags().GetInt("panels")
			return runTUI(cmd.Context(), rt, app.InitOptions{
				LoadPanels:      load,
				EmptyPanels:     empty,
				AutoRefresh:     autoRefresh,
				RefreshInterval: rt.cfg.RefreshInterval,
			})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rt.settings, "config", "c", "", "settings file (default ./soupdeck.yaml when present)")
	pf.String("panels-file", "config.json", "saved panel set used by save/load config")
	pf.String("db-path", "soupdeck.db", "fetch history database; empty disables history")
	pf.String("log-file", "soupdeck.log", "log file path, or - for stderr")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")
	pf.Float64("max-rps", 0, "maximum requests per second across all panels (0 = unlimited)")
	pf.Bool("concurrent-fetch", false, "fetch all panels at once instead of one after another")

	_ = rt.v.BindPFlag(config.KeyPanelsFile, pf.Lookup("panels-file"))
	_ = rt.v.BindPFlag(config.KeyDBPath, pf.Lookup("db-path"))
	_ = rt.v.BindPFlag(config.KeyLogFile, pf.Lookup("log-file"))
	_ = rt.v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = rt.v.BindPFlag(config.KeyLogFormat, pf.Lookup("log-format"))
	_ = rt.v.BindPFlag(config.KeyUserAgent, pf.Lookup("user-agent"))
	_ = rt.v.BindPFlag(config.KeyMaxRPS, pf.Lookup("max-rps"))
	_ = rt.v.BindPFlag(config.KeyConcurrentFetch, pf.Lookup("concurrent-fetch"))

	f := rootCmd.Flags()
	f.Bool("load", false, "restore the saved panel set at start")
	f.Bool("auto-refresh", false, "start with auto refresh enabled")
	f.Int("panels", 0, "empty panels to open when nothing was restored")
	f.Duration("refresh-interval", 5*time.Minute, "auto refresh interval")
	_ = rt.v.BindPFlag(config.KeyRefreshInterval, f.Lookup("refresh-interval"))

	rootCmd.AddCommand(newFetchCmd(rt), newHistoryCmd(rt), newValidateConfigCmd(rt))
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failure("error: "+err.Error()))
		os.Exit(1)
	}
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func newFetcher(cfg config.Config) *fetcher.Client {
	return fetcher.NewClient(fetcher.Options{
		UserAgent: cfg.UserAgent,
		Limiter:   fetcher.NewLimiter(cfg.MaxRPS),
	})
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context, cfg config.Config) (*storage.Repository, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := repo.Init(initCtx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(initCtx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("storage write check failed (%v). Verify SOUPDECK_DB_PATH is writable: %s", err, cfg.DBPath)
	}
	return repo, nil
}

func newOrchestrator(rt *cliEnv, sink panel.Sink, repo *storage.Repository) *app.Orchestrator {
	opts := app.Options{
		Fetcher:    newFetcher(rt.cfg),
		Sink:       sink,
		Logger:     rt.log,
		PanelsFile: rt.cfg.PanelsFile,
		Concurrent: rt.cfg.ConcurrentFetch,
	}
	if repo != nil {
		opts.Recorder = repo
	}
	return app.New(opts)
}

func runTUI(ctx context.Context, rt *cliEnv, initOpts app.InitOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	repo, err := openHistory(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	sink := tui.NewProgramSink()
	deck := newOrchestrator(rt, sink, repo)
	if err := deck.Init(ctx, initOpts); err != nil {
		return err
	}

	model := tui.NewModel(deck, tui.Options{RefreshInterval: rt.cfg.RefreshInterval})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	sinkCtx, stopSink := context.WithCancel(ctx)
	defer stopSink()
	sink.Attach(sinkCtx, program)

	_, runErr := program.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deck.Shutdown(shutdownCtx); err != nil {
		rt.log.WithError(err).Warn("shutdown")
	}
	if runErr != nil {
		return fmt.Errorf("tui error: %w", runErr)
	}
	return nil
}
