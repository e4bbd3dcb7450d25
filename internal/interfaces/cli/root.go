// Package cli is the ipdash command-line host: it loads configuration, wires
// the API client, cache, metrics and view engine, and renders dashboard views
// to the terminal.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ipdash/internal/config"
	"github.com/turtacn/ipdash/internal/infrastructure/cache"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ipdash/pkg/client"
	"github.com/turtacn/ipdash/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	EnvFile      string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	APIURL       string
	MetricsAddr  string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Client       *client.Client
	Metrics      *prometheus.DashboardMetrics
	OutputFormat string
	NoColor      bool
	Timeout      time.Duration

	closers []func() error
}

// Close releases everything opened by persistentPreRun, newest first.
func (c *CLIContext) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ipdash",
		Short: "Patent-prosecution analytics dashboard for the terminal",
		Long: "ipdash fetches per-company patent-prosecution statistics from the analytics\n" +
			"API and renders a searchable, sortable, filterable dashboard in the terminal.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return nil
			}
			return cliCtx.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load (default: ./.env when present)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputTable, "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "overall operation timeout (default: api.timeout)")
	pf.StringVar(&opts.APIURL, "api", "", "analytics API base URL (overrides api.base_url)")
	pf.StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.AddCommand(
		NewTableCmd(),
		NewStatsCmd(),
		NewChartsCmd(),
		NewExportCmd(),
		NewInteractiveCmd(),
	)
	return cmd
}

// persistentPreRun initializes config, logger, metrics, cache and client,
// then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
	}
	cliCtx.closers = append(cliCtx.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	switch cliCtx.OutputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.New(errors.ErrCodeUnsupportedFormat, "unsupported output format").WithDetail(opts.OutputFormat)
	}

	if err := initMetrics(cliCtx, opts); err != nil {
		_ = cliCtx.Close()
		return fmt.Errorf("metrics initialization failed: %w", err)
	}

	if err := initClient(cmd.Context(), cliCtx); err != nil {
		_ = cliCtx.Close()
		return fmt.Errorf("API client initialization failed: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	var loadOpts []config.Option
	if opts.ConfigPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(opts.ConfigPath))
	}
	if opts.EnvFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(opts.EnvFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, err
	}

	if opts.APIURL != "" {
		cfg.API.BaseURL = opts.APIURL
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigValidation, err)
	}
	return cfg, nil
}

// initLogger creates a logger configured for CLI usage (output to stderr by
// default so stdout stays machine-readable).
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := logging.Level(strings.ToLower(cfg.Log.Level))
	if opts.Verbose {
		level = logging.LevelDebug
	}
	output := cfg.Log.Output
	if output == "" {
		output = "stderr"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Log.Format,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// initMetrics registers the dashboard metrics on a private registry and,
// when an address is configured, serves them at /metrics.
func initMetrics(c *CLIContext, opts *RootOptions) error {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:       c.Config.Metrics.Namespace,
		EnableGoMetrics: c.Config.Metrics.Addr != "",
	}, c.Logger)
	if err != nil {
		return err
	}
	c.Metrics = prometheus.NewDashboardMetrics(collector)

	if c.Config.Metrics.Addr == "" {
		return nil
	}
	srv := startMetricsServer(c.Config.Metrics.Addr, collector.Handler(), c.Logger)
	c.closers = append(c.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return nil
}

func startMetricsServer(addr string, handler http.Handler, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", logging.Err(err))
		}
	}()
	return srv
}

// initClient creates the response cache and the API client.
func initClient(ctx context.Context, c *CLIContext) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeCache, err := cache.New(ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, closeCache)

	api := c.Config.API
	apiClient, err := client.NewClient(api.BaseURL,
		client.WithLogger(c.Logger),
		client.WithTimeout(api.Timeout),
		client.WithRetryMax(api.MaxRetries),
		client.WithRetryWait(api.RetryWaitMin, api.RetryWaitMax),
		client.WithUserAgent(api.UserAgent),
		client.WithCache(cache.Instrument(store, c.Metrics, c.Logger), c.Config.Cache.TTL),
	)
	if err != nil {
		return err
	}
	c.Client = apiClient
	return nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext bounds ctx by the --timeout flag, falling back to twice the
// per-request API timeout.
func (c *CLIContext) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * c.Config.API.Timeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx as the root command context.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// printJSON outputs data as indented JSON.
func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", errors.Message(err))
}
