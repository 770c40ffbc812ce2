// Package main provides the CLI entrypoint for vezaxff.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/vezaxff/internal/analysis"
	"github.com/verte-zerg/vezaxff/internal/config"
	"github.com/verte-zerg/vezaxff/internal/logger"
	"github.com/verte-zerg/vezaxff/internal/model"
	"github.com/verte-zerg/vezaxff/internal/report"
	"github.com/verte-zerg/vezaxff/internal/reportui"
	"github.com/verte-zerg/vezaxff/internal/telemetry"
	"github.com/verte-zerg/vezaxff/internal/wcl"
)

const (
	defaultWipeGracePeriod = 15
	serviceName            = "vezaxff"
)

var (
	configPath      string
	apiKey          string
	logID           string
	baseURL         string
	timeout         time.Duration
	onlyKill        bool
	wipeGracePeriod int
	verbose         bool
	traceRequests   bool
	metricsFile     string

	outputFile  string
	interactive bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vezaxff",
		Short:         "Friendly fire dealt through Mark of the Faceless on General Vezax",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runAnalysisCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&apiKey, "apiKey", "", "your personal Warcraft Logs api key (or "+config.APIKeyEnv+")")
	pf.StringVar(&logID, "logId", "", "the ID of the log to analyse (from the report URL)")
	pf.StringVar(&baseURL, "baseUrl", wcl.DefaultBaseURL, "Warcraft Logs base URL")
	pf.DurationVar(&timeout, "timeout", wcl.DefaultTimeout, "timeout per API request")
	pf.BoolVar(&onlyKill, "onlyKill", false, "only analyse the successful kill instead of including wipes")
	pf.IntVar(&wipeGracePeriod, "wipeGracePeriod", defaultWipeGracePeriod, "seconds excluded from the end of each wipe")
	pf.BoolVar(&verbose, "verbose", false, "debug logging on stderr")
	pf.BoolVar(&traceRequests, "trace", false, "print OpenTelemetry spans to stderr")
	pf.StringVar(&metricsFile, "metricsFile", "", "write Prometheus metrics for the run to this file")

	rootCmd.Flags().StringVar(&outputFile, "outputFile", "", "write results as CSV to this file, overwriting it")
	rootCmd.Flags().BoolVar(&interactive, "interactive", false, "browse results in a terminal UI")

	rootCmd.AddCommand(newAttemptsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runAnalysisCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	lg := newRunLogger()
	shutdown, err := startTracing()
	if err != nil {
		return err
	}
	defer shutdown()

	metrics := newMetrics()
	defer writeMetrics(ctx, lg, metrics)

	client := newClient(cfg, lg, metrics)
	res, err := analysis.NewAnalyzer(client, lg, metrics).Run(ctx, analysis.Options{
		LogID:           cfg.LogID,
		OnlyKill:        cfg.OnlyKill,
		WipeGracePeriod: cfg.WipeGracePeriod,
	})
	if err != nil {
		return err
	}

	rows, err := report.Build(res.Total, res.Players)
	if err != nil {
		return err
	}

	if interactive {
		program := tea.NewProgram(reportui.NewModel(rows, len(res.Attempts)), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run results UI: %w", err)
		}
	} else {
		out := cmd.OutOrStdout()
		if err := report.RenderTable(out, rows, report.TableOptions{Color: isTerminal(out)}); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if cfg.OutputFile != "" {
		// A failed export does not fail the run.
		if err := report.WriteCSVFile(cfg.OutputFile, rows); err != nil {
			logErrf("Could not write results to file. Error message: %v\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Results have been written to %s\n", cfg.OutputFile)
		}
	}
	return nil
}

func newAttemptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attempts",
		Short: "List General Vezax attempts in a log",
		Args:  cobra.NoArgs,
		RunE:  runAttemptsCmd,
	}
}

func runAttemptsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	lg := newRunLogger()
	shutdown, err := startTracing()
	if err != nil {
		return err
	}
	defer shutdown()
	metrics := newMetrics()
	defer writeMetrics(ctx, lg, metrics)

	rep, err := newClient(cfg, lg, metrics).Fights(ctx, cfg.LogID)
	if err != nil {
		return fmt.Errorf("fetch fights: %w", err)
	}
	encounters := make([]model.Fight, 0, len(rep.Fights))
	for _, f := range rep.Fights {
		if analysis.IsEncounter(f) {
			encounters = append(encounters, f)
		}
	}
	selected := analysis.SelectAttempts(encounters, cfg.OnlyKill, cfg.WipeGracePeriod)
	if err := report.RenderAttempts(cmd.OutOrStdout(), encounters, selected); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
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
	path := configPath
	if err := ensureConfigFile(path); err != nil {
		return err
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

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// resolveConfig layers flags over the config file; the api key additionally
// falls back to WCL_API_KEY (or .env) before the file.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	envKey, err := config.LoadEnv(config.DefaultEnvPath())
	if err != nil {
		return model.Config{}, err
	}

	if !cmd.Flags().Changed("apiKey") && envKey != "" {
		apiKey = envKey
	} else {
		applyStringConfig(cmd, "apiKey", &apiKey, fileCfg.API.Key)
	}
	applyStringConfig(cmd, "baseUrl", &baseURL, fileCfg.API.BaseURL)
	if fileCfg.API.Timeout != nil {
		applyDurationConfig(cmd, "timeout", &timeout, &fileCfg.API.Timeout.Duration)
	}
	applyBoolConfig(cmd, "onlyKill", &onlyKill, fileCfg.Analysis.OnlyKill)
	applyIntConfig(cmd, "wipeGracePeriod", &wipeGracePeriod, fileCfg.Analysis.WipeGracePeriod)
	if cmd.Flags().Lookup("outputFile") != nil {
		applyStringConfig(cmd, "outputFile", &outputFile, fileCfg.Output.File)
	}

	cfg := model.Config{
		APIKey:          strings.TrimSpace(apiKey),
		LogID:           strings.TrimSpace(logID),
		BaseURL:         baseURL,
		Timeout:         timeout,
		OnlyKill:        onlyKill,
		WipeGracePeriod: wipeGracePeriod,
		OutputFile:      strings.TrimSpace(outputFile),
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("Api Key is required (--apiKey, %s or [api] key in %s)", config.APIKeyEnv, configPath)
	}
	if cfg.LogID == "" {
		return fmt.Errorf("Log ID is required (--logId)")
	}
	if cfg.WipeGracePeriod < 0 {
		return fmt.Errorf("--wipeGracePeriod must be >= 0")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("--baseUrl must not be empty")
	}
	return nil
}

func newRunLogger() logger.Logger {
	return logger.NewStderr(verbose).With(logger.String("run_id", uuid.NewString()))
}

func newClient(cfg model.Config, lg logger.Logger, m *telemetry.Metrics) *wcl.Client {
	return wcl.NewClient(cfg.APIKey,
		wcl.WithBaseURL(cfg.BaseURL),
		wcl.WithTimeout(cfg.Timeout),
		wcl.WithLogger(lg.Named("wcl")),
		wcl.WithMetrics(m),
	)
}

func startTracing() (func(), error) {
	if !traceRequests {
		return func() {}, nil
	}
	shutdown, err := telemetry.InitTracer(os.Stderr, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			logErrf("failed to flush traces: %v\n", err)
		}
	}, nil
}

func newMetrics() *telemetry.Metrics {
	if metricsFile == "" {
		return nil
	}
	return telemetry.NewMetrics()
}

func writeMetrics(ctx context.Context, lg logger.Logger, m *telemetry.Metrics) {
	if m == nil {
		return
	}
	if err := m.WriteFile(metricsFile); err != nil {
		lg.Warn(ctx, "failed to write metrics", logger.String("path", metricsFile), logger.Error(err))
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
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

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# vezaxff configuration
# Uncomment a value to enable it. CLI flags override config values.

[api]
# key = ""                # Warcraft Logs v1 api key (%s also works)
# base-url = %q
# timeout = %q            # Per-request timeout

[analysis]
# only-kill = false       # Skip wipes
# wipe-grace-period = %d  # Seconds trimmed from the end of each wipe

[output]
# file = ""               # CSV output path
`,
		config.APIKeyEnv,
		wcl.DefaultBaseURL,
		wcl.DefaultTimeout.String(),
		defaultWipeGracePeriod,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
