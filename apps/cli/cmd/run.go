package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/env"
	"github.com/abdul-hamid-achik/rowspec/packages/core/logging"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/core/parser"
	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
	"github.com/abdul-hamid-achik/rowspec/packages/history"
	"github.com/abdul-hamid-achik/rowspec/packages/mappers"
	"github.com/abdul-hamid-achik/rowspec/packages/metrics"
	"github.com/abdul-hamid-achik/rowspec/packages/notify"
	"github.com/abdul-hamid-achik/rowspec/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Run parameterized tests from suite files",
	Long: `Run the tests declared in rowspec suite files (*.rowspec.yaml).

Every test runs once per parameter row. A failing row is retried before it
is reported; the retry count comes from --retry, then RETRY_COUNT, then 2.

Examples:
  rowspec run math.rowspec.yaml
  rowspec run ./suites/ --name "add*"
  rowspec run math.rowspec.yaml --retry 0 --parameters "1;2;3"
  rowspec run ./suites/ --output junit --output-file report.xml
  rowspec run ./suites/ --history .rowspec/history.db --watch
  rowspec run ./suites/ --notify slack --notify-url "$SLACK_WEBHOOK" --notify-on recovery`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envFlag            string
	envFileFlag        string
	configFlag         string
	nameFlag           string
	verboseFlag        int // 0=off, 1=-v, 2=-vv
	logLevelFlag       string
	noColorFlag        bool
	outputFlag         string
	outputFileFlag     string
	bailFlag           bool
	dryRunFlag         bool
	watchFlag          bool
	timeoutFlag        string
	retryFlag          string
	retryDelayFlag     int
	parametersFlag     string
	flatFlag           bool
	resourceDirFlag    string
	historyFlag        string
	metricsFileFlag    string
	shellFlag          string
	assumeExitCodeFlag int
	notifyFlag         string
	notifyURLFlag      string
	notifyOnFlag       string
)

func init() {
	// Core flags
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("ROWSPEC_ENV", ""), "Suite environment to use (env: ROWSPEC_ENV)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("ROWSPEC_ENV_FILE", ""), "Path to .env file read for RETRY_COUNT, parameters and {{$NAME}} references (env: ROWSPEC_ENV_FILE)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("ROWSPEC_CONFIG", ""), "Path to config file (env: ROWSPEC_CONFIG)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only tests matching name pattern")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v for details, -vv to echo command output)")
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", getEnvString("ROWSPEC_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error (env: ROWSPEC_LOG_LEVEL)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("ROWSPEC_NO_COLOR", false), "Disable colored output (env: ROWSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("ROWSPEC_OUTPUT", "console"), "Output format: console, json, junit, tap, html (env: ROWSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("ROWSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: ROWSPEC_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&metricsFileFlag, "metrics-file", getEnvString("ROWSPEC_METRICS_FILE", ""), "Write Prometheus text metrics of the run to file (env: ROWSPEC_METRICS_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("ROWSPEC_BAIL", false), "Stop on first failed test (env: ROWSPEC_BAIL)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without executing")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch suite and parameter files and re-run on change")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("ROWSPEC_TIMEOUT", ""), "Timeout of a single attempt (e.g., 30s, 1m) (env: ROWSPEC_TIMEOUT)")
	runCmd.Flags().StringVar(&retryFlag, "retry", "", "Retries after a failed attempt (overrides RETRY_COUNT)")
	runCmd.Flags().IntVar(&retryDelayFlag, "retry-delay", 0, "Minimum delay between retries in milliseconds")
	runCmd.Flags().StringVar(&parametersFlag, "parameters", "", "Replace the rows of every parameterized test with ';' separated values")
	runCmd.Flags().BoolVar(&flatFlag, "flat", false, "Report rows against their test instead of one node per row")
	runCmd.Flags().StringVar(&resourceDirFlag, "resource-dir", "", "Directory backing classpath: parameter files")
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("ROWSPEC_HISTORY", ""), "Record results in a SQLite database (env: ROWSPEC_HISTORY)")
	runCmd.Flags().StringVar(&shellFlag, "shell", "", "Shell used to run commands (default: sh)")
	runCmd.Flags().IntVar(&assumeExitCodeFlag, "assume-exit-code", 0, "Exit status reported as a failed assumption (default: 75)")

	// Notification flags
	runCmd.Flags().StringVar(&notifyFlag, "notify", getEnvString("ROWSPEC_NOTIFY", ""), "Post run results to: slack, webhook (env: ROWSPEC_NOTIFY)")
	runCmd.Flags().StringVar(&notifyURLFlag, "notify-url", getEnvString("ROWSPEC_NOTIFY_URL", ""), "Webhook URL for --notify (env: ROWSPEC_NOTIFY_URL)")
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("ROWSPEC_NOTIFY_ON", "failure"), "When to notify: always, failure, success, recovery (env: ROWSPEC_NOTIFY_ON)")

	registerRunCompletions()
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// runSettings is everything one run of the suites needs
type runSettings struct {
	cfg     *config.Config
	lookup  config.LookupFunc
	files   []string
	logger  *slog.Logger
	out     io.Writer
	errOut  io.Writer
	timeout time.Duration
	notify  *notify.Manager
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, lookup, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}
	if len(files) == 0 {
		return &exitError{code: ExitUsageError, err: fmt.Errorf("no suite files found (expected *.rowspec.yaml)")}
	}

	var timeout time.Duration
	if timeoutFlag != "" {
		timeout, err = time.ParseDuration(timeoutFlag)
		if err != nil {
			return &exitError{code: ExitUsageError, err: fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)}
		}
	}

	manager, err := newNotifyManager()
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}

	s := &runSettings{
		cfg:     cfg,
		lookup:  lookup,
		files:   files,
		logger:  newLogger(cmd.ErrOrStderr(), cfg),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		timeout: timeout,
		notify:  manager,
	}

	if dryRunFlag {
		return dryRun(s)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := executeRun(ctx, s)
	if err != nil {
		return err
	}

	if !watchFlag {
		if result.Failed > 0 {
			return &exitError{code: ExitTestFailure}
		}
		return nil
	}

	fmt.Fprintf(s.out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")
	return watch(ctx, watchDirs(files, cfg), WatchDebounceDelay, isWatchedFile, func(name string) {
		fmt.Fprintf(s.out, "\n\nFile changed: %s\nRe-running tests...\n\n", name)
		if _, err := executeRun(ctx, s); err != nil {
			s.logger.Error("run failed", "error", err)
		}
		fmt.Fprintf(s.out, "\nWatching for changes... (press Ctrl+C to stop)\n")
	}, s.logger)
}

// loadRunConfig layers explicitly set flags over the config file, then fills
// unset values from the environment. RETRY_COUNT is kept apart so an explicit
// retry count still wins over it.
func loadRunConfig(cmd *cobra.Command) (*config.Config, config.LookupFunc, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, nil, &exitError{code: ExitConfigError, err: fmt.Errorf("loading config: %w", err)}
	}

	lookup := config.LookupFunc(config.OSLookup)
	if envFileFlag != "" {
		lookup, err = config.LoadDotEnv(envFileFlag)
		if err != nil {
			return nil, nil, &exitError{code: ExitConfigError, err: err}
		}
	}

	flags := cmd.Flags()
	overrides := &config.Config{}
	if flags.Changed("retry") {
		overrides.Retry = retryFlag
	}
	if flags.Changed("retry-delay") {
		overrides.RetryDelay = retryDelayFlag
	}
	if flags.Changed("parameters") {
		overrides.Parameters = parametersFlag
	}
	if flags.Changed("flat") {
		overrides.Flat = config.BoolPtr(flatFlag)
	}
	if flags.Changed("no-color") || noColorFlag {
		overrides.NoColor = config.BoolPtr(noColorFlag)
	}
	if verboseFlag > 0 {
		overrides.Verbose = config.BoolPtr(true)
	}
	if flags.Changed("output") || os.Getenv("ROWSPEC_OUTPUT") != "" {
		overrides.Reporters = []string{outputFlag}
	}
	overrides.ResourceDir = resourceDirFlag
	overrides.History = historyFlag
	overrides.OutputFile = outputFileFlag
	overrides.Shell = shellFlag
	overrides.AssumeExitCode = assumeExitCodeFlag

	return fileConfig.Merge(overrides).ApplyEnv(lookup), lookup, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := logging.LevelFromString(logLevelFlag)
	if verboseFlag > 0 && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return logging.New(logging.Options{Writer: w, Level: level, NoColor: cfg.GetNoColor()})
}

// executeRun loads every suite file afresh, runs them and writes all reports.
func executeRun(ctx context.Context, s *runSettings) (*runner.RunResult, error) {
	out := s.out
	if s.cfg.OutputFile != "" {
		f, err := os.Create(s.cfg.OutputFile)
		if err != nil {
			return nil, &exitError{code: ExitUsageError, err: fmt.Errorf("cannot create output file: %w", err)}
		}
		defer f.Close()
		out = f
	}

	reporter := "console"
	if len(s.cfg.Reporters) > 0 {
		reporter = s.cfg.Reporters[0]
	}
	formatter, err := output.New(reporter, output.Options{
		Writer:  out,
		Verbose: s.cfg.GetVerbose(),
		NoColor: s.cfg.GetNoColor(),
	})
	if err != nil {
		return nil, &exitError{code: ExitUsageError, err: err}
	}
	formatter.FormatHeader(version)

	suites, err := loadSuites(s)
	if err != nil {
		formatter.FormatError(err)
		return nil, &exitError{code: ExitParseError, err: err}
	}

	opts := []runner.Option{
		runner.WithLogger(s.logger),
		runner.WithMappers(mappers.Default()),
		runner.WithNameFilter(nameFlag),
		runner.WithBail(bailFlag),
	}
	if s.cfg.ResourceDir != "" {
		opts = append(opts, runner.WithResources(os.DirFS(s.cfg.ResourceDir)))
	}
	if s.timeout > 0 {
		opts = append(opts, runner.WithInterceptors(runner.Timeout(s.timeout)))
	}

	result := runner.NewRunner(s.cfg, opts...).Run(ctx, suites...)

	formatter.FormatResult(result)
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(result.Duration); err != nil {
			return nil, fmt.Errorf("error writing output: %w", err)
		}
	}

	if s.cfg.History != "" {
		if err := recordHistory(ctx, s.cfg.History, result); err != nil {
			s.logger.Warn("failed to record history", "path", s.cfg.History, "error", err)
		}
	}
	if metricsFileFlag != "" {
		if err := writeMetrics(metricsFileFlag, result); err != nil {
			s.logger.Warn("failed to write metrics", "path", metricsFileFlag, "error", err)
		}
	}
	if s.notify != nil {
		if err := s.notify.Notify(ctx, notify.Summarize(result, envFlag)); err != nil {
			s.logger.Warn("failed to send notification", "error", err)
		}
	}

	return result, nil
}

// loadSuites parses and builds every file against one class registry so that
// files may extend or source classes declared in other files.
func loadSuites(s *runSettings) ([]*runner.Suite, error) {
	registry := params.NewRegistry()

	var commandOutput io.Writer
	if verboseFlag > 1 {
		commandOutput = s.errOut
	}

	var suites []*runner.Suite
	for _, file := range s.files {
		f, err := parser.ParseFile(file)
		if err != nil {
			return nil, err
		}
		built, err := parser.Build(f, parser.BuildOptions{
			Shell: runner.ShellOptions{
				Shell:          s.cfg.Shell,
				Dir:            filepath.Dir(file),
				AssumeExitCode: s.cfg.AssumeExitCode,
				Output:         commandOutput,
			},
			Registry:    registry,
			Environment: envFlag,
			Lookup:      env.LookupFunc(s.lookup),
			Logger:      s.logger,
		})
		if err != nil {
			return nil, err
		}
		suites = append(suites, built...)
	}
	return suites, nil
}

func recordHistory(ctx context.Context, path string, result *runner.RunResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, result)
}

// newNotifyManager returns nil when no notifier is configured. The manager
// outlives a single run so watch mode can report recoveries.
func newNotifyManager() (*notify.Manager, error) {
	if notifyFlag == "" && notifyURLFlag == "" {
		return nil, nil
	}
	on, err := notify.ParseNotifyOn(notifyOnFlag)
	if err != nil {
		return nil, err
	}
	n, err := notify.New(notifyFlag, notifyURLFlag)
	if err != nil {
		return nil, err
	}
	return notify.NewManager(on, n), nil
}

func writeMetrics(path string, result *runner.RunResult) error {
	rec := metrics.NewRecorder()
	rec.ObserveRun(result)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return metrics.WritePrometheus(f, rec.Summary())
}

func dryRun(s *runSettings) error {
	suites, err := loadSuites(s)
	if err != nil {
		return &exitError{code: ExitParseError, err: err}
	}
	for _, suite := range suites {
		for _, t := range suite.Tests {
			fmt.Fprintf(s.out, "Would run: %s.%s\n", suite.Class.Name, t.Name)
		}
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isSuiteFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		// an explicitly named file only needs to be YAML
		if ext := strings.ToLower(filepath.Ext(arg)); ext == ".yaml" || ext == ".yml" {
			files = append(files, arg)
		}
	}

	return files, nil
}

func isSuiteFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".rowspec.yaml") || strings.HasSuffix(name, ".rowspec.yml")
}

var watchedExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".csv": true, ".tsv": true, ".json": true, ".sql": true,
}

// isWatchedFile matches suite files and the parameter files mappers read
func isWatchedFile(path string) bool {
	return watchedExtensions[strings.ToLower(filepath.Ext(path))]
}

func watchDirs(files []string, cfg *config.Config) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, f := range files {
		add(filepath.Dir(f))
	}
	add(cfg.ResourceDir)
	return dirs
}
