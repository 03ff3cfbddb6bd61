// Package cli is the terminal front end of the task tracker.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/client"
	"github.com/UnknownOlympus/iris/internal/config"
	"github.com/UnknownOlympus/iris/internal/form"
	"github.com/UnknownOlympus/iris/internal/gateway"
	"github.com/UnknownOlympus/iris/internal/lib/logger"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/notify"
	"github.com/UnknownOlympus/iris/internal/tasklist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const notesBuffer = 32

// app is the state shared by every command of one invocation.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	apiURL     string
	timezone   string
	assumeYes  bool
	verbose    bool

	log      *slog.Logger
	loc      *time.Location
	registry *prometheus.Registry
	gateway  *gateway.Gateway
	list     *tasklist.Controller
	notes    *notify.Queue
	dropped  int64
}

// NewRootCommand builds the iris command tree reading answers from in.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "iris",
		Short: "Track calls, meetings and follow-ups against the task API",
		Long: `iris lists, creates, edits and closes tasks kept by the task API.

Run "iris shell" for an interactive session with filters and column sorting.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flags.StringVar(&a.apiURL, "api-url", "", "task API origin, overrides api.url")
	flags.StringVar(&a.timezone, "timezone", "", "IANA zone for entering and showing times (default: local)")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to confirmations")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at the level of the configured env")

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newCreateCmd(),
		a.newEditCmd(),
		a.newStatusCmd(),
		a.newDeleteCmd(),
		a.newShellCmd(),
		a.newWatchCmd(),
	)

	return rootCmd
}

// Execute runs iris with the process arguments.
func Execute(ctx context.Context, version string) error {
	rootCmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.verbose {
		a.log = logger.Setup(cfg.Env, a.errOut)
	} else {
		a.log = logger.Setup(logger.EnvProd, a.errOut)
	}

	a.loc = time.Local
	if a.timezone != "" {
		if a.loc, err = time.LoadLocation(a.timezone); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", a.timezone, err)
		}
	}

	origin := cfg.API.URL
	if a.apiURL != "" {
		origin = a.apiURL
	}

	a.registry = prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(a.registry)
	a.gateway, err = gateway.New(a.log, client.CreateHTTPClient(a.log, cfg.API.Timeout), origin, appMetrics)
	if err != nil {
		return err
	}

	a.notes = notify.NewQueue(notesBuffer)
	a.list = tasklist.NewController(a.log, a.gateway, a, a.notes, appMetrics)

	a.log.DebugContext(cmd.Context(), "CLI ready", "command", cmd.Name(), "api", origin)

	return nil
}

func (a *app) formDeps() form.Deps {
	return form.Deps{
		Log:      a.log,
		Gateway:  a.gateway,
		Sink:     a.list,
		Notifier: a.notes,
		Location: a.loc,
	}
}

// Confirm asks prompt on the terminal. Anything but y or yes declines.
func (a *app) Confirm(_ context.Context, prompt string) bool {
	if a.assumeYes {
		return true
	}

	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	answer, err := a.readLine()
	if err != nil {
		return false
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// flushNotes prints the notifications raised while a command ran.
func (a *app) flushNotes() {
	if a.notes == nil {
		return
	}

	for _, note := range a.notes.Drain() {
		if note.Level == notify.LevelError {
			fmt.Fprintf(a.out, "! %s\n", note.Message)
			continue
		}
		fmt.Fprintln(a.out, note.Message)
	}

	if dropped := a.notes.Dropped(); dropped > a.dropped {
		fmt.Fprintf(a.out, "! %d more notifications were dropped\n", dropped-a.dropped)
		a.dropped = dropped
	}
}
