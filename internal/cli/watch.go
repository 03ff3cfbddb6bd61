package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/server"
	"github.com/UnknownOlympus/iris/internal/services/refresh"
	"github.com/spf13/cobra"
)

func (a *app) newWatchCmd() *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint the task list on an interval until interrupted",
		Long: `Reload and reprint the task list every --interval until interrupted.

A failed first load ends the command. A failed reload is reported and the list
is reloaded again on the next tick. With --metrics-addr the client metrics
(API calls, list loads) are served on /metrics while watching.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.flushNotes()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if metricsAddr != "" {
				stopped := a.serveMetrics(ctx, metricsAddr)
				defer func() {
					cancel()
					<-stopped
				}()
			}

			svc := refresh.NewService(a.log, a.list, func(err error) {
				if err == nil {
					fmt.Fprintf(a.out, "\n%s\n", time.Now().In(a.loc).Format(displayLayout))
					a.showList()
				}
				a.flushNotes()
			})

			return svc.Start(ctx, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between reloads")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", `serve client metrics on this address, e.g. "127.0.0.1:9091"`)

	return cmd
}

// serveMetrics runs the client metrics endpoint until ctx is done. The returned
// channel is closed once the server has stopped.
func (a *app) serveMetrics(ctx context.Context, addr string) <-chan struct{} {
	stopped := make(chan struct{})
	srv := server.NewHTTPServer(addr, server.MetricsHandler(a.registry))

	go func() {
		defer close(stopped)
		if err := server.Serve(ctx, a.log.With("server", "metrics"), srv); err != nil {
			a.log.ErrorContext(ctx, "Metrics server failed", sl.Err(err))
		}
	}()

	return stopped
}
