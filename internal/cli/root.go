// Package cli implements the foundry command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"foundry/internal/app"
	"foundry/internal/config"
)

type env struct {
	app   *app.App
	reg   *prometheus.Registry
	stats bool
}

// Execute runs the foundry command tree with args and releases the client context
// whether or not the command succeeded.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, &env{}, args)
}

func execute(ctx context.Context, e *env, args []string) error {
	root := rootCmd(e)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.close())
}

func rootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "foundry",
		Short:         "Command line client for the wellness service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&e.stats, "stats", false, "print query cache counters after the command")

	root.AddCommand(
		loginCmd(e),
		logoutCmd(e),
		whoamiCmd(e),
		protocolsCmd(e),
		toggleCmd(e),
		bookingsCmd(e),
		metricsCmd(e),
		achievementsCmd(e),
		checkCmd(e),
	)
	return root
}

func (e *env) open(ctx context.Context) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	e.reg = prometheus.NewRegistry()
	e.app, err = app.Open(ctx, cfg, app.Options{Logger: log, Registerer: e.reg})
	return err
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	if e.stats {
		e.printStats()
	}
	a := e.app
	e.app = nil
	return a.Close()
}

func (e *env) printStats() {
	families, err := e.reg.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gather metrics: %v\n", err)
		return
	}
	lines := make([]string, 0, len(families))
	for _, f := range families {
		for _, m := range f.GetMetric() {
			name := f.GetName()
			for _, l := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", l.GetName(), l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%-60s %v", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(os.Stderr, l)
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}
