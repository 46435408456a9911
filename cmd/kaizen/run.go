package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xmhha/kaizen/pkg/agent"
	"github.com/0xmhha/kaizen/pkg/automation"
	"github.com/0xmhha/kaizen/pkg/bus"
	"github.com/0xmhha/kaizen/pkg/display"
	"github.com/0xmhha/kaizen/pkg/scheduler"
)

func newRunCmd(configPath *string) *cobra.Command {
	var (
		startSession bool
		noKeys       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent in the foreground",
		Long: `Run watches the configured directories, sorts new files and drives
the focus session until interrupted.

Keys (when stdin is a terminal):
  t, space   start or stop the focus session
  r          reload the configuration file
  s          show stats
  q, Ctrl-C  quit

SIGHUP reloads the configuration; SIGINT and SIGTERM stop the agent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdin := cmd.InOrStdin()
			raw := !noKeys && isTerminal(stdin)

			logOut := cmd.ErrOrStderr()
			if raw {
				logOut = display.RawWriter(logOut)
			}

			a, err := openApp(*configPath, logOut)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						a.bus.Post(bus.Command(bus.TagReload))
					}
				}
			}()

			if raw {
				restore, err := rawInput(stdin.(*os.File))
				if err != nil {
					return fmt.Errorf("failed to enable key input: %w", err)
				}
				defer restore()
				go readKeys(stdin, a.bus)
			}

			out := cmd.OutOrStdout()
			screen := display.NewTerminal(out, display.TerminalConfig{
				Color:       isTerminal(out),
				Raw:         raw,
				Preferences: a.cfg.Preferences,
			})

			sched, err := scheduler.New(scheduler.Config{
				WorkDuration:  a.cfg.WorkDuration(),
				BreakDuration: a.cfg.BreakDuration(),
				XPPerSession:  a.cfg.Progression.XPPerSession,
			}, a.ledger, a.bus, a.log.With("component", "scheduler"))
			if err != nil {
				return err
			}

			svc, err := automation.New(automation.Options{
				Ledger:  a.ledger,
				History: a.store,
				Bus:     a.bus,
			}, a.log.With("component", "automation"))
			if err != nil {
				return err
			}

			ag, err := agent.New(agent.Config{
				ConfigPath:   a.configPath,
				PollInterval: a.cfg.Agent.PollInterval.Duration,
				TickInterval: a.cfg.Agent.TickInterval.Duration,
				WatchConfig:  a.cfg.Agent.WatchConfig,
				StartSession: startSession,
			}, agent.Deps{
				Snapshot:   a.cfg,
				Bus:        a.bus,
				Scheduler:  sched,
				Automation: svc,
				Ledger:     a.ledger,
				Notifier:   screen,
			}, a.log.With("component", "agent"))
			if err != nil {
				return err
			}

			printBanner(screen, a.cfg.WatchPaths, a.cfg.DestinationRoot, raw)
			return ag.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&startSession, "start-session", false, "start a focus session right away")
	cmd.Flags().BoolVar(&noKeys, "no-keys", false, "do not read key presses from stdin")
	return cmd
}

// printBanner shows what the agent is about to do.
func printBanner(n agent.Notifier, watch []string, dest string, keys bool) {
	n.Notify(bus.Notify(fmt.Sprintf("kaizen %s: sorting %s into %s", version, strings.Join(watch, ", "), dest)))
	if keys {
		n.Notify(bus.Notify("Keys: [t] session  [r] reload  [s] stats  [q] quit"))
	}
}

// Compile-time check that the terminal satisfies the agent's notifier.
var _ agent.Notifier = (*display.Terminal)(nil)
