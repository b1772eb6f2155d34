package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quarryhill/cclens/internal/output"
	"github.com/quarryhill/cclens/internal/watcher"
)

var (
	watchFlagInterval int
	watchFlagBudget   float64
	watchFlagNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sessions live and alert on notable changes",
	Long: `Run in the foreground, watching the transcript directory for file
changes and polling usage at a regular interval. Alerts fire on new
sessions, parse problems, and budget overruns. Stop with Ctrl-C.

Examples:
  cclens watch
  cclens watch --interval 10 --budget 25
  cclens watch --notify`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlagInterval, "interval", 0, "Poll interval in seconds (0 uses config)")
	watchCmd.Flags().Float64Var(&watchFlagBudget, "budget", 0, "Alert when total cost exceeds this (USD, 0 uses config)")
	watchCmd.Flags().BoolVar(&watchFlagNotify, "notify", false, "Send desktop notifications for warnings")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval := cfg.Watch.IntervalSeconds
	if watchFlagInterval > 0 {
		interval = watchFlagInterval
	}
	budget := cfg.Billing.BudgetUSD
	if watchFlagBudget > 0 {
		budget = watchFlagBudget
	}
	notify := cfg.Watch.Notify || watchFlagNotify

	alertFn := func(a watcher.Alert) {
		printAlert(a)
		if notify && a.Level != "info" {
			if err := watcher.Notify(a); err != nil && flagVerbose {
				fmt.Printf("notify failed: %v\n", err)
			}
		}
	}

	mon := watcher.NewMonitor(cfg.ClaudeHome, time.Duration(interval)*time.Second, parserOptions(cfg), alertFn)
	mon.BudgetUSD = budget

	debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	w, err := watcher.New(cfg.ClaudeHome, debounce, func(e watcher.Event) {
		fmt.Printf("%s %s %s\n",
			output.StyleMuted.Render(time.Now().Format("15:04:05")),
			string(e.Type), shortID(e.SessionID))
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Close()

	fmt.Println(output.StyleHeader.Render("Watching " + cfg.ClaudeHome))
	fmt.Printf("Poll interval %ds, debounce %s", interval, debounce)
	if budget > 0 {
		fmt.Printf(", budget $%.2f", budget)
	}
	fmt.Println(". Ctrl-C to stop.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(ctx) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nStopped.")
	return nil
}

func printAlert(a watcher.Alert) {
	stamp := output.StyleMuted.Render(a.Time.Format("15:04:05"))
	var level string
	switch a.Level {
	case "critical":
		level = output.StyleError.Render("CRIT")
	case "warning":
		level = output.StyleWarning.Render("WARN")
	default:
		level = output.StyleSuccess.Render("INFO")
	}
	fmt.Printf("%s %s %s: %s\n", stamp, level, a.Title, a.Message)
}
