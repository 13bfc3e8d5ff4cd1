// Command gachasim runs gacha draws and estimates against rate tables on disk.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/logger"
)

const usage = `usage: gachasim <command> [flags]

commands:
  list      list active and retired boxes
  draw      run batches of draws and print the tally
  estimate  Monte Carlo estimate of draws and cost to reach a target
  plan      cheapest way to buy at least N draws
  watch     reload boxes as their files change

run "gachasim <command> -h" for command flags
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadSimulator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Logger("gachasim"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "list":
		err = runList(cfg, args)
	case "draw":
		err = runDraw(ctx, cfg, args)
	case "estimate":
		err = runEstimate(cfg, args)
	case "plan":
		err = runPlan(cfg, args)
	case "watch":
		err = runWatch(ctx, cfg, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}
