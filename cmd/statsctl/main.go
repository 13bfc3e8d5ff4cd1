// Command statsctl inspects and adjusts the global stats counters directly in
// the configured store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/database"
	"github.com/xtding233/gacha-sim/internal/logger"
	"github.com/xtding233/gacha-sim/internal/stats"
	"github.com/xtding233/gacha-sim/internal/statsclient"
)

const usage = `usage: statsctl <command> [flags]

commands:
  view                 print visitors and total spent
  adjust-visitors N    add N (may be negative) to the visitor count

flags:
  -url URL   read through a running stats server instead of the store (view only)
  -json      print JSON
`

func main() {
	fs := flag.NewFlagSet("statsctl", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	url := fs.String("url", "", "stats server base URL")
	asJSON := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Logger("statsctl"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var c stats.Counters
	switch args[0] {
	case "view":
		if *url != "" {
			c, err = statsclient.New(*url, 0).Get(ctx)
		} else {
			c, err = withService(ctx, cfg, func(svc stats.Service) (stats.Counters, error) {
				return svc.Get(ctx)
			})
		}
	case "adjust-visitors":
		if len(args) != 2 {
			fs.Usage()
			os.Exit(2)
		}
		delta, perr := strconv.ParseInt(args[1], 10, 64)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "invalid visitor delta %q\n", args[1])
			os.Exit(2)
		}
		c, err = withService(ctx, cfg, func(svc stats.Service) (stats.Counters, error) {
			return svc.AdjustVisitors(ctx, delta)
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "command", args[0], "error", err)
		os.Exit(1)
	}

	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(c)
		return
	}
	p := message.NewPrinter(language.English)
	p.Printf("visitors:    %d\n", c.Visitors)
	p.Printf("total spent: $%.2f\n", c.TotalSpent)
}

func withService(ctx context.Context, cfg *config.Server, fn func(stats.Service) (stats.Counters, error)) (stats.Counters, error) {
	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		return stats.Counters{}, err
	}
	defer store.Close()
	return fn(stats.NewService(store))
}
