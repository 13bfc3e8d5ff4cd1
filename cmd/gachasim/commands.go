package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/message"

	"github.com/xtding233/gacha-sim/internal/box"
	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/gacha"
	"github.com/xtding233/gacha-sim/internal/pricing"
	"github.com/xtding233/gacha-sim/internal/session"
)

func runList(cfg *config.Simulator, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dir := fs.String("dir", cfg.BoxDir, "box directory")
	_ = fs.Parse(args)

	l, err := box.NewLoader(*dir, box.DefaultCacheSize)
	if err != nil {
		return err
	}
	listing, err := l.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tITEMS\tMASS")
	emit := func(ids []string, status string) {
		for _, id := range ids {
			b, err := l.Load(id)
			if err != nil {
				slog.Warn("Skipping box", "box", id, "error", err)
				continue
			}
			t := b.Table()
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\n", id, b.DisplayTitle(), status, len(t), t.Mass())
		}
	}
	emit(listing.Active, "active")
	emit(listing.Retired, "retired")
	return w.Flush()
}

func runDraw(ctx context.Context, cfg *config.Simulator, args []string) error {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	var src sourceFlags
	src.register(fs, cfg)
	n := fs.Int("n", 0, "draws per batch (default: the box's first batch size, else 1)")
	times := fs.Int("times", 1, "number of batches")
	seed := fs.Uint64("seed", 0, "PRNG seed; 0 uses crypto randomness")
	filter := fs.String("filter", "", "show only this rarity (Common, Uncommon, Rare, Jackpot)")
	statsURL := fs.String("stats", cfg.StatsURL, "stats service base URL")
	grpcAddr := fs.String("grpc", "", "stats service gRPC address (overrides -stats)")
	asJSON := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(args)

	b, err := src.load()
	if err != nil {
		return err
	}
	size := *n
	if size == 0 {
		size = 1
		if len(b.Batches) > 0 {
			size = b.Batches[0]
		}
	}
	if !b.Allows(size) {
		return fmt.Errorf("batch size %d not offered by box %q (allowed %v)", size, b.ID, b.Batches)
	}
	var rarity gacha.Rarity
	if *filter != "" {
		r, ok := gacha.ParseRarity(*filter)
		if !ok {
			return fmt.Errorf("unknown rarity %q", *filter)
		}
		rarity = r
	}

	reporter, async, closeReporter, err := newReporter(cfg, *statsURL, *grpcAddr)
	if err != nil {
		return err
	}

	sess := session.New(gacha.NewSimulator(rngFor(*seed)), reporter,
		session.WithLocale(localeTag(cfg)),
		session.WithLogger(slog.Default().With("box", b.ID)))
	sess.Select(b)
	reporter.ReportVisitor(ctx)

	for i := 0; i < *times; i++ {
		if ctx.Err() != nil {
			break
		}
		if _, err := sess.Draw(ctx, size); err != nil {
			closeReporter()
			return err
		}
	}
	closeReporter()

	snap := sess.Snapshot()
	rows := sess.Items(rarity)
	if *asJSON {
		out := struct {
			session.Snapshot
			Items []session.ItemCount `json:"items"`
		}{snap, rows}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	p := message.NewPrinter(localeTag(cfg))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tCOUNT\tRARITY")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Item, r.Count, r.Rarity)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	p.Printf("\n%s: %d draws, %d misses, %d distinct, spent %s\n",
		snap.Title, snap.TotalDraws, snap.Misses, snap.Distinct, money(p, snap.TotalCost))
	if async != nil {
		if g, ok := async.Global(); ok {
			p.Printf("global: %d visitors, %s spent\n", g.Visitors, money(p, g.TotalSpent))
		}
	}
	return nil
}

func runEstimate(cfg *config.Simulator, args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	var src sourceFlags
	src.register(fs, cfg)
	goal := fs.String("goal", string(gacha.GoalFirstItem), "first_item, first_rarity or fixed_budget")
	target := fs.String("target", "", "item name for first_item / fixed_budget")
	rarityName := fs.String("rarity", "", "rarity for first_rarity / fixed_budget")
	trials := fs.Int("trials", 10000, "number of trials")
	batch := fs.Int("batch", 1, "draws bought per batch")
	budget := fs.Int("budget", 100, "draws per trial for fixed_budget")
	maxDraws := fs.Int("max", gacha.DefaultMaxDraws, "cap per open-ended trial")
	seed := fs.Uint64("seed", 0, "PRNG seed; 0 uses crypto randomness")
	asJSON := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(args)

	b, err := src.load()
	if err != nil {
		return err
	}
	p := gacha.SimParams{
		Table:     b.Table(),
		Target:    *target,
		Schedule:  b.Schedule,
		BatchSize: *batch,
		NumDraws:  *budget,
		MaxDraws:  *maxDraws,
	}
	if *rarityName != "" {
		r, ok := gacha.ParseRarity(*rarityName)
		if !ok {
			return fmt.Errorf("unknown rarity %q", *rarityName)
		}
		p.Rarity = r
	}
	if p.Target == "" && p.Rarity == "" {
		return errors.New("one of -target or -rarity is required")
	}

	res, err := gacha.RunMonteCarlo(p, gacha.TrialGoal(*goal), *trials, rngFor(*seed))
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	pr := message.NewPrinter(localeTag(cfg))
	metric := "draws"
	if res.Goal == gacha.GoalFixedBudget {
		metric = "hits"
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tMEAN\tSTDDEV\tP50\tP90\tP99")
	fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.0f\t%.0f\t%.0f\n", metric,
		res.Draws.Mean, res.Draws.StdDev, res.Draws.P50, res.Draws.P90, res.Draws.P99)
	fmt.Fprintf(w, "cost\t%s\t%s\t%s\t%s\t%s\n",
		money(pr, res.Cost.Mean), money(pr, res.Cost.StdDev),
		money(pr, res.Cost.P50), money(pr, res.Cost.P90), money(pr, res.Cost.P99))
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Censored > 0 {
		pr.Printf("%d of %d trials stopped at %d draws\n", res.Censored, res.Trials, p.MaxDraws)
	}
	return nil
}

func runPlan(cfg *config.Simulator, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var src sourceFlags
	src.register(fs, cfg)
	draws := fs.Int("draws", 0, "minimum number of draws to buy")
	_ = fs.Parse(args)

	if *draws <= 0 {
		return errors.New("-draws must be > 0")
	}
	b, err := src.load()
	if err != nil {
		return err
	}
	plan := pricing.CheapestPlan(b.Schedule, b.Batches, *draws)
	if len(plan.Purchases) == 0 {
		return fmt.Errorf("no batch sizes available for box %q", b.ID)
	}

	p := message.NewPrinter(localeTag(cfg))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tQTY\tPRICE\tSUBTOTAL")
	for _, pu := range plan.Purchases {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", pu.Batch, pu.Qty, money(p, pu.UnitPrice), money(p, pu.Subtotal))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	p.Printf("%d draws for %s (naive %s)\n", plan.TotalDraws, money(p, plan.TotalCost),
		money(p, b.Schedule.Cost(*draws)))
	return nil
}

func runWatch(ctx context.Context, cfg *config.Simulator, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dir := fs.String("dir", cfg.BoxDir, "box directory")
	interval := fs.Duration("interval", cfg.ReloadInterval, "poll interval")
	_ = fs.Parse(args)

	l, err := box.NewLoader(*dir, box.DefaultCacheSize)
	if err != nil {
		return err
	}
	w := box.WatchLoader(l, *interval, func(path string) {
		slog.Info("Box files changed", "path", path)
		reportBoxes(l)
	})
	reportBoxes(l)
	w.Start()
	defer w.Stop()

	<-ctx.Done()
	return nil
}

func reportBoxes(l *box.Loader) {
	listing, err := l.List()
	if err != nil {
		slog.Error("Failed to list boxes", "error", err)
		return
	}
	for _, id := range append(listing.Active, listing.Retired...) {
		b, err := l.Load(id)
		if err != nil {
			slog.Warn("Box failed to load", "box", id, "error", err)
			continue
		}
		t := b.Table()
		attrs := []any{"box", id, "entries", len(t), "mass", t.Mass(), "retired", b.Retired}
		if lost := t.Unreachable(); len(lost) > 0 {
			names := make([]string, len(lost))
			for i, e := range lost {
				names[i] = e.Item
			}
			attrs = append(attrs, "unreachable", strings.Join(names, ", "))
		}
		slog.Info("Box loaded", attrs...)
	}
}

func rngFor(seed uint64) gacha.RandomSource {
	if seed == 0 {
		return gacha.DefaultRNG()
	}
	return gacha.NewSeededRNG(seed)
}

