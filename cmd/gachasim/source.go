package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/gacha-sim/internal/box"
	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/grpcapi"
	"github.com/xtding233/gacha-sim/internal/pricing"
	"github.com/xtding233/gacha-sim/internal/session"
	"github.com/xtding233/gacha-sim/internal/statsclient"
)

// sourceFlags selects a rate table: a named box, or loose files.
type sourceFlags struct {
	boxID string
	items string
	costs string
	dir   string
}

func (s *sourceFlags) register(fs *flag.FlagSet, cfg *config.Simulator) {
	fs.StringVar(&s.boxID, "box", "", "box ID under the box directory")
	fs.StringVar(&s.items, "items", "", "rate table file (used instead of -box)")
	fs.StringVar(&s.costs, "costs", "", "cost schedule file for -items (\"size: price\" lines)")
	fs.StringVar(&s.dir, "dir", cfg.BoxDir, "box directory")
}

func (s *sourceFlags) load() (box.Box, error) {
	switch {
	case s.items != "":
		text, err := os.ReadFile(s.items)
		if err != nil {
			return box.Box{}, fmt.Errorf("read items: %w", err)
		}
		sched := pricing.NewSchedule(nil)
		if s.costs != "" {
			raw, err := os.ReadFile(s.costs)
			if err != nil {
				return box.Box{}, fmt.Errorf("read costs: %w", err)
			}
			sched = pricing.ParseSchedule(string(raw))
		}
		id := strings.TrimSuffix(filepath.Base(s.items), filepath.Ext(s.items))
		return box.Box{ID: id, ItemsText: string(text), Schedule: sched}, nil
	case s.boxID != "":
		l, err := box.NewLoader(s.dir, box.DefaultCacheSize)
		if err != nil {
			return box.Box{}, err
		}
		return l.Load(s.boxID)
	default:
		return box.Box{}, errors.New("one of -box or -items is required")
	}
}

// newReporter picks gRPC over HTTP when both are given. The returned close
// func waits for in-flight reports.
func newReporter(cfg *config.Simulator, statsURL, grpcAddr string) (session.Reporter, *session.AsyncReporter, func(), error) {
	log := slog.Default().With("component", "reporter")
	switch {
	case grpcAddr != "":
		conn, err := grpcapi.Dial(grpcAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		r := session.NewAsyncReporter(grpcapi.NewClient(conn), cfg.StatsTimeout, log)
		return r, r, func() {
			r.Wait()
			_ = conn.Close()
		}, nil
	case statsURL != "":
		r := session.NewAsyncReporter(statsclient.New(statsURL, cfg.StatsTimeout), cfg.StatsTimeout, log)
		return r, r, r.Wait, nil
	default:
		return session.NopReporter{}, nil, func() {}, nil
	}
}

func localeTag(cfg *config.Simulator) language.Tag {
	tag, err := language.Parse(cfg.CollateLocale)
	if err != nil {
		slog.Warn("Unknown collate locale, using English", "locale", cfg.CollateLocale)
		return language.English
	}
	return tag
}

// money formats an amount with grouping for the configured locale.
func money(p *message.Printer, v float64) string {
	return p.Sprintf("$%.2f", v)
}
