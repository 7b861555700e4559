package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"xoxo/internal/analytics"
	"xoxo/internal/candy"
	"xoxo/internal/config"
	"xoxo/internal/delivery"
	"xoxo/internal/recurrence"
	"xoxo/internal/storage"
	"xoxo/internal/transport"
	"xoxo/internal/users"
)

type app struct {
	cfg      *config.Config
	store    delivery.Store
	recorder storage.Recorder
	engine   *delivery.Engine
	closers  []func() error
}

// newApp wires the engine from config. withSender=false skips transport
// setup for read-only commands.
func newApp(ctx context.Context, cfg *config.Config, withSender bool) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.StateBackend {
	case config.BackendSQLite:
		s, err := delivery.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	default:
		a.store = delivery.NewFileStore()
	}

	rec, err := storage.NewFileRecorder(cfg.JournalPath)
	if err != nil {
		log.Printf("failed to init delivery journal: %v", err)
	} else {
		a.recorder = rec
	}

	if !withSender {
		return a, nil
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	policy, err := recurrence.Parse(cfg.Cadence, recurrence.SystemClock)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := []delivery.Option{}
	if a.recorder != nil {
		opts = append(opts, delivery.WithRecorder(a.recorder))
	}
	a.engine = delivery.NewEngine(a.store, candy.NewSelector(nil, cfg.NoteExt), sender, policy, opts...)
	return a, nil
}

func newSender(ctx context.Context, cfg *config.Config) (transport.Sender, error) {
	switch cfg.Transport {
	case config.TransportGmail:
		creds, err := cfg.GmailCredentials()
		if err != nil {
			return nil, err
		}
		p, err := transport.NewPresenter(cfg.Subject, cfg.TemplatePath)
		if err != nil {
			return nil, err
		}
		return transport.NewGmailSender(ctx, creds, cfg.GmailRefreshToken, cfg.GmailSender, p)
	case config.TransportTelegram:
		return transport.NewTelegramSender(cfg.TelegramBotToken, cfg.Subject)
	default:
		return transport.LogSender{}, nil
	}
}

// pass lists users fresh and runs the engine over them.
func (a *app) pass(ctx context.Context) delivery.Report {
	us, err := users.List(a.cfg.UsersDir)
	if err != nil {
		log.Printf("❌ Failed to list users: %v", err)
		return delivery.Report{}
	}
	r := a.engine.CheckAllUsers(ctx, us)
	log.Printf("📬 Pass %s: %d delivered, %d skipped, %d failed",
		r.PassID, r.Count(delivery.KindDelivered), r.Count(delivery.KindSkipped), r.Count(delivery.KindFailed))
	return r
}

func (a *app) todayStats() (*analytics.DailyStats, error) {
	if a.recorder == nil {
		return nil, fmt.Errorf("delivery journal is not available")
	}
	events, err := a.recorder.LoadEvents()
	if err != nil {
		return nil, err
	}
	return analytics.AnalyzeDailyEvents(events, recurrence.SystemClock.Now()), nil
}

func (a *app) report(ctx context.Context) error {
	stats, err := a.todayStats()
	if err != nil {
		return err
	}
	log.Print(stats.GenerateReportSummary())
	return nil
}

// reportJSON writes today's stats as JSON.
func (a *app) reportJSON(w io.Writer) error {
	stats, err := a.todayStats()
	if err != nil {
		return err
	}
	out, err := stats.ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
