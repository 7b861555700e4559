package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReportSchedule is every day at 21:00 UTC.
const DefaultReportSchedule = "0 21 * * *"

// Scheduler runs delivery passes at a fixed interval and an optional daily
// report. Passes never overlap, and Stop waits for a running pass to finish.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	interval   time.Duration
	reportSpec string
	passFunc   func(ctx context.Context)
	reportFunc func(ctx context.Context) error
	wg         sync.WaitGroup
	started    bool
}

// New creates a scheduler; an empty reportSpec uses DefaultReportSchedule.
func New(interval time.Duration, reportSpec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if reportSpec == "" {
		reportSpec = DefaultReportSchedule
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		ctx:        ctx,
		cancel:     cancel,
		interval:   interval,
		reportSpec: reportSpec,
	}
}

// SetPassFunction sets the function run on every pass. It receives a context
// that is cancelled by Stop and must only check it at safe points.
func (s *Scheduler) SetPassFunction(f func(ctx context.Context)) {
	s.passFunc = f
}

// SetReportFunction sets the function used for daily reports.
func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start runs a first pass right away, then one every interval.
func (s *Scheduler) Start() error {
	if s.passFunc == nil {
		log.Println("⚠️ Pass function not set, scheduler will not deliver anything")
		return nil
	}

	pass := cron.NewChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))).Then(cron.FuncJob(s.runPass))
	s.cron.Schedule(cron.Every(s.interval), pass)

	if s.reportFunc != nil {
		_, err := s.cron.AddFunc(s.reportSpec, func() {
			log.Printf("🕘 Triggered delivery report (%s)", s.reportSpec)
			if err := s.reportFunc(s.ctx); err != nil {
				log.Printf("❌ Delivery report failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.started = true
	s.cron.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pass.Run()
	}()
	log.Printf("📅 Scheduler started - delivery pass every %s", s.interval)
	return nil
}

func (s *Scheduler) runPass() {
	if s.ctx.Err() != nil {
		return
	}
	s.passFunc(s.ctx)
	log.Printf("💤 Going to sleep for %s...", s.interval)
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop cancels the pass context and waits for running jobs, including the
// first pass started by Start.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.wg.Wait()
	s.started = false
	log.Println("📅 Scheduler stopped")
}

// IsRunning reports whether the scheduler was started and not stopped.
func (s *Scheduler) IsRunning() bool {
	return s.started && len(s.cron.Entries()) > 0
}
