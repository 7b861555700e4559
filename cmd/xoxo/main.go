package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"xoxo/internal/config"
	"xoxo/internal/delivery"
	"xoxo/internal/scheduler"
	"xoxo/internal/users"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "xoxo",
	Short:        "Deliver one unseen candy to every user, once per interval",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run delivery passes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.New()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		s := scheduler.New(cfg.PollInterval, cfg.ReportSchedule)
		s.SetPassFunction(func(ctx context.Context) { a.pass(ctx) })
		s.SetReportFunction(a.report)
		log.Printf("🚀 Starting xoxo (users=%s, cadence=%q, transport=%s)", cfg.UsersDir, cfg.Cadence, cfg.Transport)
		return s.Run(ctx)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single delivery pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.New()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.pass(ctx)
		for _, o := range r.Outcomes {
			fmt.Fprintln(cmd.OutOrStdout(), o)
		}
		if n := r.Count(delivery.KindFailed); n > 0 {
			return fmt.Errorf("%d user(s) failed", n)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show delivery history size and next delivery per user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.New()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		us, err := users.List(cfg.UsersDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, u := range us {
			st, err := a.store.Load(ctx, u)
			if err != nil {
				fmt.Fprintf(out, "%s\terror: %v\n", u.Name, err)
				continue
			}
			next := "now"
			if st.NextEligible != nil {
				next = st.NextEligible.Format(time.RFC3339)
			}
			last := "-"
			if r, ok := st.LastDelivery(); ok {
				last = fmt.Sprintf("%s at %s", r.CandyName, r.SentAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "%s\tdelivered=%d\tlast=%s\tnext=%s\n", u.Name, len(st.History), last, next)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print today's delivery report from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()
		if reportJSON {
			return a.reportJSON(cmd.OutOrStdout())
		}
		return a.report(cmd.Context())
	},
}

var reportJSON bool

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(runCmd, onceCmd, statusCmd, reportCmd)
}
