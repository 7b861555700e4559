package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"xoxo/internal/storage"
)

// DailyStats summarizes the delivery journal for one UTC day.
type DailyStats struct {
	Date      string               `json:"date"`
	Passes    int                  `json:"passes"`
	Delivered int                  `json:"delivered"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	UserStats map[string]UserStats `json:"user_stats"`
}

// UserStats is the per-recipient part of DailyStats.
type UserStats struct {
	User      string   `json:"user"`
	Delivered []string `json:"delivered,omitempty"`
	Failures  []string `json:"failures,omitempty"`
}

// AnalyzeDailyEvents counts the events that happened on targetDate.
func AnalyzeDailyEvents(events []storage.Event, targetDate time.Time) *DailyStats {
	targetDate = targetDate.UTC()
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		UserStats: make(map[string]UserStats),
	}
	passes := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		passes[event.PassID] = true

		userStat, exists := stats.UserStats[event.User]
		if !exists {
			userStat = UserStats{User: event.User}
		}
		switch event.Outcome {
		case "delivered":
			stats.Delivered++
			userStat.Delivered = append(userStat.Delivered, event.Candy)
		case "skipped":
			stats.Skipped++
		case "failed":
			stats.Failed++
			userStat.Failures = append(userStat.Failures, event.Error)
		}
		stats.UserStats[event.User] = userStat
	}

	stats.Passes = len(passes)
	return stats
}

// GenerateReportSummary renders a short human-readable report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delivery report for %s: %d passes, %d delivered, %d skipped, %d failed\n",
		ds.Date, ds.Passes, ds.Delivered, ds.Skipped, ds.Failed)

	names := make([]string, 0, len(ds.UserStats))
	for name := range ds.UserStats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		us := ds.UserStats[name]
		if len(us.Delivered) == 0 && len(us.Failures) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s:", name)
		if len(us.Delivered) > 0 {
			fmt.Fprintf(&b, " delivered %s", strings.Join(us.Delivered, ", "))
		}
		if len(us.Failures) > 0 {
			fmt.Fprintf(&b, " %d failures (last: %s)", len(us.Failures), us.Failures[len(us.Failures)-1])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
