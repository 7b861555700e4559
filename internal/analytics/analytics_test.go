package analytics

import (
	"strings"
	"testing"
	"time"

	"xoxo/internal/storage"
)

func TestAnalyzeDailyEvents(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: testDate.Add(2 * time.Hour), PassID: "p1", User: "amy", Outcome: "delivered", Candy: "hello"},
		{Timestamp: testDate.Add(2 * time.Hour), PassID: "p1", User: "bob", Outcome: "failed", Error: "transport failure: smtp down"},
		{Timestamp: testDate.Add(3 * time.Hour), PassID: "p2", User: "amy", Outcome: "skipped", Reason: "not_due"},
		{Timestamp: testDate.Add(3 * time.Hour), PassID: "p2", User: "bob", Outcome: "delivered", Candy: "bye"},
		// another day
		{Timestamp: testDate.AddDate(0, 0, 1), PassID: "p3", User: "amy", Outcome: "delivered", Candy: "later"},
	}

	stats := AnalyzeDailyEvents(events, testDate.Add(12*time.Hour))

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.Passes != 2 {
		t.Errorf("Expected 2 passes, got %d", stats.Passes)
	}
	if stats.Delivered != 2 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("Unexpected counters: %+v", stats)
	}
	if got := stats.UserStats["amy"].Delivered; len(got) != 1 || got[0] != "hello" {
		t.Errorf("Unexpected amy deliveries: %v", got)
	}
	if got := stats.UserStats["bob"].Failures; len(got) != 1 {
		t.Errorf("Unexpected bob failures: %v", got)
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:      "2024-01-15",
		Passes:    3,
		Delivered: 1,
		Failed:    1,
		UserStats: map[string]UserStats{
			"amy":  {User: "amy", Delivered: []string{"hello"}},
			"bob":  {User: "bob", Failures: []string{"boom"}},
			"carl": {User: "carl"},
		},
	}

	summary := stats.GenerateReportSummary()

	for _, want := range []string{"2024-01-15", "3 passes", "1 delivered", "- amy: delivered hello", "- bob: 1 failures (last: boom)"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary should contain %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "carl") {
		t.Errorf("Idle users should not be listed:\n%s", summary)
	}
}

func TestToJSON(t *testing.T) {
	stats := &DailyStats{Date: "2024-01-15", Delivered: 2, UserStats: map[string]UserStats{}}

	jsonStr, err := stats.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(jsonStr, `"date": "2024-01-15"`) || !strings.Contains(jsonStr, `"delivered": 2`) {
		t.Errorf("Unexpected JSON: %s", jsonStr)
	}
}
