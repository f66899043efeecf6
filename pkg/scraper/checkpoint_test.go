package scraper

import (
	"errors"
	"testing"
)

func TestNewCheckpoint(t *testing.T) {
	cp := NewCheckpoint("HADOOP")

	if cp.ProjectKey != "HADOOP" {
		t.Errorf("ProjectKey = %q", cp.ProjectKey)
	}
	if cp.Status != StatusPending {
		t.Errorf("Status = %q, want pending", cp.Status)
	}
	if cp.Offset != 0 || cp.Count != 0 {
		t.Errorf("fresh checkpoint offset=%d count=%d, want 0/0", cp.Offset, cp.Count)
	}
	if cp.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}
	if cp.Terminal() {
		t.Error("fresh checkpoint must not be terminal")
	}
}

func TestCheckpoint_Advance(t *testing.T) {
	cp := NewCheckpoint("HADOOP")
	cp.MarkRunning()

	cp.Advance(50, 48, "HADOOP-50")
	cp.Advance(10, 10, "HADOOP-60")

	if cp.Offset != 60 {
		t.Errorf("Offset = %d, want 60", cp.Offset)
	}
	if cp.Count != 58 {
		t.Errorf("Count = %d, want 58", cp.Count)
	}
	if cp.LastIssueKey != "HADOOP-60" {
		t.Errorf("LastIssueKey = %q", cp.LastIssueKey)
	}
}

func TestCheckpoint_Advance_KeepsLastKeyOnEmpty(t *testing.T) {
	cp := NewCheckpoint("HADOOP")
	cp.Advance(5, 5, "HADOOP-5")
	cp.Advance(0, 0, "")

	if cp.LastIssueKey != "HADOOP-5" {
		t.Errorf("LastIssueKey = %q, want HADOOP-5", cp.LastIssueKey)
	}
}

func TestCheckpoint_Transitions(t *testing.T) {
	cp := NewCheckpoint("HADOOP")

	cp.MarkRunning()
	if cp.Status != StatusRunning || cp.Terminal() {
		t.Errorf("after MarkRunning: status=%q terminal=%v", cp.Status, cp.Terminal())
	}

	cp.MarkError(errors.New("page fetch failed"))
	if cp.Status != StatusError || !cp.Terminal() {
		t.Errorf("after MarkError: status=%q terminal=%v", cp.Status, cp.Terminal())
	}
	if cp.Error != "page fetch failed" {
		t.Errorf("Error = %q", cp.Error)
	}

	// A resume re-enters running and clears the stale error detail.
	cp.MarkRunning()
	if cp.Error != "" {
		t.Errorf("Error after resume = %q, want empty", cp.Error)
	}

	cp.MarkCompleted()
	if cp.Status != StatusCompleted || !cp.Terminal() {
		t.Errorf("after MarkCompleted: status=%q terminal=%v", cp.Status, cp.Terminal())
	}
	if cp.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
}
