package ui

import (
	"testing"

	"followsync/pkg/syncer"
)

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func TestNotifySummary(t *testing.T) {
	tests := []struct {
		name    string
		summary syncer.Summary
		title   string
	}{
		{"clean", syncer.Summary{Succeeded: 2, Added: 5}, "followsync finished"},
		{"failures", syncer.Summary{Succeeded: 1, Failed: 1}, "followsync finished with failures"},
		{"interrupted", syncer.Summary{Canceled: true, Failed: 1}, "followsync interrupted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			if err := NewNotifierWithSender(sender).NotifySummary(tt.summary); err != nil {
				t.Fatal(err)
			}
			if len(sender.titles) != 1 || sender.titles[0] != tt.title {
				t.Errorf("Expected title %q, got %v", tt.title, sender.titles)
			}
		})
	}
}

func TestNotifyWithoutSender(t *testing.T) {
	n := NewNotifierWithSender(nil)
	if err := n.NotifySummary(syncer.Summary{}); err != nil {
		t.Errorf("Expected nil sender to be a no-op, got %v", err)
	}
}
