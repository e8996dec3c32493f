package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Martian-dev/inbox-categorizer/internal/eventstore/sqlite"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

const EventInboxClassified = "inbox.classified"

// Summary describes a finished run by category totals only.
type Summary struct {
	RunID        string                 `json:"runId"`
	UserID       string                 `json:"userId"`
	Provider     ProviderName           `json:"provider"`
	Timestamp    time.Time              `json:"timestamp"`
	MessageCount int                    `json:"messageCount"`
	Counts       map[inbox.Category]int `json:"categories"`
}

// Journal records run summaries.
type Journal interface {
	Record(ctx context.Context, s Summary) error
}

// StoreJournal writes summaries to the sqlite journal. With Publish set it
// also queues each summary for the Dispatcher.
type StoreJournal struct {
	Store   *sqlite.Store
	Publish bool
}

func (j *StoreJournal) Record(ctx context.Context, s Summary) error {
	countsJSON, err := json.Marshal(s.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}

	run := sqlite.RunRecord{
		RunID:          s.RunID,
		Timestamp:      s.Timestamp.Unix(),
		UserID:         s.UserID,
		Provider:       string(s.Provider),
		MessageCount:   s.MessageCount,
		CategoriesJSON: string(countsJSON),
	}

	var entry *sqlite.OutboxEntry
	if j.Publish {
		payload, err := json.Marshal(map[string]interface{}{
			"event_id":      s.RunID,
			"event_type":    EventInboxClassified,
			"ts":            s.Timestamp.Unix(),
			"user_id":       s.UserID,
			"provider":      string(s.Provider),
			"message_count": s.MessageCount,
			"categories":    s.Counts,
		})
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		entry = &sqlite.OutboxEntry{
			Subject:   EventSubject(s.UserID),
			EventType: EventInboxClassified,
			Payload:   payload,
			MsgID:     fmt.Sprintf("%s|%s", EventInboxClassified, s.RunID),
		}
	}

	return j.Store.AppendRun(ctx, run, entry)
}

// Recent returns up to limit summaries for userID, newest first.
func (j *StoreJournal) Recent(ctx context.Context, userID string, limit int) ([]Summary, error) {
	runs, err := j.Store.ListRuns(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(runs))
	for _, r := range runs {
		var counts map[inbox.Category]int
		if err := json.Unmarshal([]byte(r.CategoriesJSON), &counts); err != nil {
			return nil, fmt.Errorf("decode counts for run %s: %w", r.RunID, err)
		}
		out = append(out, Summary{
			RunID:        r.RunID,
			UserID:       r.UserID,
			Provider:     ProviderName(r.Provider),
			Timestamp:    time.Unix(r.Timestamp, 0).UTC(),
			MessageCount: r.MessageCount,
			Counts:       counts,
		})
	}
	return out, nil
}

var subjectTokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// EventSubject returns the NATS subject for a user's classification events.
func EventSubject(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("user.%s.%s", subjectTokenReplacer.Replace(userID), EventInboxClassified)
}
