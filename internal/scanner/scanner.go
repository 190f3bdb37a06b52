package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/quiethours/scheduler/internal/identity"
	"github.com/quiethours/scheduler/internal/notify"
	"github.com/quiethours/scheduler/internal/storage"
	log "github.com/sirupsen/logrus"
)

const DefaultLookahead = 10 * time.Minute

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Detail struct {
	OwnerContact string `json:"ownerContact"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

type Summary struct {
	BlocksScanned int      `json:"blocksScanned"`
	Sent          int      `json:"sent"`
	Failed        int      `json:"failed"`
	Details       []Detail `json:"details"`
}

type Scanner struct {
	storage   storage.Storage
	identity  identity.Provider
	notifier  notify.Notifier
	lookahead time.Duration
}

func New(stor storage.Storage, provider identity.Provider, notifier notify.Notifier, lookahead time.Duration) *Scanner {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Scanner{storage: stor, identity: provider, notifier: notifier, lookahead: lookahead}
}

// Run claims every unsent block starting within the lookahead window and
// attempts one notification per claimed block. The claim happens before any
// delivery attempt and is never rolled back: a failed send is reported in the
// summary but not retried. Only a claim-phase storage failure aborts the run.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	now := time.Now()
	blocks, err := s.storage.ClaimDueBlocks(ctx, now, now.Add(s.lookahead))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to claim due blocks: %w", err)
	}

	summary := Summary{BlocksScanned: len(blocks), Details: make([]Detail, 0, len(blocks))}
	for _, b := range blocks {
		email, err := s.identity.ResolveEmail(ctx, b.OwnerID)
		if err != nil {
			log.Errorf("failed to resolve email for owner %q: %v", b.OwnerID, err)
			summary.Failed++
			summary.Details = append(summary.Details, Detail{
				OwnerContact: b.OwnerID,
				Title:        b.Title,
				Status:       StatusFailed,
				Error:        err.Error(),
			})
			continue
		}

		if err := s.notifier.Send(ctx, renderMessage(b, email)); err != nil {
			log.Errorf("failed to notify %q: %v", email, err)
			summary.Failed++
			summary.Details = append(summary.Details, Detail{
				OwnerContact: email,
				Title:        b.Title,
				Status:       StatusFailed,
				Error:        err.Error(),
			})
			continue
		}

		summary.Sent++
		summary.Details = append(summary.Details, Detail{OwnerContact: email, Title: b.Title, Status: StatusSent})
	}
	return summary, nil
}

func renderMessage(b storage.Block, email string) notify.Message {
	body := fmt.Sprintf(
		"Your study block %q starts at %s and ends at %s.",
		b.Title,
		b.StartTime.Local().Format(time.RFC1123),
		b.EndTime.Local().Format(time.RFC1123),
	)
	if b.Description != "" {
		body += "\n\n" + b.Description
	}
	return notify.Message{
		To:      email,
		Subject: fmt.Sprintf("Reminder: %s starts soon", b.Title),
		Body:    body,
	}
}
