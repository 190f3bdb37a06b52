package storage

import (
	"fmt"
	"strings"
	"time"
)

type Block struct {
	ID           string    `json:"id" db:"id"`
	OwnerID      string    `json:"ownerId" db:"owner_id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	StartTime    time.Time `json:"startTime" db:"start_timestamp"`
	EndTime      time.Time `json:"endTime" db:"end_timestamp"`
	ReminderSent bool      `json:"reminderSent" db:"reminder_sent"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Validate checks the fields every write must satisfy. The past-start rule
// applies to fresh submissions only, so it lives in AddBlock rather than here.
func (b Block) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidBlock)
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return fmt.Errorf("start and end times are required: %w", ErrInvalidBlock)
	}
	if !b.EndTime.After(b.StartTime) {
		return fmt.Errorf("end time should be after start time: %w", ErrInvalidBlock)
	}
	return nil
}
