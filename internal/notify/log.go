package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogNotifier only logs messages. For development.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, m Message) error {
	log.WithField("to", m.To).WithField("subject", m.Subject).Info("reminder notification")
	return nil
}
