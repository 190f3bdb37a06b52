package notify

import "context"

// Message is one reminder notification addressed to a single recipient.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier attempts delivery of one message and reports the outcome. No
// retry logic lives behind this interface.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}
