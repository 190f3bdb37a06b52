package notify

import (
	"context"
	"encoding/json"

	"github.com/quiethours/scheduler/internal/rabbit"
)

// RabbitNotifier hands messages off to an AMQP queue; a separate sender
// process consumes the queue and performs the actual delivery. A successful
// publish counts as a successful send attempt.
type RabbitNotifier struct {
	provider *rabbit.Provider
}

func NewRabbitNotifier(provider *rabbit.Provider) *RabbitNotifier {
	return &RabbitNotifier{provider: provider}
}

func (n *RabbitNotifier) Send(_ context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return n.provider.Publish(data)
}
