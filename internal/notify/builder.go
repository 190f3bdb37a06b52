package notify

import (
	"fmt"

	"github.com/quiethours/scheduler/internal/rabbit"
)

type Config struct {
	NotifierType string
	SMTP         SMTPConfig
	Rabbit       rabbit.Config
}

func New(config Config) (Notifier, error) {
	switch config.NotifierType {
	case "smtp":
		return NewSMTPNotifier(config.SMTP), nil
	case "rabbit":
		p := rabbit.New(config.Rabbit)
		if err := p.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to rabbit %s %d: %w", config.Rabbit.Host, config.Rabbit.Port, err)
		}
		return NewRabbitNotifier(p), nil
	case "log", "":
		return LogNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown notifier type %s", config.NotifierType)
	}
}
