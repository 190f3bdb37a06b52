package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &SMTPNotifier{
		addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		auth: auth,
		from: config.From,
	}
}

func (n *SMTPNotifier) Send(_ context.Context, m Message) error {
	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + m.To,
		"Subject: " + m.Subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		m.Body,
	}, "\r\n")
	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{m.To}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", m.To, err)
	}
	return nil
}
