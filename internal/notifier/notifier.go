// Package notifier delivers registration emails. Delivery is best-effort:
// the ledger dispatches after its transaction commits and treats a failure
// as a warning, never as grounds to roll the registration back.
package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Message is one email to deliver.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends messages to attendees and organizers.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPNotifier delivers mail through a plain-auth SMTP relay.
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTP constructs an SMTPNotifier.
func NewSMTP(host, port, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, username: username, password: password, from: from}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	addr := n.host + ":" + n.port
	if err := smtp.SendMail(addr, auth, n.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of delivering them.
// Used when no SMTP relay is configured, typically in local development.
type LogNotifier struct {
	log *zap.Logger
}

// NewLog constructs a LogNotifier.
func NewLog(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info("email suppressed (no SMTP relay configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Outbox records messages instead of delivering them. Tests inspect it to
// assert how many notifications a flow produced.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

// NewOutbox constructs an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}
