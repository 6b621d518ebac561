package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/mq"
)

// Sender delivers one rendered mail message.
type Sender interface {
	Send(ctx context.Context, from string, job Job) error
}

// Worker consumes mail jobs from the queue and delivers them.
type Worker struct {
	queue   *mq.MQ
	channel string
	sender  Sender
	from    string
}

func NewWorker(queue *mq.MQ, cfg config.MailConfig, sender Sender) *Worker {
	return &Worker{
		queue:   queue,
		channel: cfg.Queue,
		sender:  sender,
		from:    cfg.Sender,
	}
}

// Run blocks consuming mail jobs until ctx ends. Failed deliveries are
// nacked back to the broker for redelivery.
func (w *Worker) Run(ctx context.Context) error {
	return w.queue.Subscribe(ctx, w.channel, func(ctx context.Context, msg mq.Message) error {
		var job Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			// Undecodable jobs would redeliver forever; drop them.
			log.Printf("mailworker: dropping malformed job %s: %v", msg.ID, err)
			return nil
		}
		from := w.from
		if attr := msg.Attributes["from"]; attr != "" {
			from = attr
		}
		if err := w.sender.Send(ctx, from, job); err != nil {
			log.Printf("mailworker: delivery to %s failed: %v", job.To, err)
			return err
		}
		return nil
	})
}

// SMTPSender delivers mail over plain SMTP with optional AUTH.
type SMTPSender struct {
	addr     string
	host     string
	username string
	password string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (s *SMTPSender) Send(_ context.Context, from string, job Job) error {
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", job.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", job.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(job.Body)

	return smtp.SendMail(s.addr, auth, envelopeAddress(from), []string{job.To}, []byte(msg.String()))
}

// envelopeAddress strips an optional display name from a From header
// value so the SMTP envelope gets a bare address.
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}
