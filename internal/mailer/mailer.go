// Package mailer builds account-action notifications and hands them to
// the mail queue. Actual delivery happens in the mailworker process.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/mq"
	"github.com/inkwell-social/apiserver/types"
)

// Job is one outbound mail, serialized onto the queue as JSON.
type Job struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer renders notification mail and publishes it to the queue.
type Mailer struct {
	queue   *mq.MQ
	channel string
	sender  string
	prefix  string
}

func New(queue *mq.MQ, cfg config.MailConfig) *Mailer {
	return &Mailer{
		queue:   queue,
		channel: cfg.Queue,
		sender:  cfg.Sender,
		prefix:  cfg.SubjectPrefix,
	}
}

// SendConfirmation mails an account confirmation token.
func (m *Mailer) SendConfirmation(ctx context.Context, user types.User, tok string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nWelcome to Inkwell!\n\nTo confirm your account please use the following token:\n\n%s\n\nSincerely,\n\nThe Inkwell Team",
		user.Username, tok,
	)
	return m.publish(ctx, user.Email, "Confirm Your Account", body)
}

// SendPasswordReset mails a password reset token.
func (m *Mailer) SendPasswordReset(ctx context.Context, user types.User, tok string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nTo reset your password please use the following token:\n\n%s\n\nIf you have not requested a password reset simply ignore this message.\n\nSincerely,\n\nThe Inkwell Team",
		user.Username, tok,
	)
	return m.publish(ctx, user.Email, "Reset Your Password", body)
}

// SendEmailChange mails an email-change token to the new address.
func (m *Mailer) SendEmailChange(ctx context.Context, user types.User, newEmail, tok string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nTo confirm your new email address please use the following token:\n\n%s\n\nSincerely,\n\nThe Inkwell Team",
		user.Username, tok,
	)
	return m.publish(ctx, newEmail, "Confirm Your Email Address", body)
}

func (m *Mailer) publish(ctx context.Context, to, subject, body string) error {
	job := Job{
		To:      to,
		Subject: fmt.Sprintf("%s %s", m.prefix, subject),
		Body:    body,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = m.queue.Publish(ctx, m.channel, data, map[string]string{"from": m.sender})
	return err
}
