package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/mq"
	"github.com/inkwell-social/apiserver/types"
)

// memBackend is an in-memory mq.Backend.
type memBackend struct {
	published []mq.Message
}

func (b *memBackend) Publish(_ context.Context, _ string, data []byte, attrs map[string]string) (string, error) {
	msg := mq.Message{ID: strconv.Itoa(len(b.published) + 1), Data: data, Attributes: attrs}
	b.published = append(b.published, msg)
	return msg.ID, nil
}

func (b *memBackend) Subscribe(ctx context.Context, _ string, handler mq.Handler) error {
	for _, msg := range b.published {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *memBackend) Close() error { return nil }

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		Sender:        "Inkwell Admin <admin@inkwell.example>",
		SubjectPrefix: "[Inkwell]",
		Queue:         "mail.outbound",
	}
}

func TestMailerPublishesJobs(t *testing.T) {
	backend := &memBackend{}
	m := New(mq.New(backend), testMailConfig())
	user := types.User{Email: "john@example.com", Username: "john"}
	ctx := context.Background()

	if err := m.SendConfirmation(ctx, user, "tok-confirm"); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	if err := m.SendPasswordReset(ctx, user, "tok-reset"); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if err := m.SendEmailChange(ctx, user, "new@example.com", "tok-change"); err != nil {
		t.Fatalf("send change: %v", err)
	}

	if len(backend.published) != 3 {
		t.Fatalf("published = %d, want 3", len(backend.published))
	}

	var job Job
	if err := json.Unmarshal(backend.published[0].Data, &job); err != nil {
		t.Fatal(err)
	}
	if job.To != "john@example.com" {
		t.Errorf("to = %q", job.To)
	}
	if !strings.HasPrefix(job.Subject, "[Inkwell] ") {
		t.Errorf("subject = %q, missing prefix", job.Subject)
	}
	if !strings.Contains(job.Body, "tok-confirm") || !strings.Contains(job.Body, "Dear john") {
		t.Errorf("body = %q", job.Body)
	}
	if from := backend.published[0].Attributes["from"]; from != "Inkwell Admin <admin@inkwell.example>" {
		t.Errorf("from attribute = %q", from)
	}

	// The change-email token goes to the new address.
	if err := json.Unmarshal(backend.published[2].Data, &job); err != nil {
		t.Fatal(err)
	}
	if job.To != "new@example.com" {
		t.Errorf("change mail to = %q, want new@example.com", job.To)
	}
}

// memSender records deliveries.
type memSender struct {
	sent []Job
	from []string
	fail bool
}

func (s *memSender) Send(_ context.Context, from string, job Job) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, job)
	s.from = append(s.from, from)
	return nil
}

func TestWorkerDeliversJobs(t *testing.T) {
	backend := &memBackend{}
	queue := mq.New(backend)
	cfg := testMailConfig()
	m := New(queue, cfg)
	ctx := context.Background()

	user := types.User{Email: "john@example.com", Username: "john"}
	if err := m.SendConfirmation(ctx, user, "tok"); err != nil {
		t.Fatal(err)
	}

	sender := &memSender{}
	worker := NewWorker(queue, cfg, sender)
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("delivered = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "john@example.com" {
		t.Errorf("to = %q", sender.sent[0].To)
	}
	if sender.from[0] != cfg.Sender {
		t.Errorf("from = %q, want %q", sender.from[0], cfg.Sender)
	}
}

func TestWorkerDropsMalformedJobs(t *testing.T) {
	backend := &memBackend{}
	queue := mq.New(backend)
	if _, err := queue.Publish(context.Background(), "mail.outbound", []byte("not json"), nil); err != nil {
		t.Fatal(err)
	}

	sender := &memSender{}
	worker := NewWorker(queue, testMailConfig(), sender)
	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("malformed job delivered")
	}
}

func TestWorkerNacksFailedDelivery(t *testing.T) {
	backend := &memBackend{}
	queue := mq.New(backend)
	m := New(queue, testMailConfig())
	if err := m.SendConfirmation(context.Background(), types.User{Email: "a@b.c", Username: "a"}, "tok"); err != nil {
		t.Fatal(err)
	}

	worker := NewWorker(queue, testMailConfig(), &memSender{fail: true})
	if err := worker.Run(context.Background()); err == nil {
		t.Error("failed delivery not surfaced")
	}
}

func TestEnvelopeAddress(t *testing.T) {
	cases := []struct{ in, want string }{
		{"admin@inkwell.example", "admin@inkwell.example"},
		{"Inkwell Admin <admin@inkwell.example>", "admin@inkwell.example"},
		{"<admin@inkwell.example>", "admin@inkwell.example"},
	}
	for _, tc := range cases {
		if got := envelopeAddress(tc.in); got != tc.want {
			t.Errorf("envelopeAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
