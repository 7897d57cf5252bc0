package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/linemk/agriconnect/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := mailer.NewMailerWithDialer(logger, d, "AgriConnect <no-reply@agri.test>")

	err := m.Send(context.Background(), mailer.Message{To: "bob@buy.test", Subject: "Reset", Text: "token"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"bob@buy.test"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Reset"}, d.sent[0].GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "token")
}

func TestSMTPMailer_DialError(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := mailer.NewMailerWithDialer(logger, d, "no-reply@agri.test")

	err := m.Send(context.Background(), mailer.Message{To: "bob@buy.test", Subject: "Reset", Text: "token"})
	assert.Error(t, err)
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := mailer.NewMailerWithDialer(logger, d, "no-reply@agri.test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Send(ctx, mailer.Message{To: "bob@buy.test"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.sent)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := mailer.NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, m.Send(context.Background(), mailer.Message{
		To:      "bob@buy.test",
		Subject: "Reset",
		Text:    "Follow the link:\nhttps://agri.test/reset-password?token=eyJhbGciOi.secret.sig&x=1\n",
	}))
	out := buf.String()
	assert.Contains(t, out, "bob@buy.test")
	assert.Contains(t, out, "token=[REDACTED]")
	assert.NotContains(t, out, "eyJhbGciOi")
}
