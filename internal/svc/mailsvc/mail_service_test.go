package mailsvc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestNewMailService(t *testing.T) {
	t.Parallel()

	svc, err := NewMailService(MailConfig{Transport: TransportLog, Sender: "noreply@x.com"})
	require.NoError(t, err)
	assert.IsType(t, &LogMailService{}, svc)

	svc, err = NewMailService(MailConfig{Transport: TransportSMTP, Sender: "noreply@x.com", SMTP: SMTPConfig{Host: "localhost", Port: 25}})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailService{}, svc)

	_, err = NewMailService(MailConfig{Transport: "pigeon"})
	require.ErrorIs(t, err, ErrUnknownTransport)
}

func TestCompose(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	m, err := compose("Quill <noreply@x.com>", Message{
		To:      "alice@x.com",
		Subject: "Password Reset Request",
		Body:    "line one\nline two",
	}, now)
	require.NoError(t, err)

	from, err := m.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "noreply@x.com", from)

	to, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com"}, to)

	assert.Equal(t, []string{"Password Reset Request"}, m.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Date: Wed, 01 May 2024 12:00:00 +0000\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, raw, "line one")
	assert.Contains(t, raw, "line two")

	_, err = compose("noreply@x.com", Message{To: "not an address"}, now)
	require.Error(t, err)

	_, err = compose("not a sender", Message{To: "alice@x.com"}, now)
	require.Error(t, err)
}

func TestNewSMTPMailService_NoHost(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPMailService(MailConfig{Sender: "noreply@x.com", SMTP: SMTPConfig{Port: 25}})
	require.Error(t, err)

	_, err = NewMailService(MailConfig{Transport: TransportSMTP, Sender: "noreply@x.com"})
	require.Error(t, err)
}

func TestSMTPMailService_Send(t *testing.T) {
	t.Parallel()

	var sent []*mail.Msg

	svc, err := NewSMTPMailService(MailConfig{
		Transport: TransportSMTP,
		Sender:    "Quill <noreply@x.com>",
		SMTP:      SMTPConfig{Host: "mail.x.com", Port: 2525, Username: "quill", Password: "secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.x.com:2525", svc.client.ServerAddr())

	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	svc.send = func(_ context.Context, msgs ...*mail.Msg) error {
		sent = append(sent, msgs...)

		return nil
	}

	err = svc.Send(context.Background(), Message{To: "alice@x.com", Subject: "Hi", Body: "Hello"})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	from, err := sent[0].GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "noreply@x.com", from)

	to, err := sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com"}, to)

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimRight(buf.String(), "\r\n"), "Hello"), buf.String())

	err = svc.Send(context.Background(), Message{To: "", Subject: "Hi"})
	require.Error(t, err)
	assert.Len(t, sent, 1, "invalid mails are not handed to the relay")
}

func TestSMTPMailService_SendError(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")

	svc, err := NewSMTPMailService(MailConfig{Sender: "noreply@x.com", SMTP: SMTPConfig{Host: "localhost", Port: 25}})
	require.NoError(t, err)

	svc.send = func(context.Context, ...*mail.Msg) error { return refused }

	err = svc.Send(context.Background(), Message{To: "alice@x.com", Subject: "Hi", Body: "Hello"})
	require.ErrorIs(t, err, refused)
}

func TestLogMailService_Send(t *testing.T) {
	t.Parallel()

	svc := NewLogMailService(MailConfig{Sender: "noreply@x.com"})

	require.NoError(t, svc.Send(context.Background(), Message{To: "alice@x.com", Subject: "Hi", Body: "Hello"}))
	require.Error(t, svc.Send(context.Background(), Message{To: "", Subject: "Hi"}))
}
