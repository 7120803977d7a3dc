package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	from       string
	recipients []string
	msg        []byte
	err        error
}

func (c *captureSender) Send(reversePath string, recipients []string, msg []byte) error {
	c.from = reversePath
	c.recipients = recipients
	c.msg = msg
	return c.err
}

func TestSendBuildsPlainTextMessage(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender(sender, "", "noreply@news.example")

	err := m.Send(context.Background(), "reader@example.com", "Password reset", "Reset here: https://x/reset-password/abc")
	require.NoError(t, err)

	assert.Equal(t, "noreply@news.example", sender.from)
	assert.Equal(t, []string{"reader@example.com"}, sender.recipients)

	env, err := enmime.ReadEnvelope(bytes.NewReader(sender.msg))
	require.NoError(t, err)
	assert.Equal(t, "Password reset", env.GetHeader("Subject"))
	assert.Contains(t, env.GetHeader("From"), "News Summarizer")
	assert.Contains(t, env.Text, "https://x/reset-password/abc")
}

func TestSendPropagatesTransportErrors(t *testing.T) {
	sender := &captureSender{err: errors.New("connection refused")}
	m := NewWithSender(sender, "Brief", "noreply@news.example")

	err := m.Send(context.Background(), "reader@example.com", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	m, err := New(Config{Host: "smtp.example.com", FromEmail: "a@b.c"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	var nilMailer *SMTP
	assert.ErrorIs(t, nilMailer.Send(context.Background(), "x@y.z", "s", "b"), ErrNotConfigured)
}

type blockingSender struct {
	release chan struct{}
}

func (b *blockingSender) Send(string, []string, []byte) error {
	<-b.release
	return nil
}

func TestSendStopsWaitingWhenContextEnds(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	defer close(sender.release)
	m := NewWithSender(sender, "Brief", "noreply@news.example")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Send(ctx, "reader@example.com", "s", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTimeoutSenderGivesUpOnSilentRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		// Accept and never send the SMTP greeting.
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	sender := &timeoutSender{addr: ln.Addr().String(), timeout: 100 * time.Millisecond}
	start := time.Now()
	err = sender.Send("noreply@news.example", []string{"reader@example.com"}, []byte("hi"))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
