package auth

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smtpSession struct {
	from, to, data string
}

// startFakeSMTP accepts a single session and reports what it received.
func startFakeSMTP(t *testing.T) (int, <-chan smtpSession) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	sessions := make(chan smtpSession, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")

		var s smtpSession
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)

			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM:"):
				s.from = line[len("MAIL FROM:"):]
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(cmd, "RCPT TO:"):
				s.to = line[len("RCPT TO:"):]
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				s.data = strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 OK")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 Bye")
				sessions <- s
				return
			default:
				_ = tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, sessions
}

func TestSMTPMailer_Notify(t *testing.T) {
	port, sessions := startFakeSMTP(t)
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: port, From: "no-reply@floodguard.local"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Notify(ctx, "a@x.com", "FloodGuard Password Reset", "Your temporary password is: abc123")
	require.NoError(t, err)

	select {
	case s := <-sessions:
		assert.Equal(t, "<no-reply@floodguard.local>", s.from)
		assert.Equal(t, "<a@x.com>", s.to)
		assert.Contains(t, s.data, "Subject: FloodGuard Password Reset")
		assert.Contains(t, s.data, "To: a@x.com")
		assert.Contains(t, s.data, "Your temporary password is: abc123")
	case <-time.After(5 * time.Second):
		t.Fatal("no SMTP session recorded")
	}
}

func TestSMTPMailer_Notify_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: port, From: "no-reply@floodguard.local"})
	err = m.Notify(context.Background(), "a@x.com", "s", "b")

	assert.Error(t, err)
}

func TestSMTPMailer_Notify_CancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 25, From: "no-reply@floodguard.local"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Notify(ctx, "a@x.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPMailer_BuildMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{From: "no-reply@floodguard.local"})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	msg := string(m.buildMessage("a@x.com", "Subject", "Body"))

	want := "From: no-reply@floodguard.local\r\n" +
		"To: a@x.com\r\n" +
		"Subject: Subject\r\n" +
		"Date: Wed, 01 May 2024 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Body\r\n"
	assert.Equal(t, want, msg)
}
