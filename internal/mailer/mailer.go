// Package mailer delivers the finished digest over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"time"

	appLog "calmail/internal/log"
)

const dialTimeout = 30 * time.Second

// Message is a fully-prepared HTML email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	FromAddress string
	FromName    string
}

// Sender is the delivery contract. The digest pipeline treats delivery as an
// opaque sink; implementations decide transport details.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through a single SMTP server, either via STARTTLS
// (typically port 587) or implicit TLS (typically port 465).
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	// UseTLS selects STARTTLS over implicit TLS.
	UseTLS bool
}

// Send delivers msg. Failures are returned as-is; there is no retry here —
// a failed batch run simply reports the error.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mailer: no recipients")
	}
	if msg.FromAddress == "" {
		msg.FromAddress = s.Username
	}

	client, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("mailer: connect %s:%d: %w", s.Host, s.Port, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("mailer: auth: %w", err)
	}

	if err := client.Mail(msg.FromAddress); err != nil {
		return fmt.Errorf("mailer: MAIL FROM: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mailer: RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: DATA: %w", err)
	}
	if _, err := w.Write(buildMessage(msg, s.Host)); err != nil {
		w.Close()
		return fmt.Errorf("mailer: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mailer: close body: %w", err)
	}

	if err := client.Quit(); err != nil {
		// Delivery already succeeded; a noisy QUIT is not worth failing on.
		appLog.Error("smtp quit failed", err, "host", s.Host)
	}

	appLog.Info("email sent", "recipients", len(msg.To), "host", s.Host)
	return nil
}

func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	dialer := &net.Dialer{Timeout: dialTimeout}

	if s.UseTLS {
		// Plain connection upgraded via STARTTLS.
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		client, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			conn.Close()
			return nil, err
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	}

	// Implicit TLS from the first byte.
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}
