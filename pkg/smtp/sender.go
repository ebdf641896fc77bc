// Package smtp sends mail through a user's own SMTP server.
package smtp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Credentials is a decrypted SMTP login. Build it right before the call and
// let it go out of scope afterwards.
type Credentials struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
}

// Message is one outgoing email
type Message struct {
	From     string
	FromName string
	To       []string
	Cc       []string
	Subject  string
	Text     string
	HTML     string
	// Attachments are read from local disk at send time
	Attachments []Attachment
}

// Attachment is a file on local disk sent under Name
type Attachment struct {
	Name string
	Path string
}

// Sender is the mail transport used by the mail, inbox and agent packages
type Sender interface {
	Send(ctx context.Context, creds Credentials, msg Message) (string, error)
	Verify(ctx context.Context, creds Credentials) error
}

type goMailSender struct {
	timeout time.Duration
}

// NewSender creates a go-mail backed Sender
func NewSender(timeout time.Duration) Sender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &goMailSender{timeout: timeout}
}

func (s *goMailSender) client(creds Credentials) (*mail.Client, error) {
	var opts []mail.Option
	if creds.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	// port last so the TLS policy cannot rewrite it
	opts = append(opts,
		mail.WithPort(creds.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Username),
		mail.WithPassword(creds.Password),
		mail.WithTimeout(s.timeout),
	)

	client, err := mail.NewClient(creds.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

// Send delivers msg and returns the Message-ID it was sent with
func (s *goMailSender) Send(ctx context.Context, creds Credentials, msg Message) (string, error) {
	m := mail.NewMsg()
	from := msg.From
	if from == "" {
		from = creds.Username
	}
	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, from); err != nil {
			return "", fmt.Errorf("invalid sender: %w", err)
		}
	} else if err := m.From(from); err != nil {
		return "", fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return "", fmt.Errorf("invalid recipient: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return "", fmt.Errorf("invalid cc: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		m.AttachFile(a.Path, mail.WithFileName(a.Name))
	}

	client, err := s.client(creds)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	var messageID string
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}

// Verify logs in to the SMTP server without sending anything
func (s *goMailSender) Verify(ctx context.Context, creds Credentials) error {
	client, err := s.client(creds)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("SMTP connection failed: %w", err)
	}
	return client.Close()
}

// TextToHTML is the naive conversion used for AI-written and agent-sent bodies
func TextToHTML(text string) string {
	return "<p>" + strings.ReplaceAll(text, "\n", "<br>") + "</p>"
}

// SplitAddresses turns "a@x.com, b@y.com" into a slice, dropping empties
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
