// Package imap fetches recent inbox messages over IMAP.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog/log"
)

// Credentials is a decrypted IMAP login, built right before FetchRecent
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
}

// Fetcher is the mailbox session used by the triage pipeline
type Fetcher interface {
	FetchRecent(ctx context.Context, creds Credentials, limit int) ([]*Message, error)
}

type Service struct {
	timeout time.Duration
}

func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Service{timeout: timeout}
}

func (s *Service) dial(ctx context.Context, creds Credentials) (*client.Client, error) {
	addr := net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
	dialer := &net.Dialer{Timeout: s.timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	if creds.UseSSL {
		return client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: creds.Host})
	}
	return client.DialWithDialer(dialer, addr)
}

// FetchRecent returns the newest limit messages of INBOX, regardless of
// read state. The mailbox is opened read-only so scanning never sets \Seen.
func (s *Service) FetchRecent(ctx context.Context, creds Credentials, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.dial(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	c.Timeout = s.timeout
	defer c.Logout()

	// Abort the session if the caller gives up
	stop := context.AfterFunc(ctx, func() { _ = c.Terminate() })
	defer stop()

	if err := c.Login(creds.Username, creds.Password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to open INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	from := uint32(1)
	if mbox.Messages > uint32(limit) {
		from = mbox.Messages - uint32(limit) + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var out []*Message
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		parsed, err := ParseMessage(body)
		if err != nil {
			log.Warn().Err(err).Uint32("uid", msg.Uid).Msg("[IMAP] Skipping unparseable message")
			continue
		}
		if parsed.MessageID == "" {
			// stable fallback so re-scans still deduplicate
			parsed.MessageID = fmt.Sprintf("uid-%d-%d@%s", mbox.UidValidity, msg.Uid, creds.Host)
		}
		out = append(out, parsed)
	}

	if err := <-done; err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("IMAP session aborted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("IMAP fetch failed: %w", err)
	}

	log.Debug().Int("count", len(out)).Str("host", creds.Host).Msg("[IMAP] Fetched recent messages")
	return out, nil
}
