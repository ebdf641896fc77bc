package imap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Message is a normalized inbox message
type Message struct {
	MessageID        string
	FromAddress      string
	FromName         string
	To               string
	Subject          string
	Text             string
	HTML             string
	Date             time.Time
	AttachmentsCount int
}

func (m *Message) HasAttachments() bool { return m.AttachmentsCount > 0 }

// ParseMessage parses a raw RFC 822 message into a Message
func ParseMessage(r io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && (mr == nil || !message.IsUnknownCharset(err)) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	out := &Message{}
	h := mr.Header

	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		out.FromAddress = from[0].Address
		out.FromName = from[0].Name
	}
	if to, err := h.AddressList("To"); err == nil && len(to) > 0 {
		out.To = to[0].Address
	}
	out.Subject, _ = h.Subject()
	out.Date, _ = h.Date()
	out.MessageID, _ = h.MessageID()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := ph.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read message body: %w", err)
			}
			switch {
			case contentType == "text/html":
				if out.HTML == "" {
					out.HTML = string(body)
				}
			case contentType == "text/plain" || contentType == "":
				if out.Text == "" {
					out.Text = string(body)
				}
			default:
				// inline images and similar
				out.AttachmentsCount++
			}
		case *mail.AttachmentHeader:
			out.AttachmentsCount++
		}
	}

	if out.Text == "" && out.HTML != "" {
		out.Text = htmlToText(out.HTML)
	}
	out.Text = strings.TrimSpace(out.Text)
	if out.Subject == "" {
		out.Subject = "No Subject"
	}
	if out.Date.IsZero() {
		out.Date = time.Now()
	}
	return out, nil
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
