package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Pusher delivers a notification to a set of device tokens and reports the
// tokens that were rejected so callers can prune them
type Pusher interface {
	SendToDevices(ctx context.Context, tokens []string, n Notification) ([]string, error)
}

// Notification is the push payload
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
	Link  string // opened when the notification is clicked
}

// Client wraps Firebase Cloud Messaging
type Client struct {
	messaging *messaging.Client
}

// NewClient creates a new FCM client from a service account file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info().Msg("[FCM] Client initialized")
	return &Client{messaging: mc}, nil
}

func (c *Client) SendToDevices(ctx context.Context, tokens []string, n Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	webpush := &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: n.Title,
			Body:  n.Body,
			Icon:  "/icon-192.svg",
		},
	}
	if n.Link != "" {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: n.Link}
	}

	resp, err := c.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: n.Title, Body: n.Body},
		Data:         n.Data,
		Webpush:      webpush,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Debug().Int("success", resp.SuccessCount).Int("failure", resp.FailureCount).Msg("[FCM] Multicast sent")

	var failed []string
	for i, r := range resp.Responses {
		if !r.Success {
			failed = append(failed, tokens[i])
		}
	}
	return failed, nil
}
