package notification

import (
	"context"

	authdomain "office-agent/internal/auth/domain"
	"office-agent/pkg/fcm"

	"github.com/rs/zerolog/log"
)

// TokenStore is the part of the FCM token repository the service needs
type TokenStore interface {
	GetTokensByUserID(userID string) ([]authdomain.FCMToken, error)
	PruneTokensSystem(tokens []string) error
}

// Service pushes notifications to every registered device of a user
type Service struct {
	tokens TokenStore
	pusher fcm.Pusher
}

// NewService creates a new Service. A nil pusher disables push; every call
// becomes a no-op.
func NewService(tokens TokenStore, pusher fcm.Pusher) *Service {
	return &Service{tokens: tokens, pusher: pusher}
}

// Enabled reports whether push delivery is configured
func (s *Service) Enabled() bool {
	return s != nil && s.pusher != nil && s.tokens != nil
}

// NotifyUser is best effort: failures are logged, never returned. Tokens FCM
// rejects are pruned.
func (s *Service) NotifyUser(ctx context.Context, userID string, n fcm.Notification) {
	if !s.Enabled() {
		return
	}

	tokens, err := s.tokens.GetTokensByUserID(userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("[FCM] Error getting device tokens")
		return
	}
	if len(tokens) == 0 {
		log.Debug().Str("user_id", userID).Msg("[FCM] No devices registered, skipping push")
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.pusher.SendToDevices(ctx, tokenStrings, n)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("[FCM] Error sending push notification")
		return
	}
	log.Info().Str("user_id", userID).Int("devices", len(tokenStrings)-len(failed)).Msg("[FCM] Push notification sent")

	if len(failed) > 0 {
		if err := s.tokens.PruneTokensSystem(failed); err != nil {
			log.Warn().Err(err).Int("count", len(failed)).Msg("[FCM] Failed to prune rejected tokens")
		}
	}
}
