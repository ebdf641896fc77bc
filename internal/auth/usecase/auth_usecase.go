package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	authdomain "office-agent/internal/auth/domain"
	"office-agent/internal/auth/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// AuthUsecase verifies bearer tokens issued by the identity provider and
// manages the caller's push devices. Login itself happens elsewhere.
type AuthUsecase interface {
	// ValidateToken returns the user id carried by a HS256 token
	ValidateToken(tokenString string) (string, error)

	// IssueToken signs a token for userID, used by the CLI for local testing
	IssueToken(userID string, ttl time.Duration) (string, error)

	RegisterDevice(userID, token, deviceInfo string) error
	UnregisterDevice(userID, token string) error
}

type authUsecase struct {
	fcmRepo repository.FCMTokenRepository
	secret  []byte
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(fcmRepo repository.FCMTokenRepository, jwtSecret string) AuthUsecase {
	return &authUsecase{
		fcmRepo: fcmRepo,
		secret:  []byte(jwtSecret),
	}
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", authdomain.ErrInvalidToken
	}

	// Providers put the id in "sub"; older tokens used "user_id"
	for _, key := range []string{"sub", "user_id"} {
		if id, ok := claims[key].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", authdomain.ErrInvalidToken
}

func (u *authUsecase) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) RegisterDevice(userID, token, deviceInfo string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	if err := u.fcmRepo.SaveToken(userID, token, deviceInfo); err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	log.Info().Str("user_id", userID).Msg("[Auth] Device registered for push")
	return nil
}

func (u *authUsecase) UnregisterDevice(userID, token string) error {
	found, err := u.fcmRepo.DeleteToken(userID, token)
	if err != nil {
		return err
	}
	if !found {
		return authdomain.ErrTokenNotFound
	}
	return nil
}
