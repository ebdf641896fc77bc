package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrTokenNotFound = errors.New("device token not found")
)

// FCMToken is a Firebase Cloud Messaging device token used for push notifications
type FCMToken struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index;not null"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"`
	DeviceInfo string    `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (FCMToken) TableName() string { return "fcm_tokens" }
