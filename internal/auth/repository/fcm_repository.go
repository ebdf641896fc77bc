package repository

import (
	"time"

	authdomain "office-agent/internal/auth/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FCMTokenRepository defines the interface for FCM token operations
type FCMTokenRepository interface {
	SaveToken(userID, token, deviceInfo string) error
	GetTokensByUserID(userID string) ([]authdomain.FCMToken, error)
	// DeleteToken removes one of the user's tokens and reports whether it existed
	DeleteToken(userID, token string) (bool, error)
	// PruneTokensSystem drops tokens FCM rejected, whoever owns them
	PruneTokensSystem(tokens []string) error
}

type fcmTokenRepository struct {
	db *gorm.DB
}

// NewFCMTokenRepository creates a new instance of fcmTokenRepository
func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &fcmTokenRepository{
		db: db,
	}
}

// SaveToken saves or updates an FCM token for a user (atomic upsert).
// A token re-registered from another account moves to that account.
func (r *fcmTokenRepository) SaveToken(userID, token, deviceInfo string) error {
	now := time.Now()
	fcmToken := &authdomain.FCMToken{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_info", "updated_at"}),
	}).Create(fcmToken).Error
}

func (r *fcmTokenRepository) GetTokensByUserID(userID string) ([]authdomain.FCMToken, error) {
	var tokens []authdomain.FCMToken
	if err := r.db.Scopes(database.OwnedBy(userID)).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *fcmTokenRepository) DeleteToken(userID, token string) (bool, error) {
	result := r.db.Scopes(database.OwnedBy(userID)).Where("token = ?", token).Delete(&authdomain.FCMToken{})
	return result.RowsAffected > 0, result.Error
}

func (r *fcmTokenRepository) PruneTokensSystem(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Where("token IN ?", tokens).Delete(&authdomain.FCMToken{}).Error
}
