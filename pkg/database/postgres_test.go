package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOwnedBy(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	type row struct {
		ID string
	}

	stmt := db.Session(&gorm.Session{DryRun: true}).
		Table("pdf_files").
		Scopes(OwnedBy("user-1")).
		Find(&[]row{}).Statement

	assert.Equal(t, `SELECT * FROM "pdf_files" WHERE user_id = $1`, stmt.SQL.String())
	assert.Equal(t, []interface{}{"user-1"}, stmt.Vars)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, parseLogLevel("silent"))
	assert.Equal(t, logger.Error, parseLogLevel("ERROR"))
	assert.Equal(t, logger.Info, parseLogLevel("info"))
	assert.Equal(t, logger.Warn, parseLogLevel(""))
}
