package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestList_FiltersByCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "subject", "body", "category", "variables"}).
		AddRow("t1", "u1", "Follow up", "Hi {{name}}", "Body", "sales", `["name"]`)
	mock.ExpectQuery(`SELECT \* FROM "email_templates" WHERE user_id = \$1 AND category = \$2 ORDER BY updated_at DESC`).
		WithArgs("u1", "sales").
		WillReturnRows(rows)

	templates, err := repo.List("u1", "sales")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, []string{"name"}, templates[0].Variables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "email_templates" WHERE user_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tmpl, err := repo.FindByID("u1", "missing")
	require.NoError(t, err)
	assert.Nil(t, tmpl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementUsage_IsAtomicUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "email_templates" SET .*"usage_count"=usage_count \+ 1.* WHERE user_id = \$\d+ AND id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.IncrementUsage("u1", "t1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentFindByID_ScopedToOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttachmentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "email_attachments" WHERE user_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	a, err := repo.FindByID("u2", "a1")
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}
