package repository

import (
	"fmt"
	"testing"

	"kinship/internal/database"
	"kinship/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// createUser inserts a user with profile ID "p-<id>".
func createUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       id,
		Username: "user_" + id,
		Email:    fmt.Sprintf("%s@example.com", id),
		Password: "hash",
		Profile:  &models.Profile{ID: "p-" + id, AvatarURL: "/avatars/" + id + ".png"},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), logger.Silent)
	require.NoError(t, err)
	db.SkipDefaultTransaction = true
	return db, mock
}
