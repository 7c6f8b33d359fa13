package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/database/migrations"
	"github.com/mo-amir99/course-server-go/pkg/logger"
)

func TestDescribeStatement(t *testing.T) {
	cases := []struct {
		sql, op, table string
	}{
		{`SELECT * FROM "courses" WHERE id = 1`, "SELECT", "courses"},
		{`INSERT INTO "user_course_unlocks" ("user_id") VALUES (1)`, "INSERT", "user_course_unlocks"},
		{`UPDATE "users" SET credits = credits - 5`, "UPDATE", "users"},
		{``, "UNKNOWN", "unknown"},
	}

	for _, tc := range cases {
		op, table := describeStatement(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.False(t, isConnectionError(errors.New("duplicate key value")))
	assert.False(t, isConnectionError(nil))
}

func TestBackoffGrows(t *testing.T) {
	first := backoffFor(1, 100*time.Millisecond)
	third := backoffFor(3, 100*time.Millisecond)

	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 126*time.Millisecond)
	assert.GreaterOrEqual(t, third, 400*time.Millisecond)
}

type widget struct {
	ID   uint
	Name string
}

func TestMigrateRunsRegisteredOnce(t *testing.T) {
	log := logger.Discard()
	db, err := gorm.Open(sqlite.Open("file::memory:"), GormConfig(log))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	runs := 0
	migrations.Register("seed_widget_for_test", func(tx *gorm.DB) error {
		runs++
		return tx.Create(&widget{Name: "first"}).Error
	})

	require.NoError(t, Migrate(db, log, &widget{}))
	require.NoError(t, Migrate(db, log, &widget{}))

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, 1, runs)
	assert.Equal(t, int64(1), count)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}
