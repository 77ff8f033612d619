package testkit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/seedkit/pkg/testkit"
)

type user struct {
	Name  string
	Email string `gorm:"primaryKey"`
}

func applyUsers(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user{Name: "Example", Email: "example@example.com"}).Error
}

func TestApplyTwiceKeepsOneRow(t *testing.T) {
	db := testkit.OpenDB(t)
	testkit.Exec(t, db, "CREATE TABLE users (name TEXT, email TEXT PRIMARY KEY)")
	testkit.ApplyTwice(t, db, applyUsers)
	assert.Equal(t, int64(1), testkit.Count(t, db, "users"))
}

func TestMockMigrator(t *testing.T) {
	ok := testkit.NewMockMigrator()
	assert.NoError(t, ok.Migrate(context.Background()))
	ok.AssertNumberOfCalls(t, "Migrate", 1)

	boom := errors.New("exit status 1")
	assert.ErrorIs(t, testkit.Failing(boom).Migrate(context.Background()), boom)
}
