package service

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func floatPointer(v float64) *float64 {
	return &v
}

func stringPointer(v string) *string {
	return &v
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Team{},
		&models.Project{},
		&models.Challenge{},
		&models.ChallengePrize{},
		&models.Judging{},
		&models.JudgingChallenge{},
		&models.JudgingEntry{},
		&models.BotScore{},
		&models.ChallengeWinner{},
		&models.ActivityLog{},
	))

	return db
}
