package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func SeedItem(tb testing.TB, ctx context.Context, tx *gorm.DB, subject string, difficulty int, premium bool) learning.Item {
	tb.Helper()
	it := learning.Item{
		ID:               uuid.New(),
		SubjectID:        subject,
		Kind:             learning.ItemQuestion,
		Difficulty:       difficulty,
		EstimatedSeconds: 60,
		Premium:          premium,
		AnswerKey:        learning.AnswerKey{CorrectOption: "A"},
	}
	row := learning.ItemToRecord(it)
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	return it
}
