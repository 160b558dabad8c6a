package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

// QuizWriter upserts quiz definitions into the catalog table.
type QuizWriter struct {
	db bun.IDB
}

func NewQuizWriter(db bun.IDB) *QuizWriter {
	return &QuizWriter{db: db}
}

// SaveQuiz validates and stores quiz, replacing an existing definition with the same id.
func (w *QuizWriter) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = w.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		quiz.ID, string(data))
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	return nil
}
