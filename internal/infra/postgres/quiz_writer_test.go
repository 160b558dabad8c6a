package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"quiz-attempt-service/internal/domain"
)

func TestQuizWriterUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	writer := NewQuizWriter(db)

	mock.ExpectExec(`INSERT INTO quizzes \(id, data\) VALUES \('quiz-1', .*ON CONFLICT \(id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	quiz := domain.Quiz{ID: "quiz-1", TimeLimitSeconds: 60, Questions: []domain.Question{
		{ID: "q1", Text: "?", Options: []string{"a", "b"}, CorrectOptionIndex: 0},
	}}
	if err := writer.SaveQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQuizWriterRejectsInvalidQuiz(t *testing.T) {
	db, mock := newMockDB(t)
	writer := NewQuizWriter(db)

	quiz := domain.Quiz{ID: "quiz-1", Questions: []domain.Question{
		{ID: "q1", Options: []string{"a", "b"}, CorrectOptionIndex: 5},
	}}
	if err := writer.SaveQuiz(context.Background(), quiz); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement expected: %v", err)
	}
}
