package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/sqlite"
	"quiz-attempt-service/internal/logger"
)

const catalog = `[
  {
    "id": "quiz-1",
    "title": "Blockchain Fundamentals",
    "difficulty": "Easy",
    "timeLimitSeconds": 900,
    "questions": [
      {"id": "q1", "text": "Links blocks?", "options": ["Time", "Hash"], "correctOptionIndex": 1},
      {"id": "q2", "text": "Bitcoin consensus?", "options": ["PoS", "PoW"], "correctOptionIndex": 1}
    ]
  }
]`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuildStackMemoryWithCatalog(t *testing.T) {
	dir := t.TempDir()
	var cfg config.Config
	cfg.Quiz.Catalog = writeFile(t, dir, "quizzes.json", catalog)

	st, err := buildStack(context.Background(), cfg, logger.NewLogger("test", logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("build stack: %v", err)
	}
	defer st.Close()

	quiz, err := st.quizzes.GetQuiz(context.Background(), "quiz-1")
	if err != nil || len(quiz.Questions) != 2 {
		t.Fatalf("expected catalog quiz, got %+v (%v)", quiz, err)
	}
	if _, err := st.results.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound from memory store, got %v", err)
	}
}

func TestBuildStackRequiresQuizSource(t *testing.T) {
	var cfg config.Config
	if _, err := buildStack(context.Background(), cfg, logger.NewLogger("test", logger.Options{Output: io.Discard})); err == nil {
		t.Fatalf("expected error without quiz source")
	}
}

func TestBuildStackRejectsDriverWithoutBackend(t *testing.T) {
	dir := t.TempDir()
	var cfg config.Config
	cfg.Quiz.Catalog = writeFile(t, dir, "quizzes.json", catalog)
	cfg.Storage.Driver = config.DriverPostgres
	if _, err := buildStack(context.Background(), cfg, logger.NewLogger("test", logger.Options{Output: io.Discard})); err == nil {
		t.Fatalf("expected error for postgres driver without url")
	}
}

func TestResultCommandPrintsReviewFromSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.db")
	quizzes := writeFile(t, dir, "quizzes.json", catalog)
	cfgPath := writeFile(t, dir, "config.yaml", "storage:\n  driver: sqlite\nsqlite:\n  path: "+dbPath+"\nquiz:\n  catalog: "+quizzes+"\n")

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_, err = app.NewResultGateway(store).Submit(context.Background(), domain.Result{
		QuizID:      "quiz-1",
		UserID:      "u1",
		Score:       50,
		Answers:     map[int]int{0: 1, 1: 0},
		CompletedAt: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	if err := runResult(context.Background(), cfgPath, "quiz-1", "u1", &out); err != nil {
		t.Fatalf("result command: %v", err)
	}
	var review domain.ReviewSummary
	if err := json.Unmarshal(out.Bytes(), &review); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out.String())
	}
	if review.DisplayScore != "50.0" || review.CorrectCount != 1 || review.Title != "Blockchain Fundamentals" {
		t.Fatalf("unexpected review %+v", review)
	}

	err = runResult(context.Background(), cfgPath, "quiz-1", "nobody", &out)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestReadQuizzes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "quizzes.json", catalog)
	quizzes, err := readQuizzes(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-1" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
	if _, err := readQuizzes(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
