package app_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

var errStoreDown = errors.New("store unavailable")

// testStore is a plain KVStore (no PutIfAbsent) with hooks for failures and slow writes.
type testStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	failPuts int
	failGets bool
	puts     int
	entered  chan struct{}
	gate     chan struct{}
}

func newTestStore() *testStore {
	return &testStore{data: make(map[string][]byte)}
}

func (s *testStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGets {
		return nil, errStoreDown
	}
	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return value, nil
}

func (s *testStore) Put(ctx context.Context, key string, value []byte) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPuts > 0 {
		s.failPuts--
		return errStoreDown
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *testStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

type recordedSubmission struct {
	trigger string
	err     error
}

type fakeRecorder struct {
	mu          sync.Mutex
	started     int
	submissions []recordedSubmission
	active      int
}

func (r *fakeRecorder) AttemptStarted(string) {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *fakeRecorder) SubmissionFinished(trigger string, err error, _ time.Duration) {
	r.mu.Lock()
	r.submissions = append(r.submissions, recordedSubmission{trigger: trigger, err: err})
	r.mu.Unlock()
}

func (r *fakeRecorder) ActiveAttempts(n int) {
	r.mu.Lock()
	r.active = n
	r.mu.Unlock()
}

func (r *fakeRecorder) snapshot() (int, []recordedSubmission, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, append([]recordedSubmission(nil), r.submissions...), r.active
}

var fixedNow = time.Date(2024, 11, 22, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// threeQuestionQuiz has option 1 correct for every question.
func threeQuestionQuiz(seconds int) domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Blockchain Fundamentals",
		Difficulty:       domain.DifficultyEasy,
		TimeLimitSeconds: seconds,
		Questions: []domain.Question{
			{ID: "q1", Text: "What links blocks?", Options: []string{"Timestamps", "Hashes", "Signatures", "Heights"}, CorrectOptionIndex: 1},
			{ID: "q2", Text: "Bitcoin consensus?", Options: []string{"PoS", "PoW", "Voting", "Round robin"}, CorrectOptionIndex: 1},
			{ID: "q3", Text: "Smart contract?", Options: []string{"Paper", "Code", "Wallet", "Order"}, CorrectOptionIndex: 1},
		},
	}
}

func startedAttempt(t *testing.T, quiz domain.Quiz, store app.KVStore) (*app.Attempt, *app.ResultGateway) {
	t.Helper()
	gateway := app.NewResultGateway(store)
	attempt := app.NewAttemptWithClock(quiz, "u1", gateway, clock)
	if _, err := attempt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return attempt, gateway
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type serviceFixture struct {
	service  *app.AttemptService
	sessions *memory.AttemptStore
	gateway  *app.ResultGateway
	recorder *fakeRecorder
}

func newServiceFixture(quizzes ...domain.Quiz) serviceFixture {
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, quiz := range quizzes {
		byID[quiz.ID] = quiz
	}
	sessions := memory.NewAttemptStore()
	gateway := app.NewResultGateway(memory.NewKVStore())
	recorder := &fakeRecorder{}
	service := app.NewAttemptService(
		sessions,
		memory.NewQuizRepository(memory.NewStaticQuizLoader(byID), time.Minute),
		gateway,
		app.WithLogger(quietLogger()),
		app.WithRecorder(recorder),
		app.WithClock(clock),
	)
	return serviceFixture{service: service, sessions: sessions, gateway: gateway, recorder: recorder}
}
