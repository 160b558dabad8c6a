package domain

import "time"

// Difficulty is the authoring label attached to a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID                 string   `json:"id" validate:"required"`
	Text               string   `json:"text"`
	Options            []string `json:"options" validate:"min=2"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
}

// Quiz is an immutable, timed collection of questions.
type Quiz struct {
	ID               string     `json:"id" validate:"required"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Difficulty       Difficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	TimeLimitSeconds int        `json:"timeLimitSeconds" validate:"gte=0"`
	Questions        []Question `json:"questions" validate:"dive"`
}

// AttemptStatus is the lifecycle state of an attempt session.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "NotStarted"
	StatusInProgress AttemptStatus = "InProgress"
	StatusSubmitting AttemptStatus = "Submitting"
	StatusSubmitted  AttemptStatus = "Submitted"
)

// AttemptState is a snapshot of a live attempt, safe to hand to transports.
type AttemptState struct {
	AttemptID        string        `json:"attemptId"`
	QuizID           string        `json:"quizId"`
	UserID           string        `json:"userId"`
	Status           AttemptStatus `json:"status"`
	CurrentIndex     int           `json:"currentIndex"`
	QuestionCount    int           `json:"questionCount"`
	Answers          map[int]int   `json:"answers"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Result           *Result       `json:"result,omitempty"`
}

// Result is the graded, immutable outcome of an attempt.
type Result struct {
	QuizID      string      `json:"quizId"`
	UserID      string      `json:"userId"`
	Score       float64     `json:"score"`
	Answers     map[int]int `json:"answers"`
	CompletedAt time.Time   `json:"completedAt"`
}

// ReviewEntry compares the user's answer with the correct one for a single question.
type ReviewEntry struct {
	QuestionIndex      int      `json:"questionIndex"`
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	UserOptionIndex    *int     `json:"userOptionIndex"`
	IsCorrect          bool     `json:"isCorrect"`
}

// ReviewSummary is the rendered review of a stored result.
type ReviewSummary struct {
	QuizID        string        `json:"quizId"`
	UserID        string        `json:"userId"`
	Title         string        `json:"title"`
	Difficulty    Difficulty    `json:"difficulty"`
	Score         float64       `json:"score"`
	DisplayScore  string        `json:"displayScore"`
	CorrectCount  int           `json:"correctCount"`
	QuestionCount int           `json:"questionCount"`
	Performance   string        `json:"performance"`
	CompletedAt   time.Time     `json:"completedAt"`
	Entries       []ReviewEntry `json:"entries"`
}

// QuizOverview is the public view of a quiz, without correct answers.
type QuizOverview struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Difficulty       Difficulty        `json:"difficulty"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
	Questions        []QuestionPreview `json:"questions"`
}

// QuestionPreview is a question as shown while an attempt is running.
type QuestionPreview struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Overview strips the answer key from the quiz.
func (q Quiz) Overview() QuizOverview {
	previews := make([]QuestionPreview, 0, len(q.Questions))
	for _, question := range q.Questions {
		previews = append(previews, QuestionPreview{
			ID:      question.ID,
			Text:    question.Text,
			Options: append([]string(nil), question.Options...),
		})
	}
	return QuizOverview{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Difficulty:       q.Difficulty,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Questions:        previews,
	}
}

// QuizListing is one row of a user's dashboard.
type QuizListing struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	QuestionCount    int        `json:"questionCount"`
	Completed        bool       `json:"completed"`
	Score            *float64   `json:"score,omitempty"`
}

// Dashboard lists every available quiz with the user's completion status.
type Dashboard struct {
	UserID         string        `json:"userId"`
	Quizzes        []QuizListing `json:"quizzes"`
	CompletedCount int           `json:"completedCount"`
	TotalCount     int           `json:"totalCount"`
}

// Listing is the dashboard row for the quiz, before any user result is applied.
func (q Quiz) Listing() QuizListing {
	return QuizListing{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Difficulty:       q.Difficulty,
		TimeLimitSeconds: q.TimeLimitSeconds,
		QuestionCount:    len(q.Questions),
	}
}
