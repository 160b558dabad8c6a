package app

import (
	"github.com/shopspring/decimal"

	"quiz-attempt-service/internal/domain"
)

// Project lines up the stored answers with the answer key, one entry per question in quiz order.
func Project(quiz domain.Quiz, result domain.Result) []domain.ReviewEntry {
	entries := make([]domain.ReviewEntry, 0, len(quiz.Questions))
	for i, question := range quiz.Questions {
		entry := domain.ReviewEntry{
			QuestionIndex:      i,
			QuestionText:       question.Text,
			Options:            append([]string(nil), question.Options...),
			CorrectOptionIndex: question.CorrectOptionIndex,
		}
		if selected, ok := result.Answers[i]; ok {
			selected := selected
			entry.UserOptionIndex = &selected
			entry.IsCorrect = selected == question.CorrectOptionIndex
		}
		entries = append(entries, entry)
	}
	return entries
}

// Summarize builds the review page model for a stored result.
func Summarize(quiz domain.Quiz, result domain.Result) domain.ReviewSummary {
	entries := Project(quiz, result)
	correct := 0
	for _, entry := range entries {
		if entry.IsCorrect {
			correct++
		}
	}
	return domain.ReviewSummary{
		QuizID:        result.QuizID,
		UserID:        result.UserID,
		Title:         quiz.Title,
		Difficulty:    quiz.Difficulty,
		Score:         result.Score,
		DisplayScore:  DisplayScore(result.Score),
		CorrectCount:  correct,
		QuestionCount: len(quiz.Questions),
		Performance:   Performance(result.Score),
		CompletedAt:   result.CompletedAt,
		Entries:       entries,
	}
}

// DisplayScore renders a percentage with one decimal place.
func DisplayScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(1)
}

// Performance maps a percentage onto the feedback tier shown next to the score.
func Performance(score float64) string {
	switch {
	case score >= 90:
		return "Outstanding"
	case score >= 80:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Not bad"
	default:
		return "Keep practicing"
	}
}
