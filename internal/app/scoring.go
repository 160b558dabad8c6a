package app

import "quiz-attempt-service/internal/domain"

// Score grades answers against the quiz: a question counts as correct only when an answer is
// recorded for its index and matches the correct option. The percentage is unrounded and is 0
// for a quiz without questions.
func Score(quiz domain.Quiz, answers map[int]int) (float64, int) {
	correct := 0
	for i, question := range quiz.Questions {
		if selected, ok := answers[i]; ok && selected == question.CorrectOptionIndex {
			correct++
		}
	}
	if len(quiz.Questions) == 0 {
		return 0, 0
	}
	return 100 * float64(correct) / float64(len(quiz.Questions)), correct
}
