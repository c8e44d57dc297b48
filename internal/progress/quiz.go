package progress

import (
	"math"
	"slices"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// PassingScore is fixed for every quiz; quizzes carry no per-quiz threshold.
const PassingScore = 70

type QuizResult struct {
	Score     int
	Passed    bool
	Breakdown []models.QuestionResult
}

// ScoreQuiz grades answers against the quiz in question order. answers[i] is
// matched to question i as an unordered set; a missing answer is incorrect.
func ScoreQuiz(quiz *models.Quiz, answers []models.AnswerSet) QuizResult {
	total := len(quiz.Questions)
	breakdown := make([]models.QuestionResult, 0, total)
	correctCount := 0

	for i, q := range quiz.Questions {
		var selected []string
		if i < len(answers) {
			selected = answers[i]
		}
		correct := sameSet(selected, q.CorrectAnswers)
		if correct {
			correctCount++
		}
		breakdown = append(breakdown, models.QuestionResult{
			QuestionIndex: i,
			Selected:      append([]string{}, selected...),
			Correct:       correct,
		})
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(correctCount) / float64(total) * 100))
	}

	return QuizResult{
		Score:     score,
		Passed:    score >= PassingScore,
		Breakdown: breakdown,
	}
}

// sameSet compares both lists after sorting, so order does not matter but
// multiplicity does.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}
