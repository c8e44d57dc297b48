package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

func fourQuestionQuiz() *models.Quiz {
	return &models.Quiz{
		ID: "quiz-1",
		Questions: []models.Question{
			{Prompt: "q1", CorrectAnswers: []string{"a"}},
			{Prompt: "q2", CorrectAnswers: []string{"a", "b"}},
			{Prompt: "q3", CorrectAnswers: []string{"c"}},
			{Prompt: "q4", CorrectAnswers: []string{"d"}},
		},
	}
}

func TestScoreQuiz_ThreeOfFourPasses(t *testing.T) {
	res := ScoreQuiz(fourQuestionQuiz(), []models.AnswerSet{
		{"a"}, {"a", "b"}, {"c"}, {"x"},
	})

	assert.Equal(t, 75, res.Score)
	assert.True(t, res.Passed)
	require.Len(t, res.Breakdown, 4)
	assert.True(t, res.Breakdown[0].Correct)
	assert.False(t, res.Breakdown[3].Correct)
	assert.Equal(t, 3, res.Breakdown[3].QuestionIndex)
}

func TestScoreQuiz_OrderIndependent(t *testing.T) {
	quiz := &models.Quiz{Questions: []models.Question{{CorrectAnswers: []string{"a", "b"}}}}

	forward := ScoreQuiz(quiz, []models.AnswerSet{{"a", "b"}})
	reversed := ScoreQuiz(quiz, []models.AnswerSet{{"b", "a"}})

	assert.Equal(t, 100, forward.Score)
	assert.Equal(t, 100, reversed.Score)
}

func TestScoreQuiz_PartialSetIsWrong(t *testing.T) {
	quiz := &models.Quiz{Questions: []models.Question{{CorrectAnswers: []string{"a", "b"}}}}

	res := ScoreQuiz(quiz, []models.AnswerSet{{"a"}})
	assert.Equal(t, 0, res.Score)
	assert.False(t, res.Passed)

	res = ScoreQuiz(quiz, []models.AnswerSet{{"a", "b", "c"}})
	assert.Equal(t, 0, res.Score)
}

func TestScoreQuiz_MissingAnswersCountAsWrong(t *testing.T) {
	res := ScoreQuiz(fourQuestionQuiz(), []models.AnswerSet{{"a"}, {"b", "a"}})

	assert.Equal(t, 50, res.Score)
	assert.False(t, res.Passed)
	assert.Empty(t, res.Breakdown[2].Selected)
}

func TestScoreQuiz_PassingBoundary(t *testing.T) {
	quiz := &models.Quiz{}
	for i := 0; i < 10; i++ {
		quiz.Questions = append(quiz.Questions, models.Question{CorrectAnswers: []string{"ok"}})
	}

	answers := make([]models.AnswerSet, 10)
	for i := 0; i < 7; i++ {
		answers[i] = models.AnswerSet{"ok"}
	}
	res := ScoreQuiz(quiz, answers)
	assert.Equal(t, 70, res.Score)
	assert.True(t, res.Passed)

	answers[6] = nil
	res = ScoreQuiz(quiz, answers)
	assert.Equal(t, 60, res.Score)
	assert.False(t, res.Passed)
}

func TestScoreQuiz_NoQuestions(t *testing.T) {
	res := ScoreQuiz(&models.Quiz{}, []models.AnswerSet{{"a"}})
	assert.Equal(t, 0, res.Score)
	assert.False(t, res.Passed)
	assert.Empty(t, res.Breakdown)
}
