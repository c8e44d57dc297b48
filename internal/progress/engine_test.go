package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// twoByTwo is a course with two modules of two sections each.
func twoByTwo() *models.Course {
	return &models.Course{
		ID: "course-1",
		Modules: []models.Module{
			{ID: "m1", Sections: []models.Section{{ID: "m1s1"}, {ID: "m1s2", Quiz: fourQuestionQuiz()}}},
			{ID: "m2", Sections: []models.Section{{ID: "m2s1"}, {ID: "m2s2"}}},
		},
	}
}

func newTestEnrollment() *models.Enrollment {
	return NewEnrollment("enr-1", "student-1", "course-1", models.SessionTypeOnline, t0)
}

func TestNewEnrollment(t *testing.T) {
	e := newTestEnrollment()

	assert.Equal(t, models.EnrollmentStatusEnrolled, e.CurrentStatus)
	assert.Equal(t, 0, e.Progress.CompletionPercentage)
	assert.Empty(t, e.Progress.Modules)
	assert.Empty(t, e.Progress.Assessments)
	require.Len(t, e.StatusHistory, 1)
	assert.Equal(t, "student-1", e.StatusHistory[0].ChangedBy)
}

func TestTouch_CreatesEntriesLazily(t *testing.T) {
	e := newTestEnrollment()

	module, section := Touch(e, "m1", "m1s1", t0)
	require.NotNil(t, module)
	require.NotNil(t, section)
	assert.Equal(t, models.ModuleStatusStarted, module.Status)
	assert.Equal(t, models.SectionStatusInProgress, section.Status)

	Touch(e, "m1", "m1s1", t0.Add(time.Minute))
	Touch(e, "m1", "m1s2", t0.Add(time.Minute))
	require.Len(t, e.Progress.Modules, 1)
	assert.Len(t, e.Progress.Modules[0].Sections, 2)
	assert.Equal(t, t0, *e.Progress.Modules[0].Sections[0].StartedAt)
}

func TestRecordTime_Accumulates(t *testing.T) {
	e := newTestEnrollment()
	second := t0.Add(5 * time.Minute)

	RecordTime(e, "m1", "m1s1", 30, t0)
	RecordTime(e, "m1", "m1s1", 30, second)

	section := e.Progress.Module("m1").Section("m1s1")
	assert.Equal(t, 60, section.TimeSpent)
	assert.Equal(t, 60, e.Progress.Module("m1").TimeSpent)
	assert.Equal(t, 60, e.Progress.TimeSpentTotal)
	assert.Equal(t, second, *section.LastAccessed)
	assert.Equal(t, second, *e.Progress.LastActivity)
	assert.Equal(t, "m1", e.Progress.CurrentModule)
	assert.Equal(t, "m1s1", e.Progress.CurrentSection)
}

func TestRecordTime_DefaultsToOneUnit(t *testing.T) {
	e := newTestEnrollment()

	RecordTime(e, "m1", "m1s1", 0, t0)

	assert.Equal(t, DefaultTimeSpent, e.Progress.TimeSpentTotal)
}

func TestRecompute_SectionRatioScenario(t *testing.T) {
	course := twoByTwo()
	e := newTestEnrollment()

	CompleteSection(e, "m1", "m1s1", "", t0)
	out := Recompute(e, course, FormulaSectionRatio, t0)
	assert.Equal(t, 25, out.Percentage)
	assert.True(t, out.Changed())
	assert.False(t, out.Completed)
	assert.Equal(t, models.EnrollmentStatusEnrolled, e.CurrentStatus)
	assert.False(t, e.Certification.Eligible)

	for _, ids := range [][2]string{{"m1", "m1s2"}, {"m2", "m2s1"}, {"m2", "m2s2"}} {
		CompleteSection(e, ids[0], ids[1], "", t0)
	}
	out = Recompute(e, course, FormulaSectionRatio, t0)

	assert.Equal(t, 100, out.Percentage)
	assert.True(t, out.Completed)
	assert.Equal(t, models.EnrollmentStatusCompleted, e.CurrentStatus)
	assert.True(t, e.Certification.Eligible)
	assert.Equal(t, 2, e.Progress.CompletedModules())
	last := e.StatusHistory[len(e.StatusHistory)-1]
	assert.Equal(t, SystemActor, last.ChangedBy)
	assert.Equal(t, models.EnrollmentStatusCompleted, last.Status)

	// A second recompute at 100 does not append another history entry.
	out = Recompute(e, course, FormulaSectionRatio, t0)
	assert.False(t, out.Completed)
	assert.Len(t, e.StatusHistory, 2)
}

func TestRecompute_WeightedFormula(t *testing.T) {
	course := twoByTwo()
	e := newTestEnrollment()

	SetSectionStatus(e, "m1", "m1s1", models.SectionStatusCompleted, t0)
	SetSectionStatus(e, "m1", "m1s2", models.SectionStatusCompleted, t0)
	out := Recompute(e, course, FormulaWeighted, t0)

	// one of two modules and two of four sections
	assert.Equal(t, 50, out.Percentage)
	assert.Equal(t, models.ModuleStatusCompleted, e.Progress.Module("m1").Status)
}

func TestRecompute_WeightedSkippedForEmptyCourse(t *testing.T) {
	e := newTestEnrollment()
	e.Progress.CompletionPercentage = 40

	out := Recompute(e, &models.Course{ID: "empty"}, FormulaWeighted, t0)

	assert.Equal(t, 40, out.Percentage)
	assert.False(t, out.Changed())
}

func TestRecompute_OrphansNeverExceed100(t *testing.T) {
	course := &models.Course{Modules: []models.Module{{ID: "m1", Sections: []models.Section{{ID: "s1"}}}}}
	e := newTestEnrollment()

	CompleteSection(e, "m1", "s1", "", t0)
	CompleteSection(e, "m1", "deleted-section", "", t0)
	CompleteSection(e, "gone", "deleted-too", "", t0)

	out := Recompute(e, course, FormulaSectionRatio, t0)
	assert.Equal(t, 100, out.Percentage)
}

func TestSetSectionStatus_ReopenClearsModuleCompletion(t *testing.T) {
	course := twoByTwo()
	e := newTestEnrollment()

	SetSectionStatus(e, "m2", "m2s1", models.SectionStatusCompleted, t0)
	SetSectionStatus(e, "m2", "m2s2", models.SectionStatusCompleted, t0)
	Recompute(e, course, FormulaWeighted, t0)
	require.Equal(t, models.ModuleStatusCompleted, e.Progress.Module("m2").Status)

	SetSectionStatus(e, "m2", "m2s2", models.SectionStatusInProgress, t0)
	Recompute(e, course, FormulaWeighted, t0)

	assert.Equal(t, models.ModuleStatusStarted, e.Progress.Module("m2").Status)
	assert.Nil(t, e.Progress.Module("m2").Section("m2s2").CompletedAt)
}

func TestCompleteSection_AppendsNote(t *testing.T) {
	e := newTestEnrollment()

	CompleteSection(e, "m1", "m1s1", "finally got it", t0)
	AddNote(e, "m1", "m1s1", "revisit later", t0.Add(time.Hour))

	section := e.Progress.Module("m1").Section("m1s1")
	require.Len(t, section.Notes, 2)
	assert.Equal(t, "finally got it", section.Notes[0].Content)
	assert.Equal(t, t0.Add(time.Hour), section.Notes[1].CreatedAt)
	assert.Equal(t, models.SectionStatusCompleted, section.Status)
}

func TestRecordQuizAttempt_SeparatesQuizzesSharingSectionID(t *testing.T) {
	e := newTestEnrollment()

	RecordQuizAttempt(e, "m1", "intro", "q1", QuizResult{Score: 100, Passed: true}, t0, t0.Add(time.Minute))
	second := RecordQuizAttempt(e, "m2", "intro", "q2", QuizResult{Score: 0}, t0, t0.Add(2*time.Minute))
	assert.Equal(t, 1, second.AttemptNumber)

	require.Len(t, e.Progress.Assessments, 2)

	first := e.Progress.Assessment("intro", "q1", models.AssessmentTypeQuiz)
	require.NotNil(t, first)
	assert.Len(t, first.Attempts, 1)
	assert.True(t, first.Passed)

	other := e.Progress.Assessment("intro", "q2", models.AssessmentTypeQuiz)
	require.NotNil(t, other)
	assert.Len(t, other.Attempts, 1)
	assert.Equal(t, 0, other.BestScore)
	assert.False(t, other.Passed)
	assert.Equal(t, models.SectionStatusInProgress, e.Progress.Module("m2").Section("intro").Status)
}

func TestRecordQuizAttempt(t *testing.T) {
	course := twoByTwo()
	e := newTestEnrollment()
	quiz := course.Modules[0].Sections[1].Quiz

	failing := ScoreQuiz(quiz, []models.AnswerSet{{"a"}})
	first := RecordQuizAttempt(e, "m1", "m1s2", quiz.ID, failing, t0, t0.Add(time.Minute))
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, PassingScore, first.PassingScore)
	assert.Equal(t, models.SectionStatusInProgress, e.Progress.Module("m1").Section("m1s2").Status)

	passing := ScoreQuiz(quiz, []models.AnswerSet{{"a"}, {"b", "a"}, {"c"}, {"x"}})
	second := RecordQuizAttempt(e, "m1", "m1s2", quiz.ID, passing, t0, t0.Add(2*time.Minute))
	assert.Equal(t, 2, second.AttemptNumber)

	worse := ScoreQuiz(quiz, nil)
	third := RecordQuizAttempt(e, "m1", "m1s2", quiz.ID, worse, t0, t0.Add(3*time.Minute))
	assert.Equal(t, 3, third.AttemptNumber)

	assessment := e.Progress.Assessment("m1s2", quiz.ID, models.AssessmentTypeQuiz)
	require.NotNil(t, assessment)
	assert.Len(t, assessment.Attempts, 3)
	assert.Equal(t, 75, assessment.BestScore)
	assert.True(t, assessment.Passed)
	assert.Equal(t, quiz.ID, assessment.AssessmentID)

	section := e.Progress.Module("m1").Section("m1s2")
	assert.Equal(t, models.SectionStatusCompleted, section.Status)
	assert.Equal(t, t0.Add(2*time.Minute), *section.CompletedAt)
}

func TestChangeStatus_AppendsHistory(t *testing.T) {
	e := newTestEnrollment()

	ChangeStatus(e, models.EnrollmentStatusSuspended, "admin-1", "payment overdue", t0)

	assert.Equal(t, models.EnrollmentStatusSuspended, e.CurrentStatus)
	require.Len(t, e.StatusHistory, 2)
	assert.Equal(t, "payment overdue", e.StatusHistory[1].Reason)
}
