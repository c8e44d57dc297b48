package progress

import (
	"time"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// SystemActor is recorded as changedBy for automatic status transitions.
const SystemActor = "system"

// DefaultTimeSpent is booked by a heartbeat that does not report a duration.
const DefaultTimeSpent = 1

// Outcome describes what a recompute changed.
type Outcome struct {
	PreviousPercentage int
	Percentage         int
	Completed          bool // the enrollment transitioned to completed during this recompute
}

func (o Outcome) Changed() bool {
	return o.PreviousPercentage != o.Percentage
}

// Touch returns the module and section entries, creating them on first
// interaction. New modules start as "started", new sections as "in_progress".
func Touch(e *models.Enrollment, moduleID, sectionID string, now time.Time) (*models.ModuleProgress, *models.SectionProgress) {
	module := e.Progress.Module(moduleID)
	if module == nil {
		e.Progress.Modules = append(e.Progress.Modules, models.ModuleProgress{
			ModuleID:  moduleID,
			Status:    models.ModuleStatusStarted,
			StartedAt: timePtr(now),
			Sections:  []models.SectionProgress{},
		})
		module = &e.Progress.Modules[len(e.Progress.Modules)-1]
	}
	if module.Status == models.ModuleStatusNotStarted || module.Status == "" {
		module.Status = models.ModuleStatusStarted
		module.StartedAt = timePtr(now)
	}

	section := module.Section(sectionID)
	if section == nil {
		module.Sections = append(module.Sections, models.SectionProgress{
			SectionID: sectionID,
			Status:    models.SectionStatusInProgress,
			StartedAt: timePtr(now),
			Notes:     []models.Note{},
		})
		section = &module.Sections[len(module.Sections)-1]
	}
	if section.Status == models.SectionStatusNotStarted || section.Status == "" {
		section.Status = models.SectionStatusInProgress
		section.StartedAt = timePtr(now)
	}

	return module, section
}

// RecordTime books a heartbeat against a section. seconds <= 0 books DefaultTimeSpent.
func RecordTime(e *models.Enrollment, moduleID, sectionID string, seconds int, now time.Time) {
	if seconds <= 0 {
		seconds = DefaultTimeSpent
	}

	module, section := Touch(e, moduleID, sectionID, now)
	module.TimeSpent += seconds
	section.TimeSpent += seconds
	e.Progress.TimeSpentTotal += seconds

	module.LastAccessed = timePtr(now)
	section.LastAccessed = timePtr(now)
	markActivity(e, moduleID, sectionID, now)
}

// CompleteSection marks a section completed and appends the optional note.
func CompleteSection(e *models.Enrollment, moduleID, sectionID, note string, now time.Time) {
	module, section := Touch(e, moduleID, sectionID, now)
	section.Status = models.SectionStatusCompleted
	section.CompletedAt = timePtr(now)
	section.LastAccessed = timePtr(now)
	module.LastAccessed = timePtr(now)
	if note != "" {
		section.Notes = append(section.Notes, models.Note{Content: note, CreatedAt: now})
	}
	markActivity(e, moduleID, sectionID, now)
}

// SetSectionStatus overwrites a section status as-is. Used by the legacy update path.
func SetSectionStatus(e *models.Enrollment, moduleID, sectionID string, status models.SectionStatus, now time.Time) {
	module, section := Touch(e, moduleID, sectionID, now)
	section.Status = status
	switch status {
	case models.SectionStatusCompleted:
		section.CompletedAt = timePtr(now)
	default:
		section.CompletedAt = nil
	}
	section.LastAccessed = timePtr(now)
	module.LastAccessed = timePtr(now)
	markActivity(e, moduleID, sectionID, now)
}

// AddNote appends a note to a section.
func AddNote(e *models.Enrollment, moduleID, sectionID, content string, now time.Time) {
	module, section := Touch(e, moduleID, sectionID, now)
	section.Notes = append(section.Notes, models.Note{Content: content, CreatedAt: now})
	section.LastAccessed = timePtr(now)
	module.LastAccessed = timePtr(now)
	markActivity(e, moduleID, sectionID, now)
}

// RecordQuizAttempt appends an attempt to the (section, quiz) assessment and
// updates the section: created if absent, completed once an attempt passes.
func RecordQuizAttempt(
	e *models.Enrollment,
	moduleID, sectionID, quizID string,
	result QuizResult,
	startedAt, now time.Time,
) models.Attempt {
	assessment := e.Progress.Assessment(sectionID, quizID, models.AssessmentTypeQuiz)
	if assessment == nil {
		e.Progress.Assessments = append(e.Progress.Assessments, models.AssessmentProgress{
			AssessmentID:   quizID,
			AssessmentType: models.AssessmentTypeQuiz,
			SectionID:      sectionID,
			Attempts:       []models.Attempt{},
			Required:       true,
		})
		assessment = &e.Progress.Assessments[len(e.Progress.Assessments)-1]
	}

	attempt := models.Attempt{
		AttemptNumber: len(assessment.Attempts) + 1,
		StartedAt:     startedAt,
		SubmittedAt:   now,
		Score:         result.Score,
		PassingScore:  PassingScore,
		Passed:        result.Passed,
		Answers:       result.Breakdown,
	}
	assessment.Attempts = append(assessment.Attempts, attempt)
	if result.Score > assessment.BestScore {
		assessment.BestScore = result.Score
	}
	assessment.Passed = assessment.Passed || result.Passed

	module, section := Touch(e, moduleID, sectionID, now)
	if result.Passed {
		section.Status = models.SectionStatusCompleted
		section.CompletedAt = timePtr(now)
	}
	section.LastAccessed = timePtr(now)
	module.LastAccessed = timePtr(now)
	markActivity(e, moduleID, sectionID, now)

	return attempt
}

// Recompute derives the module statuses and the completion percentage from the
// section entries, then applies the automatic completion transition.
func Recompute(e *models.Enrollment, course *models.Course, formula Formula, now time.Time) Outcome {
	syncModuleStatus(e, course, now)

	out := Outcome{PreviousPercentage: e.Progress.CompletionPercentage}

	switch formula {
	case FormulaWeighted:
		if pct, ok := Weighted(
			e.Progress.CompletedModules(), len(course.Modules),
			e.Progress.CompletedSections(), course.TotalSections(),
		); ok {
			e.Progress.CompletionPercentage = pct
		}
	default:
		e.Progress.CompletionPercentage = SectionRatio(e.Progress.CompletedSections(), course.TotalSections())
	}

	out.Percentage = e.Progress.CompletionPercentage
	out.Completed = ApplyCompletion(e, now)
	return out
}

// syncModuleStatus marks a module completed once every section the course
// defines for it is completed. Modules unknown to the course are left alone.
func syncModuleStatus(e *models.Enrollment, course *models.Course, now time.Time) {
	for i := range e.Progress.Modules {
		mp := &e.Progress.Modules[i]
		def := course.Module(mp.ModuleID)
		if def == nil || len(def.Sections) == 0 {
			continue
		}

		done := true
		for _, s := range def.Sections {
			sp := mp.Section(s.ID)
			if sp == nil || sp.Status != models.SectionStatusCompleted {
				done = false
				break
			}
		}

		switch {
		case done && mp.Status != models.ModuleStatusCompleted:
			mp.Status = models.ModuleStatusCompleted
			mp.CompletedAt = timePtr(now)
		case !done && mp.Status == models.ModuleStatusCompleted:
			mp.Status = models.ModuleStatusStarted
			mp.CompletedAt = nil
		}
	}
}

func markActivity(e *models.Enrollment, moduleID, sectionID string, now time.Time) {
	e.Progress.LastActivity = timePtr(now)
	e.Progress.CurrentModule = moduleID
	e.Progress.CurrentSection = sectionID
}

func timePtr(t time.Time) *time.Time {
	return &t
}
