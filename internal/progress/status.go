package progress

import (
	"time"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// ApplyCompletion moves the enrollment to completed when the percentage is 100.
// It reports whether a transition happened. There is no automatic way back:
// a completed enrollment stays completed if the percentage later drops.
func ApplyCompletion(e *models.Enrollment, now time.Time) bool {
	if e.Progress.CompletionPercentage != 100 {
		return false
	}

	e.Certification.Eligible = true
	if e.CurrentStatus == models.EnrollmentStatusCompleted {
		return false
	}

	ChangeStatus(e, models.EnrollmentStatusCompleted, SystemActor, "all sections completed", now)
	return true
}

// ChangeStatus sets the current status and appends to the history.
func ChangeStatus(e *models.Enrollment, status models.EnrollmentStatus, changedBy, reason string, now time.Time) {
	e.CurrentStatus = status
	e.StatusHistory = append(e.StatusHistory, models.StatusChange{
		Status:    status,
		Timestamp: now,
		ChangedBy: changedBy,
		Reason:    reason,
	})
}

// NewEnrollment builds a fresh enrollment in the enrolled state.
func NewEnrollment(id, studentID, courseID string, sessionType models.SessionType, now time.Time) *models.Enrollment {
	e := &models.Enrollment{
		ID:                  id,
		StudentID:           studentID,
		CourseID:            courseID,
		EnrolledSessionType: sessionType,
		StatusHistory:       []models.StatusChange{},
		Progress: models.Progress{
			Modules:     []models.ModuleProgress{},
			Assessments: []models.AssessmentProgress{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ChangeStatus(e, models.EnrollmentStatusEnrolled, studentID, "enrolled", now)
	return e
}
