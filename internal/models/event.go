package models

const (
	EventEnrollmentCreated       = "enrollment.created"
	EventEnrollmentCompleted     = "enrollment.completed"
	EventEnrollmentStatusChanged = "enrollment.status_changed"
	EventQuizSubmitted           = "quiz.submitted"
)

type EnrollmentEvent struct {
	Type                 string `json:"type"`
	EnrollmentID         string `json:"enrollment_id"`
	StudentID            string `json:"student_id"`
	CourseID             string `json:"course_id"`
	Status               string `json:"status,omitempty"`
	CompletionPercentage int    `json:"completion_percentage"`
	SectionID            string `json:"section_id,omitempty"`
	Score                *int   `json:"score,omitempty"`
	Passed               *bool  `json:"passed,omitempty"`
	Timestamp            int64  `json:"timestamp"`
}
