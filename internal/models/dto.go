package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Data Transfer Objects

type EnrollRequest struct {
	CourseID    string `json:"course" validate:"required"`
	SessionType string `json:"sessionType" validate:"omitempty,oneof=online group oneOnOne"`
}

// LegacyProgressRequest is the body of PUT /progress: a raw section status overwrite.
type LegacyProgressRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
	ModuleID     string `json:"moduleId" validate:"required"`
	SectionID    string `json:"sectionId" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=not_started in_progress completed"`
}

type UpdateProgressRequest struct {
	ModuleID  string `json:"moduleId" validate:"required"`
	SectionID string `json:"sectionId" validate:"required"`
	TimeSpent int    `json:"timeSpent" validate:"gte=0"`
}

type SectionCompleteRequest struct {
	ModuleID  string `json:"moduleId" validate:"required"`
	SectionID string `json:"sectionId" validate:"required"`
	Notes     string `json:"notes,omitempty" validate:"max=5000"`
}

type AddNoteRequest struct {
	ModuleID  string `json:"moduleId" validate:"required"`
	SectionID string `json:"sectionId" validate:"required"`
	Content   string `json:"content" validate:"required,max=5000"`
}

type QuizSubmitRequest struct {
	ModuleID  string      `json:"moduleId" validate:"required"`
	SectionID string      `json:"sectionId" validate:"required"`
	QuizID    string      `json:"quizId" validate:"required"`
	Answers   []AnswerSet `json:"answers" validate:"required"`
	StartedAt *time.Time  `json:"startedAt,omitempty"`
}

type UpdateStatusRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=enrolled in_progress completed dropped suspended"`
	Reason       string `json:"reason,omitempty" validate:"max=1000"`
}

type EnrollmentsResponse struct {
	Enrollments []Enrollment `json:"enrollments"`
	Total       int          `json:"total"`
}

var ErrMalformedAnswer = errors.New("answer must be a string or an array of strings")

// AnswerSet is the caller's answer to one question. It accepts either a single
// JSON string or an array of strings.
type AnswerSet []string

func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return ErrMalformedAnswer
		}
		*a = AnswerSet{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return ErrMalformedAnswer
	}
	*a = AnswerSet(many)
	return nil
}

// ProgressExport is a rendered course progress workbook.
type ProgressExport struct {
	FileName    string
	ContentType string
	Content     []byte
}
