package service

import "errors"

// Error kinds. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// domainError carries a caller-facing message and unwraps to its kind.
type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

var (
	ErrEnrollmentNotFound = newError(ErrNotFound, "enrollment not found")
	ErrCourseNotFound     = newError(ErrNotFound, "course not found")
	ErrStudentNotFound    = newError(ErrNotFound, "student not found")
	ErrModuleNotFound     = newError(ErrNotFound, "module not found in course")
	ErrSectionNotFound    = newError(ErrNotFound, "section not found in module")
	ErrQuizNotFound       = newError(ErrNotFound, "quiz not found in section")

	ErrAlreadyEnrolled = newError(ErrConflict, "student is already enrolled in this course")

	ErrInvalidSessionType   = newError(ErrValidation, "invalid session type")
	ErrInvalidStatus        = newError(ErrValidation, "invalid enrollment status")
	ErrInvalidSectionStatus = newError(ErrValidation, "invalid section status")
	ErrStatusUnchanged      = newError(ErrValidation, "enrollment already has this status")
	ErrNegativeTimeSpent    = newError(ErrValidation, "timeSpent must not be negative")
	ErrEmptyNote            = newError(ErrValidation, "note content is required")
	ErrInvalidAnswers       = newError(ErrValidation, "answers are required")

	ErrStatusChangeForbidden = newError(ErrForbidden, "students may only drop their own enrollment")
	ErrExportForbidden       = newError(ErrForbidden, "only tutors and admins may export course progress")
)
