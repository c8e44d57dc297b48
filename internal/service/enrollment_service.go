package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/progress"
	"github.com/RubachokBoss/enrollment-service/internal/report"
	"github.com/RubachokBoss/enrollment-service/internal/repository"
	"github.com/RubachokBoss/enrollment-service/internal/service/integration"
)

type EnrollmentService interface {
	EnrollStudent(ctx context.Context, caller models.Identity, req *models.EnrollRequest) (*models.Enrollment, error)
	ListStudentEnrollments(ctx context.Context, caller models.Identity, studentID string) (*models.EnrollmentsResponse, error)
	GetEnrollment(ctx context.Context, caller models.Identity, enrollmentID string) (*models.Enrollment, error)
	SetSectionStatus(ctx context.Context, caller models.Identity, req *models.LegacyProgressRequest) (*models.Enrollment, error)
	UpdateProgress(ctx context.Context, caller models.Identity, enrollmentID string, req *models.UpdateProgressRequest) (*models.Enrollment, error)
	MarkSectionComplete(ctx context.Context, caller models.Identity, enrollmentID string, req *models.SectionCompleteRequest) (*models.Enrollment, error)
	SubmitQuiz(ctx context.Context, caller models.Identity, enrollmentID string, req *models.QuizSubmitRequest) (*models.Enrollment, error)
	AddSectionNote(ctx context.Context, caller models.Identity, enrollmentID string, req *models.AddNoteRequest) (*models.Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, caller models.Identity, req *models.UpdateStatusRequest) (*models.Enrollment, error)
	ExportCourseProgress(ctx context.Context, caller models.Identity, courseID string) (*models.ProgressExport, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	publisher      integration.EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *enrollmentService) EnrollStudent(ctx context.Context, caller models.Identity, req *models.EnrollRequest) (*models.Enrollment, error) {
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = string(models.SessionTypeOnline)
	}
	if !models.IsValidSessionType(sessionType) {
		return nil, ErrInvalidSessionType
	}

	student, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil || !student.IsStudent() {
		return nil, ErrStudentNotFound
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	existing, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, student.ID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := progress.NewEnrollment(uuid.New().String(), student.ID, course.ID, models.SessionType(sessionType), s.now())

	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("student_id", student.ID).
		Str("course_id", course.ID).
		Str("session_type", sessionType).
		Msg("Student enrolled")

	s.publish(ctx, models.EventEnrollmentCreated, enrollment, nil)

	enrollment.Course = course
	return enrollment, nil
}

func (s *enrollmentService) ListStudentEnrollments(ctx context.Context, caller models.Identity, studentID string) (*models.EnrollmentsResponse, error) {
	if !caller.IsStaff() && caller.UserID != studentID {
		return nil, ErrStudentNotFound
	}

	enrollments, err := s.enrollmentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	courses := make(map[string]*models.Course)
	for i := range enrollments {
		courseID := enrollments[i].CourseID
		course, ok := courses[courseID]
		if !ok {
			course, err = s.courseRepo.GetByID(ctx, courseID)
			if err != nil {
				return nil, fmt.Errorf("failed to load course %s: %w", courseID, err)
			}
			courses[courseID] = course
		}
		enrollments[i].Course = course
	}

	return &models.EnrollmentsResponse{
		Enrollments: enrollments,
		Total:       len(enrollments),
	}, nil
}

func (s *enrollmentService) GetEnrollment(ctx context.Context, caller models.Identity, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if enrollment == nil || (!caller.IsStaff() && enrollment.StudentID != caller.UserID) {
		return nil, ErrEnrollmentNotFound
	}

	course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	enrollment.Course = course

	return enrollment, nil
}

// SetSectionStatus is the legacy progress save: a raw section status
// overwrite followed by the weighted recompute.
func (s *enrollmentService) SetSectionStatus(ctx context.Context, caller models.Identity, req *models.LegacyProgressRequest) (*models.Enrollment, error) {
	if !models.IsValidSectionStatus(req.Status) {
		return nil, ErrInvalidSectionStatus
	}

	return s.mutate(ctx, caller, req.EnrollmentID, req.ModuleID, req.SectionID, progress.FormulaWeighted,
		func(e *models.Enrollment, _ *models.Section, now time.Time) error {
			progress.SetSectionStatus(e, req.ModuleID, req.SectionID, models.SectionStatus(req.Status), now)
			return nil
		})
}

func (s *enrollmentService) UpdateProgress(ctx context.Context, caller models.Identity, enrollmentID string, req *models.UpdateProgressRequest) (*models.Enrollment, error) {
	if req.TimeSpent < 0 {
		return nil, ErrNegativeTimeSpent
	}

	return s.mutate(ctx, caller, enrollmentID, req.ModuleID, req.SectionID, progress.FormulaSectionRatio,
		func(e *models.Enrollment, _ *models.Section, now time.Time) error {
			progress.RecordTime(e, req.ModuleID, req.SectionID, req.TimeSpent, now)
			return nil
		})
}

func (s *enrollmentService) MarkSectionComplete(ctx context.Context, caller models.Identity, enrollmentID string, req *models.SectionCompleteRequest) (*models.Enrollment, error) {
	return s.mutate(ctx, caller, enrollmentID, req.ModuleID, req.SectionID, progress.FormulaSectionRatio,
		func(e *models.Enrollment, _ *models.Section, now time.Time) error {
			progress.CompleteSection(e, req.ModuleID, req.SectionID, req.Notes, now)
			return nil
		})
}

func (s *enrollmentService) AddSectionNote(ctx context.Context, caller models.Identity, enrollmentID string, req *models.AddNoteRequest) (*models.Enrollment, error) {
	if req.Content == "" {
		return nil, ErrEmptyNote
	}

	return s.mutate(ctx, caller, enrollmentID, req.ModuleID, req.SectionID, progress.FormulaSectionRatio,
		func(e *models.Enrollment, _ *models.Section, now time.Time) error {
			progress.AddNote(e, req.ModuleID, req.SectionID, req.Content, now)
			return nil
		})
}

func (s *enrollmentService) SubmitQuiz(ctx context.Context, caller models.Identity, enrollmentID string, req *models.QuizSubmitRequest) (*models.Enrollment, error) {
	if req.Answers == nil {
		return nil, ErrInvalidAnswers
	}

	var attempt models.Attempt
	enrollment, err := s.mutate(ctx, caller, enrollmentID, req.ModuleID, req.SectionID, progress.FormulaSectionRatio,
		func(e *models.Enrollment, section *models.Section, now time.Time) error {
			if section.Quiz == nil || section.Quiz.ID != req.QuizID {
				return ErrQuizNotFound
			}

			startedAt := now
			if req.StartedAt != nil {
				startedAt = req.StartedAt.UTC()
			}

			result := progress.ScoreQuiz(section.Quiz, req.Answers)
			attempt = progress.RecordQuizAttempt(e, req.ModuleID, req.SectionID, req.QuizID, result, startedAt, now)
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("quiz_id", req.QuizID).
		Int("attempt", attempt.AttemptNumber).
		Int("score", attempt.Score).
		Bool("passed", attempt.Passed).
		Msg("Quiz submitted")

	s.publish(ctx, models.EventQuizSubmitted, enrollment, func(ev *models.EnrollmentEvent) {
		ev.SectionID = req.SectionID
		ev.Score = &attempt.Score
		ev.Passed = &attempt.Passed
	})

	return enrollment, nil
}

func (s *enrollmentService) UpdateEnrollmentStatus(ctx context.Context, caller models.Identity, req *models.UpdateStatusRequest) (*models.Enrollment, error) {
	if !models.IsValidEnrollmentStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	status := models.EnrollmentStatus(req.Status)

	enrollment, err := s.enrollmentRepo.Update(ctx, req.EnrollmentID, func(e *models.Enrollment) error {
		if !caller.IsStaff() {
			if e.StudentID != caller.UserID {
				return ErrEnrollmentNotFound
			}
			if status != models.EnrollmentStatusDropped {
				return ErrStatusChangeForbidden
			}
		}
		if e.CurrentStatus == status {
			return ErrStatusUnchanged
		}

		now := s.now()
		progress.ChangeStatus(e, status, caller.UserID, req.Reason, now)
		e.UpdatedAt = now
		return nil
	})
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, s.wrapUpdateErr(err)
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("status", req.Status).
		Str("changed_by", caller.UserID).
		Msg("Enrollment status changed")

	s.publish(ctx, models.EventEnrollmentStatusChanged, enrollment, nil)

	course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	enrollment.Course = course

	return enrollment, nil
}

func (s *enrollmentService) ExportCourseProgress(ctx context.Context, caller models.Identity, courseID string) (*models.ProgressExport, error) {
	if !caller.IsStaff() {
		return nil, ErrExportForbidden
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	enrollments, err := s.enrollmentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	students := make(map[string]*models.User, len(enrollments))
	for _, e := range enrollments {
		if _, ok := students[e.StudentID]; ok {
			continue
		}
		user, err := s.userRepo.GetByID(ctx, e.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load student %s: %w", e.StudentID, err)
		}
		students[e.StudentID] = user
	}

	export, err := report.CourseProgress(course, enrollments, students)
	if err != nil {
		return nil, fmt.Errorf("failed to build progress export: %w", err)
	}

	s.logger.Info().
		Str("course_id", courseID).
		Int("enrollments", len(enrollments)).
		Str("requested_by", caller.UserID).
		Msg("Course progress exported")

	return export, nil
}

type mutation func(e *models.Enrollment, section *models.Section, now time.Time) error

// mutate resolves the course section, then applies fn and the recompute to
// the locked enrollment. Only the owning student may mutate progress.
func (s *enrollmentService) mutate(
	ctx context.Context,
	caller models.Identity,
	enrollmentID, moduleID, sectionID string,
	formula progress.Formula,
	fn mutation,
) (*models.Enrollment, error) {
	current, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if current == nil || current.StudentID != caller.UserID {
		return nil, ErrEnrollmentNotFound
	}

	course, err := s.courseRepo.GetByID(ctx, current.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	module := course.Module(moduleID)
	if module == nil {
		return nil, ErrModuleNotFound
	}
	section := module.Section(sectionID)
	if section == nil {
		return nil, ErrSectionNotFound
	}

	var outcome progress.Outcome
	enrollment, err := s.enrollmentRepo.Update(ctx, enrollmentID, func(e *models.Enrollment) error {
		if e.StudentID != caller.UserID {
			return ErrEnrollmentNotFound
		}

		now := s.now()
		if err := fn(e, section, now); err != nil {
			return err
		}

		outcome = progress.Recompute(e, course, formula, now)
		e.UpdatedAt = now
		return nil
	})
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, s.wrapUpdateErr(err)
	}

	if outcome.Changed() {
		s.logger.Info().
			Str("enrollment_id", enrollment.ID).
			Str("formula", formula.String()).
			Int("previous_percentage", outcome.PreviousPercentage).
			Int("completion_percentage", outcome.Percentage).
			Msg("Completion percentage changed")
	} else {
		s.logger.Debug().
			Str("enrollment_id", enrollment.ID).
			Str("module_id", moduleID).
			Str("section_id", sectionID).
			Msg("Progress updated")
	}

	if outcome.Completed {
		s.logger.Info().
			Str("enrollment_id", enrollment.ID).
			Str("student_id", enrollment.StudentID).
			Str("course_id", enrollment.CourseID).
			Msg("Enrollment completed")

		s.publish(ctx, models.EventEnrollmentCompleted, enrollment, nil)
	}

	enrollment.Course = course
	return enrollment, nil
}

// wrapUpdateErr passes domain errors through and wraps persistence failures.
func (s *enrollmentService) wrapUpdateErr(err error) error {
	var de *domainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("failed to update enrollment: %w", err)
}

// publish emits an event. Failures are logged and never fail the operation.
func (s *enrollmentService) publish(ctx context.Context, eventType string, e *models.Enrollment, decorate func(*models.EnrollmentEvent)) {
	event := &models.EnrollmentEvent{
		Type:                 eventType,
		EnrollmentID:         e.ID,
		StudentID:            e.StudentID,
		CourseID:             e.CourseID,
		Status:               string(e.CurrentStatus),
		CompletionPercentage: e.Progress.CompletionPercentage,
		Timestamp:            s.now().Unix(),
	}
	if decorate != nil {
		decorate(event)
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("event", eventType).
			Str("enrollment_id", e.ID).
			Msg("Failed to publish enrollment event")
	}
}
