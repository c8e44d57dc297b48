package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// UpdateFunc mutates a locked enrollment in place. Returning an error aborts
// the update and nothing is written.
type UpdateFunc func(e *models.Enrollment) error

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.Enrollment, error)
}

type enrollmentRepository struct {
	*PostgresRepository
}

func NewEnrollmentRepository(db *sql.DB, logger zerolog.Logger) EnrollmentRepository {
	return &enrollmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const enrollmentColumns = `
	id, student_id, course_id, enrolled_session_type, current_status,
	status_history, progress, certification, payment, created_at, updated_at
`

// isEnrollmentID reports whether id can name a stored enrollment. Anything
// else is treated as absent rather than sent to the uuid column.
func isEnrollmentID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	doc, err := encodeEnrollment(enrollment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO enrollments (
			id, student_id, course_id, enrolled_session_type, current_status,
			completion_percentage, status_history, progress, certification, payment,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.EnrolledSessionType,
		enrollment.CurrentStatus,
		enrollment.Progress.CompletionPercentage,
		doc.statusHistory,
		doc.progress,
		doc.certification,
		doc.paymentArg(),
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if !isEnrollmentID(id) {
		return nil, nil
	}

	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return enrollment, err
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND course_id = $2`

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, studentID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return enrollment, err
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, courseID)
}

func (r *enrollmentRepository) list(ctx context.Context, query string, args ...any) ([]models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *enrollment)
	}

	return enrollments, rows.Err()
}

// Update locks the row, applies fn to the decoded document and writes the
// whole document back in the same transaction.
func (r *enrollmentRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Enrollment, error) {
	if !isEnrollmentID(id) {
		return nil, ErrRecordNotFound
	}

	var updated *models.Enrollment

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`

		enrollment, err := scanEnrollment(tx.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		if err := fn(enrollment); err != nil {
			return err
		}

		doc, err := encodeEnrollment(enrollment)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE enrollments
			SET current_status = $1, completion_percentage = $2, status_history = $3,
				progress = $4, certification = $5, payment = $6, updated_at = $7
			WHERE id = $8
		`,
			enrollment.CurrentStatus,
			enrollment.Progress.CompletionPercentage,
			doc.statusHistory,
			doc.progress,
			doc.certification,
			doc.paymentArg(),
			enrollment.UpdatedAt,
			enrollment.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to write enrollment: %w", err)
		}

		updated = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

type enrollmentDocument struct {
	statusHistory []byte
	progress      []byte
	certification []byte
	payment       []byte
}

// paymentArg keeps an absent payment as SQL NULL.
func (d *enrollmentDocument) paymentArg() any {
	if len(d.payment) == 0 {
		return nil
	}
	return d.payment
}

func encodeEnrollment(e *models.Enrollment) (*enrollmentDocument, error) {
	var (
		doc enrollmentDocument
		err error
	)

	if doc.statusHistory, err = json.Marshal(e.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to encode status history: %w", err)
	}
	if doc.progress, err = json.Marshal(e.Progress); err != nil {
		return nil, fmt.Errorf("failed to encode progress: %w", err)
	}
	if doc.certification, err = json.Marshal(e.Certification); err != nil {
		return nil, fmt.Errorf("failed to encode certification: %w", err)
	}
	if len(e.Payment) > 0 {
		doc.payment = e.Payment
	}

	return &doc, nil
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var (
		e   models.Enrollment
		doc enrollmentDocument
	)

	err := row.Scan(
		&e.ID,
		&e.StudentID,
		&e.CourseID,
		&e.EnrolledSessionType,
		&e.CurrentStatus,
		&doc.statusHistory,
		&doc.progress,
		&doc.certification,
		&doc.payment,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(doc.statusHistory, &e.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %w", err)
	}
	if err := json.Unmarshal(doc.progress, &e.Progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	if err := json.Unmarshal(doc.certification, &e.Certification); err != nil {
		return nil, fmt.Errorf("failed to decode certification: %w", err)
	}
	if len(doc.payment) > 0 {
		e.Payment = json.RawMessage(doc.payment)
	}

	normalizeProgress(&e.Progress)
	return &e, nil
}

// normalizeProgress replaces nil slices so documents always encode as arrays.
func normalizeProgress(p *models.Progress) {
	if p.Modules == nil {
		p.Modules = []models.ModuleProgress{}
	}
	if p.Assessments == nil {
		p.Assessments = []models.AssessmentProgress{}
	}
	for i := range p.Modules {
		if p.Modules[i].Sections == nil {
			p.Modules[i].Sections = []models.SectionProgress{}
		}
		for j := range p.Modules[i].Sections {
			if p.Modules[i].Sections[j].Notes == nil {
				p.Modules[i].Sections[j].Notes = []models.Note{}
			}
		}
	}
}
