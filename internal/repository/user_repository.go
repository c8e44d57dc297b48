package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// userDetails is the JSONB shape of the role-specific fields.
type userDetails struct {
	Student *models.StudentDetails `json:"student,omitempty"`
	Tutor   *models.TutorDetails   `json:"tutor,omitempty"`
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, role, details, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var (
		user    models.User
		details []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&details,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d userDetails
	if err := json.Unmarshal(details, &d); err != nil {
		return nil, fmt.Errorf("failed to decode user details: %w", err)
	}
	user.Student = d.Student
	user.Tutor = d.Tutor

	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	details, err := json.Marshal(userDetails{Student: user.Student, Tutor: user.Tutor})
	if err != nil {
		return fmt.Errorf("failed to encode user details: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, role, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			details = EXCLUDED.details,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		details,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}
