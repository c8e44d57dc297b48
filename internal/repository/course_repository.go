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

// CourseRepository is the read side of the course catalog plus the upsert
// used by the seed loader.
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	Upsert(ctx context.Context, course *models.Course) error
}

type courseRepository struct {
	*PostgresRepository
}

func NewCourseRepository(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, title, description, modules, created_at, updated_at
		FROM courses
		WHERE id = $1
	`

	var (
		course  models.Course
		modules []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&modules,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(modules, &course.Modules); err != nil {
		return nil, fmt.Errorf("failed to decode course modules: %w", err)
	}

	return &course, nil
}

func (r *courseRepository) Upsert(ctx context.Context, course *models.Course) error {
	modules, err := json.Marshal(course.Modules)
	if err != nil {
		return fmt.Errorf("failed to encode course modules: %w", err)
	}

	query := `
		INSERT INTO courses (id, title, description, modules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			modules = EXCLUDED.modules,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		modules,
		course.CreatedAt,
		course.UpdatedAt,
	)

	return err
}
