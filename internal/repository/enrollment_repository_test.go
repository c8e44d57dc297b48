package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

func TestIsEnrollmentID(t *testing.T) {
	tests := map[string]bool{
		"5f0c7a52-8f8a-4b0e-9b7e-3d1c2a9f0e11": true,
		"5F0C7A52-8F8A-4B0E-9B7E-3D1C2A9F0E11": true,
		"abc":                                  false,
		"":                                     false,
		"5f0c7a52-8f8a-4b0e-9b7e":              false,
		"'; DROP TABLE enrollments; --":        false,
	}

	for id, want := range tests {
		assert.Equal(t, want, isEnrollmentID(id), "id %q", id)
	}
}

// A nil handle proves malformed ids never reach the database.
func TestEnrollmentRepository_MalformedIDSkipsQuery(t *testing.T) {
	repo := NewEnrollmentRepository(nil, zerolog.Nop())
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.Update(ctx, "abc", func(*models.Enrollment) error { return nil })
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
