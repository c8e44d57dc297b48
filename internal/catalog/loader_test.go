package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/repository"
)

const coursesYAML = `
courses:
  - id: algebra-1
    title: Algebra I
    modules:
      - id: m1
        title: Linear equations
        order: 1
        sections:
          - id: s1
            title: One variable
            order: 1
          - id: s2
            title: Check yourself
            order: 2
            quiz:
              id: q1
              title: Linear equations quiz
              questions:
                - prompt: "2x = 4"
                  options: ["1", "2", "4"]
                  correct_answers: ["2"]
`

const usersYAML = `
users:
  - id: stu-1
    name: Ada
    email: ada@example.com
    role: student
    student:
      grade_level: "9"
  - id: tut-1
    name: Grace
    email: grace@example.com
    role: tutor
    tutor:
      subjects: [math]
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CoursesFile, coursesYAML)
	writeFile(t, dir, UsersFile, usersYAML)

	c, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, c.Courses, 1)
	course := c.Courses[0]
	assert.Equal(t, 2, course.TotalSections())
	quiz := course.Module("m1").Section("s2").Quiz
	require.NotNil(t, quiz)
	assert.Equal(t, []string{"2"}, quiz.Questions[0].CorrectAnswers)

	require.Len(t, c.Users, 2)
	assert.Equal(t, models.RoleStudent, c.Users[0].Role)
	assert.Equal(t, "9", c.Users[0].Student.GradeLevel)
	assert.Equal(t, []string{"math"}, c.Users[1].Tutor.Subjects)
}

func TestLoad_MissingFilesAreEmpty(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, c.Courses)
	assert.Empty(t, c.Users)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed yaml", CoursesFile, "courses: [:"},
		{"duplicate section", CoursesFile, `
courses:
  - id: c
    modules:
      - id: m
        sections: [{id: s}, {id: s}]
`},
		{"section id reused across modules", CoursesFile, `
courses:
  - id: c
    modules:
      - id: m1
        sections:
          - id: intro
            quiz: {id: q1, questions: [{prompt: p, correct_answers: [a]}]}
      - id: m2
        sections:
          - id: intro
            quiz: {id: q2, questions: [{prompt: p, correct_answers: [a]}]}
`},
		{"duplicate quiz id", CoursesFile, `
courses:
  - id: c
    modules:
      - id: m1
        sections:
          - id: s1
            quiz: {id: q, questions: [{prompt: p, correct_answers: [a]}]}
          - id: s2
            quiz: {id: q, questions: [{prompt: p, correct_answers: [a]}]}
`},
		{"quiz without answers", CoursesFile, `
courses:
  - id: c
    modules:
      - id: m
        sections:
          - id: s
            quiz: {id: q, questions: [{prompt: p}]}
`},
		{"bad role", UsersFile, `
users:
  - {id: u, email: u@example.com, role: janitor}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)

			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CoursesFile, coursesYAML)
	writeFile(t, dir, UsersFile, usersYAML)

	c, err := Load(dir)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, Seed(context.Background(), c, store.Courses(), store.Users(), now, zerolog.Nop()))

	course, err := store.Courses().GetByID(context.Background(), "algebra-1")
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.True(t, course.CreatedAt.Equal(now))

	tutor, err := store.Users().GetByID(context.Background(), "tut-1")
	require.NoError(t, err)
	require.NotNil(t, tutor)
	assert.Equal(t, models.RoleTutor, tutor.Role)
}

func TestLoad_ShippedSeed(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "seed"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Courses)
	assert.NotEmpty(t, c.Users)
}
