// Package catalog loads course and user definitions from YAML seed files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/repository"
)

const (
	CoursesFile = "courses.yaml"
	UsersFile   = "users.yaml"
)

type Catalog struct {
	Courses []models.Course `yaml:"courses"`
	Users   []models.User   `yaml:"users"`
}

// Load reads courses.yaml and users.yaml from dir. A missing file contributes
// nothing; a malformed one is an error.
func Load(dir string) (*Catalog, error) {
	var c Catalog

	if err := readYAML(filepath.Join(dir, CoursesFile), &c); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, UsersFile), &c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func readYAML(path string, out *Catalog) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var partial Catalog
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	out.Courses = append(out.Courses, partial.Courses...)
	out.Users = append(out.Users, partial.Users...)
	return nil
}

// Validate checks ids are present and unique where the progress engine keys on them.
func (c *Catalog) Validate() error {
	courseIDs := make(map[string]bool)
	for _, course := range c.Courses {
		if course.ID == "" {
			return fmt.Errorf("course %q has no id", course.Title)
		}
		if courseIDs[course.ID] {
			return fmt.Errorf("duplicate course id %q", course.ID)
		}
		courseIDs[course.ID] = true

		if err := validateCourse(course); err != nil {
			return fmt.Errorf("course %s: %w", course.ID, err)
		}
	}

	userIDs := make(map[string]bool)
	for _, user := range c.Users {
		if user.ID == "" || user.Email == "" {
			return fmt.Errorf("user %q needs an id and an email", user.Name)
		}
		if userIDs[user.ID] {
			return fmt.Errorf("duplicate user id %q", user.ID)
		}
		userIDs[user.ID] = true

		if !models.IsValidRole(string(user.Role)) {
			return fmt.Errorf("user %s: invalid role %q", user.ID, user.Role)
		}
	}

	return nil
}

// validateCourse requires section and quiz ids to be unique across the whole
// course, since assessment progress is keyed by section.
func validateCourse(course models.Course) error {
	moduleIDs := make(map[string]bool)
	sectionIDs := make(map[string]bool)
	quizIDs := make(map[string]bool)
	for _, module := range course.Modules {
		if module.ID == "" || moduleIDs[module.ID] {
			return fmt.Errorf("missing or duplicate module id %q", module.ID)
		}
		moduleIDs[module.ID] = true

		for _, section := range module.Sections {
			if section.ID == "" || sectionIDs[section.ID] {
				return fmt.Errorf("module %s: missing or duplicate section id %q", module.ID, section.ID)
			}
			sectionIDs[section.ID] = true

			if section.Quiz == nil {
				continue
			}
			if section.Quiz.ID == "" {
				return fmt.Errorf("section %s: quiz has no id", section.ID)
			}
			if quizIDs[section.Quiz.ID] {
				return fmt.Errorf("section %s: duplicate quiz id %q", section.ID, section.Quiz.ID)
			}
			quizIDs[section.Quiz.ID] = true
			for i, q := range section.Quiz.Questions {
				if len(q.CorrectAnswers) == 0 {
					return fmt.Errorf("quiz %s: question %d has no correct answers", section.Quiz.ID, i)
				}
			}
		}
	}
	return nil
}

// Seed upserts every course and user of the catalog.
func Seed(ctx context.Context, c *Catalog, courses repository.CourseRepository, users repository.UserRepository, now time.Time, logger zerolog.Logger) error {
	for i := range c.Courses {
		course := c.Courses[i]
		course.CreatedAt = now
		course.UpdatedAt = now
		if err := courses.Upsert(ctx, &course); err != nil {
			return fmt.Errorf("seeding course %s: %w", course.ID, err)
		}
	}

	for i := range c.Users {
		user := c.Users[i]
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := users.Upsert(ctx, &user); err != nil {
			return fmt.Errorf("seeding user %s: %w", user.ID, err)
		}
	}

	logger.Info().
		Int("courses", len(c.Courses)).
		Int("users", len(c.Users)).
		Msg("Catalog seeded")

	return nil
}
