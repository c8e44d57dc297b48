package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// MemoryStore keeps courses, users and enrollments in process. Every value
// crossing the boundary is a deep copy, so callers can never mutate stored
// state without going through Update.
type MemoryStore struct {
	mu          sync.Mutex
	courses     map[string]models.Course
	users       map[string]models.User
	enrollments map[string]models.Enrollment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:     make(map[string]models.Course),
		users:       make(map[string]models.User),
		enrollments: make(map[string]models.Enrollment),
	}
}

func (s *MemoryStore) Courses() CourseRepository         { return memoryCourses{s} }
func (s *MemoryStore) Users() UserRepository             { return memoryUsers{s} }
func (s *MemoryStore) Enrollments() EnrollmentRepository { return memoryEnrollments{s} }

func clone[T any](v T) T {
	var out T
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		panic(err)
	}
	return out
}

type memoryCourses struct{ s *MemoryStore }

func (m memoryCourses) GetByID(_ context.Context, id string) (*models.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	course, ok := m.s.courses[id]
	if !ok {
		return nil, nil
	}
	c := clone(course)
	return &c, nil
}

func (m memoryCourses) Upsert(_ context.Context, course *models.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	m.s.courses[course.ID] = clone(*course)
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, nil
	}
	u := clone(user)
	return &u, nil
}

func (m memoryUsers) Upsert(_ context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for id, existing := range m.s.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	m.s.users[user.ID] = clone(*user)
	return nil
}

type memoryEnrollments struct{ s *MemoryStore }

func (m memoryEnrollments) Create(_ context.Context, enrollment *models.Enrollment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.enrollments[enrollment.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.s.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.CourseID == enrollment.CourseID {
			return ErrDuplicate
		}
	}

	m.s.enrollments[enrollment.ID] = clone(*enrollment)
	return nil
}

func (m memoryEnrollments) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	enrollment, ok := m.s.enrollments[id]
	if !ok {
		return nil, nil
	}
	e := clone(enrollment)
	return &e, nil
}

func (m memoryEnrollments) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*models.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, enrollment := range m.s.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			e := clone(enrollment)
			return &e, nil
		}
	}
	return nil, nil
}

func (m memoryEnrollments) ListByStudent(_ context.Context, studentID string) ([]models.Enrollment, error) {
	return m.filter(func(e models.Enrollment) bool { return e.StudentID == studentID }, true), nil
}

func (m memoryEnrollments) ListByCourse(_ context.Context, courseID string) ([]models.Enrollment, error) {
	return m.filter(func(e models.Enrollment) bool { return e.CourseID == courseID }, false), nil
}

func (m memoryEnrollments) filter(keep func(models.Enrollment) bool, newestFirst bool) []models.Enrollment {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := []models.Enrollment{}
	for _, enrollment := range m.s.enrollments {
		if keep(enrollment) {
			out = append(out, clone(enrollment))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m memoryEnrollments) Update(_ context.Context, id string, fn UpdateFunc) (*models.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.enrollments[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	working := clone(stored)
	if err := fn(&working); err != nil {
		return nil, err
	}

	m.s.enrollments[id] = clone(working)
	return &working, nil
}
