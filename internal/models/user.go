package models

import (
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is a directory entry. Role-specific details sit in the field matching
// Role; the others stay nil.
type User struct {
	ID        string          `json:"id" yaml:"id" db:"id"`
	Name      string          `json:"name" yaml:"name" db:"name"`
	Email     string          `json:"email" yaml:"email" db:"email"`
	Role      Role            `json:"role" yaml:"role" db:"role"`
	Student   *StudentDetails `json:"student,omitempty" yaml:"student"`
	Tutor     *TutorDetails   `json:"tutor,omitempty" yaml:"tutor"`
	CreatedAt time.Time       `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"-" db:"updated_at"`
}

type StudentDetails struct {
	GradeLevel string `json:"grade_level,omitempty" yaml:"grade_level"`
}

type TutorDetails struct {
	Subjects []string `json:"subjects,omitempty" yaml:"subjects"`
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// Identity is the authenticated caller as established by the auth middleware.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsStaff() bool { return i.Role == RoleTutor || i.Role == RoleAdmin }
