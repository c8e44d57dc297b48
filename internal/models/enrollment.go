package models

import (
	"encoding/json"
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentStatusInProgress EnrollmentStatus = "in_progress"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
	EnrollmentStatusDropped    EnrollmentStatus = "dropped"
	EnrollmentStatusSuspended  EnrollmentStatus = "suspended"
)

func (s EnrollmentStatus) String() string {
	return string(s)
}

func IsValidEnrollmentStatus(status string) bool {
	switch EnrollmentStatus(status) {
	case EnrollmentStatusEnrolled, EnrollmentStatusInProgress, EnrollmentStatusCompleted,
		EnrollmentStatusDropped, EnrollmentStatusSuspended:
		return true
	default:
		return false
	}
}

type SessionType string

const (
	SessionTypeOnline   SessionType = "online"
	SessionTypeGroup    SessionType = "group"
	SessionTypeOneOnOne SessionType = "oneOnOne"
)

func IsValidSessionType(sessionType string) bool {
	switch SessionType(sessionType) {
	case SessionTypeOnline, SessionTypeGroup, SessionTypeOneOnOne:
		return true
	default:
		return false
	}
}

type ModuleStatus string

const (
	ModuleStatusNotStarted ModuleStatus = "not_started"
	ModuleStatusStarted    ModuleStatus = "started"
	ModuleStatusCompleted  ModuleStatus = "completed"
)

type SectionStatus string

const (
	SectionStatusNotStarted SectionStatus = "not_started"
	SectionStatusInProgress SectionStatus = "in_progress"
	SectionStatusCompleted  SectionStatus = "completed"
)

func IsValidSectionStatus(status string) bool {
	switch SectionStatus(status) {
	case SectionStatusNotStarted, SectionStatusInProgress, SectionStatusCompleted:
		return true
	default:
		return false
	}
}

type AssessmentType string

const (
	AssessmentTypeQuiz       AssessmentType = "quiz"
	AssessmentTypeAssignment AssessmentType = "assignment"
	AssessmentTypeExam       AssessmentType = "exam"
)

// Enrollment binds one student to one course. Progress, certification and
// payment live inside the record and are persisted as a single document.
type Enrollment struct {
	ID                  string           `json:"id" db:"id"`
	StudentID           string           `json:"student" db:"student_id"`
	CourseID            string           `json:"course" db:"course_id"`
	EnrolledSessionType SessionType      `json:"enrolledSessionType" db:"enrolled_session_type"`
	CurrentStatus       EnrollmentStatus `json:"currentStatus" db:"current_status"`
	StatusHistory       []StatusChange   `json:"statusHistory" db:"status_history"`
	Progress            Progress         `json:"progress" db:"progress"`
	Certification       Certification    `json:"certification" db:"certification"`
	Payment             json.RawMessage  `json:"payment,omitempty" db:"payment"`
	CreatedAt           time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time        `json:"updatedAt" db:"updated_at"`

	// Course is populated on reads that need the section shape.
	Course *Course `json:"courseDetails,omitempty" db:"-"`
}

type StatusChange struct {
	Status    EnrollmentStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	ChangedBy string           `json:"changedBy"`
	Reason    string           `json:"reason,omitempty"`
}

type Progress struct {
	Modules              []ModuleProgress     `json:"modules"`
	Assessments          []AssessmentProgress `json:"assessments"`
	CompletionPercentage int                  `json:"completionPercentage"`
	LastActivity         *time.Time           `json:"lastActivity,omitempty"`
	TimeSpentTotal       int                  `json:"timeSpentTotal"`
	CurrentModule        string               `json:"currentModule,omitempty"`
	CurrentSection       string               `json:"currentSection,omitempty"`
}

type ModuleProgress struct {
	ModuleID     string            `json:"moduleId"`
	Status       ModuleStatus      `json:"status"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	LastAccessed *time.Time        `json:"lastAccessed,omitempty"`
	TimeSpent    int               `json:"timeSpent"`
	Sections     []SectionProgress `json:"sections"`
}

type SectionProgress struct {
	SectionID    string        `json:"sectionId"`
	Status       SectionStatus `json:"status"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	LastAccessed *time.Time    `json:"lastAccessed,omitempty"`
	TimeSpent    int           `json:"timeSpent"`
	Notes        []Note        `json:"notes"`
}

type Note struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type AssessmentProgress struct {
	AssessmentID   string         `json:"assessmentId"`
	AssessmentType AssessmentType `json:"assessmentType"`
	SectionID      string         `json:"sectionId"`
	Attempts       []Attempt      `json:"attempts"`
	BestScore      int            `json:"bestScore"`
	Passed         bool           `json:"passed"`
	Required       bool           `json:"required"`
}

type Attempt struct {
	AttemptNumber int              `json:"attemptNumber"`
	StartedAt     time.Time        `json:"startedAt"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	Score         int              `json:"score"`
	PassingScore  int              `json:"passingScore"`
	Passed        bool             `json:"passed"`
	Answers       []QuestionResult `json:"answers"`
}

// QuestionResult is the per-question breakdown stored on an attempt.
type QuestionResult struct {
	QuestionIndex int      `json:"questionIndex"`
	Selected      []string `json:"selected"`
	Correct       bool     `json:"correct"`
}

type Certification struct {
	Eligible       bool       `json:"eligible"`
	Issued         bool       `json:"issued"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty"`
	CertificateID  string     `json:"certificateId,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// Module returns the progress entry for moduleID, or nil.
func (p *Progress) Module(moduleID string) *ModuleProgress {
	for i := range p.Modules {
		if p.Modules[i].ModuleID == moduleID {
			return &p.Modules[i]
		}
	}
	return nil
}

// Section returns the progress entry for sectionID, or nil.
func (m *ModuleProgress) Section(sectionID string) *SectionProgress {
	for i := range m.Sections {
		if m.Sections[i].SectionID == sectionID {
			return &m.Sections[i]
		}
	}
	return nil
}

// Assessment returns the entry for one assessment of a section, or nil.
func (p *Progress) Assessment(sectionID, assessmentID string, assessmentType AssessmentType) *AssessmentProgress {
	for i := range p.Assessments {
		a := &p.Assessments[i]
		if a.SectionID == sectionID && a.AssessmentID == assessmentID && a.AssessmentType == assessmentType {
			return &p.Assessments[i]
		}
	}
	return nil
}

// CompletedSections counts completed section entries across all modules,
// including entries whose section no longer exists in the course.
func (p *Progress) CompletedSections() int {
	count := 0
	for _, m := range p.Modules {
		for _, s := range m.Sections {
			if s.Status == SectionStatusCompleted {
				count++
			}
		}
	}
	return count
}

func (p *Progress) CompletedModules() int {
	count := 0
	for _, m := range p.Modules {
		if m.Status == ModuleStatusCompleted {
			count++
		}
	}
	return count
}
