package models

import (
	"time"
)

type Course struct {
	ID          string    `json:"id" yaml:"id" db:"id"`
	Title       string    `json:"title" yaml:"title" db:"title"`
	Description string    `json:"description,omitempty" yaml:"description" db:"description"`
	Modules     []Module  `json:"modules" yaml:"modules" db:"modules"`
	CreatedAt   time.Time `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

type Module struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Order    int       `json:"order" yaml:"order"`
	Sections []Section `json:"sections" yaml:"sections"`
}

type Section struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Order int    `json:"order" yaml:"order"`
	Quiz  *Quiz  `json:"quiz,omitempty" yaml:"quiz"`
}

type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

type Question struct {
	Prompt         string   `json:"prompt" yaml:"prompt"`
	Options        []string `json:"options,omitempty" yaml:"options"`
	CorrectAnswers []string `json:"correctAnswers" yaml:"correct_answers"`
}

func (c *Course) Module(moduleID string) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == moduleID {
			return &c.Modules[i]
		}
	}
	return nil
}

func (m *Module) Section(sectionID string) *Section {
	for i := range m.Sections {
		if m.Sections[i].ID == sectionID {
			return &m.Sections[i]
		}
	}
	return nil
}

// TotalSections sums the sections defined on every module of the course.
func (c *Course) TotalSections() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Sections)
	}
	return total
}
