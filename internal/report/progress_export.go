// Package report renders course progress into spreadsheet exports.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

const (
	SheetName   = "Progress"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var baseHeaders = []string{
	"Enrollment ID",
	"Student ID",
	"Student Name",
	"Email",
	"Status",
	"Session Type",
	"Completion %",
	"Time Spent (s)",
	"Completed Sections",
	"Total Sections",
	"Certification Eligible",
	"Enrolled At",
	"Last Activity",
}

type quizColumn struct {
	sectionID string
	quizID    string
	title     string
}

// CourseProgress renders one row per enrollment with one extra column per
// course quiz holding the student's best score.
func CourseProgress(course *models.Course, enrollments []models.Enrollment, students map[string]*models.User) (*models.ProgressExport, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	quizzes := courseQuizzes(course)

	header := make([]any, 0, len(baseHeaders)+len(quizzes))
	for _, h := range baseHeaders {
		header = append(header, h)
	}
	for _, q := range quizzes {
		header = append(header, "Best: "+q.title)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	total := course.TotalSections()
	for i, e := range enrollments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		row := enrollmentRow(e, students[e.StudentID], total, quizzes)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row for enrollment %s: %w", e.ID, err)
		}
	}

	err = f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	return &models.ProgressExport{
		FileName:    fmt.Sprintf("%s-progress.xlsx", course.ID),
		ContentType: ContentType,
		Content:     buf.Bytes(),
	}, nil
}

func courseQuizzes(course *models.Course) []quizColumn {
	var out []quizColumn
	for _, m := range course.Modules {
		for _, s := range m.Sections {
			if s.Quiz == nil {
				continue
			}
			title := s.Quiz.Title
			if title == "" {
				title = s.Quiz.ID
			}
			out = append(out, quizColumn{sectionID: s.ID, quizID: s.Quiz.ID, title: title})
		}
	}
	return out
}

func enrollmentRow(e models.Enrollment, student *models.User, totalSections int, quizzes []quizColumn) []any {
	var name, email string
	if student != nil {
		name, email = student.Name, student.Email
	}

	lastActivity := ""
	if e.Progress.LastActivity != nil {
		lastActivity = e.Progress.LastActivity.UTC().Format(time.RFC3339)
	}

	row := []any{
		e.ID,
		e.StudentID,
		name,
		email,
		string(e.CurrentStatus),
		string(e.EnrolledSessionType),
		e.Progress.CompletionPercentage,
		e.Progress.TimeSpentTotal,
		e.Progress.CompletedSections(),
		totalSections,
		e.Certification.Eligible,
		e.CreatedAt.UTC().Format(time.RFC3339),
		lastActivity,
	}

	for _, q := range quizzes {
		a := e.Progress.Assessment(q.sectionID, q.quizID, models.AssessmentTypeQuiz)
		if a == nil || len(a.Attempts) == 0 {
			row = append(row, "")
			continue
		}
		row = append(row, a.BestScore)
	}

	return row
}
