package course

import "time"

// Assignment represents a gradable task attached to a lesson
type Assignment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LessonID    uint      `json:"lesson_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is a student's attempt at an assignment. A resubmission
// overwrites the previous one.
type Submission struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	AssignmentID uint       `json:"assignment_id" gorm:"uniqueIndex:idx_submission_assignment_student;not null"`
	StudentID    uint       `json:"student_id" gorm:"uniqueIndex:idx_submission_assignment_student;index;not null"`
	Content      string     `json:"content" gorm:"type:text"`
	Grade        *float64   `json:"grade"`
	GradedAt     *time.Time `json:"graded_at"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsGraded reports whether the submission has a grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}
