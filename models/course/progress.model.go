package course

import "time"

// LessonProgress is one student's completion mark for one lesson
type LessonProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	StudentID   uint       `json:"student_id" gorm:"uniqueIndex:idx_progress_student_lesson;not null"`
	LessonID    uint       `json:"lesson_id" gorm:"uniqueIndex:idx_progress_student_lesson;index;not null"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
