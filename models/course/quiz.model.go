package course

import "time"

// QuizAttempt holds a student's result on a quiz lesson. One row per
// (lesson, student); the stored score follows the configured retake policy.
type QuizAttempt struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	LessonID      uint      `json:"lesson_id" gorm:"uniqueIndex:idx_quiz_lesson_student;not null"`
	StudentID     uint      `json:"student_id" gorm:"uniqueIndex:idx_quiz_lesson_student;index;not null"`
	Score         *float64  `json:"score"`
	AttemptNumber int       `json:"attempt_number" gorm:"default:0"`
	LastScore     *float64  `json:"last_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
