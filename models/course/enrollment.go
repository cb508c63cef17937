package course

import "time"

// Enrollment binds a student to a course. CompletedAt is set once every
// lesson of the course has been completed by the student.
type Enrollment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	StudentID   uint       `json:"student_id" gorm:"uniqueIndex:idx_enrollment_student_course;not null"`
	CourseID    uint       `json:"course_id" gorm:"uniqueIndex:idx_enrollment_student_course;index;not null"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}
