package course

import "time"

// Module represents an ordered section within a course
type Module struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"course_id" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	Position  int       `json:"position" gorm:"default:0"` // module order in course
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}
