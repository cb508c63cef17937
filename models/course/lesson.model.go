package course

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ContentVideo = "video"
	ContentText  = "text"
	ContentQuiz  = "quiz"
)

// Lesson is the atomic content unit of a module
type Lesson struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ModuleID    uint           `json:"module_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"size:255"`
	Position    int            `json:"position" gorm:"default:0"` // order within module
	ContentType string         `json:"content_type" gorm:"size:16;default:'text'"` // video, text, quiz
	Payload     datatypes.JSON `json:"payload"`                                 // content payload reference (video url, body, quiz id)
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsValidContentType reports whether kind is a supported lesson content type.
func IsValidContentType(kind string) bool {
	switch kind {
	case ContentVideo, ContentText, ContentQuiz:
		return true
	}
	return false
}
