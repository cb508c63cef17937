package course

import "time"

// Moderation statuses. A course starts pending and only the moderation
// operations in package engine move it.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Course represents a learning course
type Course struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	InstructorID    uint      `json:"instructor_id" gorm:"index;not null"`
	Category        string    `json:"category" gorm:"size:100;index"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	Status          string    `json:"status" gorm:"size:16;index;default:'pending'"` // pending, approved, rejected
	IsPublished     bool      `json:"is_published" gorm:"default:false"`
	RejectionReason string    `json:"rejection_reason" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

// IsCatalogVisible reports whether the course may appear in the public catalog.
func (c Course) IsCatalogVisible() bool {
	return c.Status == StatusApproved && c.IsPublished
}
