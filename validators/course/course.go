package courseValidator

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"lms/validators"
)

type CatalogQuery struct {
	Search   string `query:"search" validate:"max=100"`
	Category string `query:"category" validate:"max=100"`
	Sort     string `query:"sort" validate:"omitempty,oneof=newest title"`
	Status   string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Scope    string `query:"scope" validate:"omitempty,oneof=catalog all"`
	Page     int    `query:"page" validate:"min=0"`
	Limit    int    `query:"limit" validate:"min=0,max=100"`
}

type CreateCourseRequest struct {
	Title        string `json:"title" validate:"required,notblank,min=3,max=255"`
	Description  string `json:"description" validate:"max=5000"`
	Category     string `json:"category" validate:"max=100"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

// UpdateCourseRequest serves both the owner edit and the admin reject,
// which the admin panel sends as status=rejected with a reason.
type UpdateCourseRequest struct {
	Title           *string `json:"title" validate:"omitempty,notblank,min=3,max=255"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	ThumbnailURL    *string `json:"thumbnail_url" validate:"omitempty,url"`
	Status          *string `json:"status" validate:"omitempty,oneof=rejected"`
	RejectionReason *string `json:"rejection_reason"`
}

type CreateModuleRequest struct {
	Title    string `json:"title" validate:"required,notblank,max=255"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

type CreateLessonRequest struct {
	Title       string         `json:"title" validate:"required,notblank,max=255"`
	Position    *int           `json:"position" validate:"omitempty,min=0"`
	ContentType string         `json:"content_type" validate:"omitempty,oneof=video text quiz"`
	Payload     datatypes.JSON `json:"payload"`
}

type CreateAssignmentRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

type SubmitAssignmentRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

type GradeRequest struct {
	Grade *float64 `json:"grade" validate:"required,min=0,max=100"`
}

type QuizAttemptRequest struct {
	Score *float64 `json:"score" validate:"required,min=0,max=100"`
}

func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Query(c, new(CatalogQuery), "validatedList")
	}
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(CreateCourseRequest), "validatedCourse")
	}
}

func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(UpdateCourseRequest), "validatedCourse")
	}
}

func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(CreateModuleRequest), "validatedModule")
	}
}

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(CreateLessonRequest), "validatedLesson")
	}
}

func CreateAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(CreateAssignmentRequest), "validatedAssignment")
	}
}

func SubmitAssignment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(SubmitAssignmentRequest), "validatedSubmission")
	}
}

func GradeSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(GradeRequest), "validatedGrade")
	}
}

func QuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(QuizAttemptRequest), "validatedQuiz")
	}
}
