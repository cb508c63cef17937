package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	courseValidator "lms/validators/course"
)

var (
	authors  = middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	admins   = middleware.RequireRoles(models.RoleAdmin)
	students = middleware.RequireRoles(models.RoleStudent)
)

// SetupCourseRoutes sets up catalog, moderation and enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	// Catalog browsing works without a token
	courseGroup.Get("/", middleware.OptionalJWT, courseValidator.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", validators.ID("id"), middleware.OptionalJWT, controllers.GetCourseDetails)

	// Authoring and moderation
	courseGroup.Post("/", middleware.JWTMiddleware, authors, courseValidator.CreateCourse(), controllers.CreateCourse)
	courseGroup.Patch("/:id", validators.ID("id"), middleware.JWTMiddleware, authors, courseValidator.UpdateCourse(), controllers.UpdateCourse)
	courseGroup.Put("/:id/approve", validators.ID("id"), middleware.JWTMiddleware, admins, controllers.ApproveCourse)
	courseGroup.Delete("/:id", validators.ID("id"), middleware.JWTMiddleware, admins, controllers.DeleteCourse)
	courseGroup.Post("/:id/modules", validators.ID("id"), middleware.JWTMiddleware, authors, courseValidator.CreateModule(), controllers.CreateModule)

	// Enrollment and progress
	courseGroup.Post("/:id/enroll", validators.ID("id"), middleware.JWTMiddleware, students, controllers.EnrollInCourse)
	courseGroup.Get("/:id/progress", validators.ID("id"), middleware.JWTMiddleware, controllers.GetCourseProgress)
	courseGroup.Get("/:id/resume", validators.ID("id"), middleware.JWTMiddleware, students, controllers.GetResumeLesson)

	enrollGroup := app.Group("/enrollments", middleware.JWTMiddleware)
	enrollGroup.Get("/mine", students, controllers.GetMyEnrollments)
	enrollGroup.Get("/check/:courseId", validators.ID("courseId"), controllers.CheckEnrollment)
}
