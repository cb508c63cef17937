package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/validators"
	courseValidator "lms/validators/course"
)

// SetupContentRoutes sets up lesson, assignment and quiz routes
func SetupContentRoutes(app *fiber.App) {
	app.Post("/modules/:id/lessons", validators.ID("id"), middleware.JWTMiddleware, authors, courseValidator.CreateLesson(), controllers.CreateLesson)

	lessonGroup := app.Group("/lessons", middleware.JWTMiddleware)
	lessonGroup.Get("/:id", validators.ID("id"), controllers.GetLessonDetails)
	lessonGroup.Post("/:id/complete", validators.ID("id"), controllers.MarkLessonComplete)
	lessonGroup.Post("/:id/assignments", validators.ID("id"), authors, courseValidator.CreateAssignment(), controllers.CreateAssignment)
	lessonGroup.Post("/:id/quiz", validators.ID("id"), students, courseValidator.QuizAttempt(), controllers.SubmitQuizAttempt)

	assignmentGroup := app.Group("/assignments", middleware.JWTMiddleware)
	assignmentGroup.Get("/course/:courseId", validators.ID("courseId"), controllers.GetCourseAssignments)
	assignmentGroup.Get("/lesson/:lessonId", validators.ID("lessonId"), controllers.GetLessonAssignments)
	assignmentGroup.Post("/:id/submit", validators.ID("id"), students, courseValidator.SubmitAssignment(), controllers.SubmitAssignment)

	app.Put("/submissions/:id/grade", validators.ID("id"), middleware.JWTMiddleware, authors, courseValidator.GradeSubmission(), controllers.GradeSubmission)

	app.Get("/quizzes/course/:courseId", validators.ID("courseId"), middleware.JWTMiddleware, controllers.GetCourseQuizzes)
}
