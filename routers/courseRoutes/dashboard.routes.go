package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
)

func SetupDashboardRoutes(app *fiber.App) {
	dashboardGroup := app.Group("/dashboard", middleware.JWTMiddleware)

	dashboardGroup.Get("/student", students, controllers.StudentDashboard)
	dashboardGroup.Get("/instructor", authors, controllers.InstructorDashboard)
	dashboardGroup.Get("/admin", admins, controllers.AdminDashboardStats)
}
