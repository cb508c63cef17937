package userRoutes

import (
	"github.com/gofiber/fiber/v2"

	userController "lms/controllers/userControllers"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	userValidator "lms/validators/userValidator"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/users", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))

	userGroup.Get("/", userValidator.UserList(), userController.ListUsers)
	userGroup.Delete("/:id", validators.ID("id"), userController.DeleteUser)
}
