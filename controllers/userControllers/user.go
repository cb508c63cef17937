package userController

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services"
	userValidator "lms/validators/userValidator"
)

// ListUsers returns registered users for the admin panel
func ListUsers(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUserList").(*userValidator.UserListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	users, err := services.LMS.ListUsers(c.UserContext(), middleware.CurrentViewer(c), reqData.Role)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", users)
}

// DeleteUser removes a non-admin account together with its courses,
// enrollments and progress.
func DeleteUser(c *fiber.Ctx) error {
	userID := c.Locals("id").(uint)

	if err := services.LMS.DeleteUser(c.UserContext(), middleware.CurrentViewer(c), userID); err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User deleted successfully!", nil)
}
