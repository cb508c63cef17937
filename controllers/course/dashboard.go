package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services"
)

func StudentDashboard(c *fiber.Ctx) error {
	d, err := services.LMS.StudentDashboard(c.UserContext(), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", d)
}

func InstructorDashboard(c *fiber.Ctx) error {
	d, err := services.LMS.InstructorDashboard(c.UserContext(), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", d)
}

// AdminDashboardStats returns platform counts for the admin panel
func AdminDashboardStats(c *fiber.Ctx) error {
	d, err := services.LMS.AdminDashboard(c.UserContext(), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", d)
}
