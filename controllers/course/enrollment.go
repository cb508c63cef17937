package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services"
)

func EnrollInCourse(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	enrollment, created, err := services.LMS.Enroll(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	if !created {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Already enrolled in this course.", enrollment)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

func GetMyEnrollments(c *fiber.Ctx) error {
	enrollments, err := services.LMS.MyEnrollments(c.UserContext(), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

// CheckEnrollment answers the access gate for the course detail page.
func CheckEnrollment(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)

	vis, err := services.LMS.CanView(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment status fetched.", fiber.Map{
		"enrolled":        vis.Enrolled,
		"catalog_visible": vis.CatalogVisible,
		"content_visible": vis.ContentVisible,
	})
}
