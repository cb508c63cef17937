package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/database"
	"lms/engine"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"
	courseValidator "lms/validators/course"
)

// GetAllCourses lists the public catalog. Admins can ask for every course
// with scope=all or a status filter.
func GetAllCourses(c *fiber.Ctx) error {
	viewer := middleware.CurrentViewer(c)
	reqData, ok := c.Locals("validatedList").(*courseValidator.CatalogQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if viewer.IsAdmin() && (reqData.Scope == "all" || reqData.Status != "") {
		courses, err := services.LMS.ListCourses(c.UserContext(), viewer, reqData.Status)
		if err != nil {
			return middleware.EngineError(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
			"courses": courses,
		})
	}

	page, err := services.LMS.ListCatalog(c.UserContext(), engine.CatalogQuery{
		Search:   reqData.Search,
		Category: reqData.Category,
		Sort:     reqData.Sort,
		Page:     reqData.Page,
		Limit:    reqData.Limit,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": page.Items,
		"pagination": fiber.Map{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

// GetCourseDetails returns the course outline and the viewer's access flags.
func GetCourseDetails(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	course, vis, err := services.LMS.GetCourse(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course": course,
		"access": vis,
	})
}

func CreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := services.LMS.CreateCourse(c.UserContext(), middleware.CurrentViewer(c), engine.CourseInput{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		ThumbnailURL: reqData.ThumbnailURL,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course submitted for review!", course)
}

// UpdateCourse handles PATCH /courses/:id. status=rejected is the admin
// rejection; any other body is an edit by the owner.
func UpdateCourse(c *fiber.Ctx) error {
	viewer := middleware.CurrentViewer(c)
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.UpdateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Status != nil && *reqData.Status == courseModels.StatusRejected {
		reason := ""
		if reqData.RejectionReason != nil {
			reason = *reqData.RejectionReason
		}
		course, err := services.LMS.Reject(c.UserContext(), viewer, courseID, reason)
		if err != nil {
			return middleware.EngineError(c, err)
		}
		notifyInstructor(course, func(u models.User) {
			utils.SendCourseRejectedEmail(services.Mailer, u.Email, u.Name, course.Title, course.RejectionReason)
		})
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Course rejected!", course)
	}

	course, err := services.LMS.UpdateCourse(c.UserContext(), viewer, courseID, engine.CoursePatch{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		ThumbnailURL: reqData.ThumbnailURL,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func ApproveCourse(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	course, err := services.LMS.Approve(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	notifyInstructor(course, func(u models.User) {
		utils.SendCourseApprovedEmail(services.Mailer, u.Email, u.Name, course.Title)
	})
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course approved!", course)
}

func DeleteCourse(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	if err := services.LMS.DeleteCourse(c.UserContext(), middleware.CurrentViewer(c), courseID); err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// notifyInstructor loads the course owner and mails them in the background.
func notifyInstructor(course *courseModels.Course, send func(models.User)) {
	var u models.User
	if err := database.Database.Db.Select("id", "name", "email").First(&u, course.InstructorID).Error; err != nil {
		logger.Log.Warn("instructor not found for notification", "course_id", course.ID, "error", err)
		return
	}
	go send(u)
}
