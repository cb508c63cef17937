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

// CreateModule appends a module to a course
func CreateModule(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedModule").(*courseValidator.CreateModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	module, err := services.LMS.CreateModule(c.UserContext(), middleware.CurrentViewer(c), courseID, engine.ModuleInput{
		Title:    reqData.Title,
		Position: reqData.Position,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func CreateLesson(c *fiber.Ctx) error {
	moduleID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.CreateLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson, err := services.LMS.CreateLesson(c.UserContext(), middleware.CurrentViewer(c), moduleID, engine.LessonInput{
		Title:       reqData.Title,
		Position:    reqData.Position,
		ContentType: reqData.ContentType,
		Payload:     reqData.Payload,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// GetLessonDetails returns the lesson with its module siblings and the
// next lesson id.
func GetLessonDetails(c *fiber.Ctx) error {
	lessonID := c.Locals("id").(uint)

	view, err := services.LMS.LessonDetail(c.UserContext(), middleware.CurrentViewer(c), lessonID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", view)
}

func MarkLessonComplete(c *fiber.Ctx) error {
	viewer := middleware.CurrentViewer(c)
	lessonID := c.Locals("id").(uint)

	res, err := services.LMS.MarkLessonComplete(c.UserContext(), viewer, lessonID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	if res.JustCompleted {
		notifyCompletion(viewer.UserID, res.CourseID)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as complete!", res)
}

func notifyCompletion(studentID, courseID uint) {
	db := database.Database.Db
	var u models.User
	var course courseModels.Course
	if err := db.Select("id", "name", "email").First(&u, studentID).Error; err != nil {
		logger.Log.Warn("student not found for notification", "user_id", studentID, "error", err)
		return
	}
	if err := db.Select("id", "title").First(&course, courseID).Error; err != nil {
		logger.Log.Warn("course not found for notification", "course_id", courseID, "error", err)
		return
	}
	go utils.SendCourseCompletedEmail(services.Mailer, u.Email, u.Name, course.Title)
}

func GetCourseProgress(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	report, err := services.LMS.Progress(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", report)
}

// GetResumeLesson returns the first lesson still to do, or null when the
// course is finished.
func GetResumeLesson(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)

	lesson, err := services.LMS.ResumeLesson(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resume point fetched successfully!", fiber.Map{
		"lesson": lesson,
	})
}
