package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/engine"
	"lms/middleware"
	"lms/services"
	courseValidator "lms/validators/course"
)

func CreateAssignment(c *fiber.Ctx) error {
	lessonID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedAssignment").(*courseValidator.CreateAssignmentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	assignment, err := services.LMS.CreateAssignment(c.UserContext(), middleware.CurrentViewer(c), lessonID, engine.AssignmentInput{
		Title:       reqData.Title,
		Description: reqData.Description,
	})
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Assignment created successfully!", assignment)
}

func GetCourseAssignments(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)

	states, err := services.LMS.AggregateAssignmentState(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignments fetched successfully!", states)
}

func GetLessonAssignments(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonId").(uint)

	states, err := services.LMS.AssignmentsForLesson(c.UserContext(), middleware.CurrentViewer(c), lessonID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignments fetched successfully!", states)
}

func SubmitAssignment(c *fiber.Ctx) error {
	assignmentID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedSubmission").(*courseValidator.SubmitAssignmentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	sub, err := services.LMS.SubmitAssignment(c.UserContext(), middleware.CurrentViewer(c), assignmentID, reqData.Content)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignment submitted successfully!", sub)
}

func GradeSubmission(c *fiber.Ctx) error {
	submissionID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedGrade").(*courseValidator.GradeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	sub, err := services.LMS.GradeSubmission(c.UserContext(), middleware.CurrentViewer(c), submissionID, *reqData.Grade)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission graded successfully!", sub)
}

func GetCourseQuizzes(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)

	states, err := services.LMS.AggregateQuizState(c.UserContext(), middleware.CurrentViewer(c), courseID)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched successfully!", fiber.Map{
		"policy":  services.LMS.QuizPolicy(),
		"quizzes": states,
	})
}

func SubmitQuizAttempt(c *fiber.Ctx) error {
	lessonID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedQuiz").(*courseValidator.QuizAttemptRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	attempt, err := services.LMS.RecordQuizAttempt(c.UserContext(), middleware.CurrentViewer(c), lessonID, *reqData.Score)
	if err != nil {
		return middleware.EngineError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempt recorded!", attempt)
}
