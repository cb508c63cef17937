package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"lms/engine"
	"lms/logger"
)

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, engine.ErrAccessDenied), errors.Is(err, engine.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, engine.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, engine.ErrValidation):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// EngineError renders err in the response envelope. AccessDenied carries
// enroll_required so the client can show the enrollment prompt.
func EngineError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	switch {
	case status == fiber.StatusInternalServerError:
		logger.Log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return JsonResponse(c, status, false, "Something went wrong!", nil)
	case errors.Is(err, engine.ErrAccessDenied):
		return JsonResponse(c, status, false, err.Error(), fiber.Map{"enroll_required": true})
	}
	return JsonResponse(c, status, false, err.Error(), nil)
}

// ErrorHandler is the fiber.Config error handler. It keeps unhandled errors
// in the same envelope as everything else.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonResponse(c, fe.Code, false, fe.Message, nil)
	}
	return EngineError(c, err)
}
