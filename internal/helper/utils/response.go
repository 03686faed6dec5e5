package utils

import (
	"errors"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}

// ResponseMessage writes the {message, data} envelope used by review actions.
func ResponseMessage(ctx *fiber.Ctx, status int, msg string, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"message": msg, "data": data})
}

// StatusOf maps an error category to its HTTP status.
func StatusOf(err error) int {
	switch apperr.CategoryOf(err) {
	case apperr.CategoryValidation:
		return fiber.StatusBadRequest
	case apperr.CategoryAuthentication:
		return fiber.StatusUnauthorized
	case apperr.CategoryAuthorization:
		return fiber.StatusForbidden
	case apperr.CategoryNotFound:
		return fiber.StatusNotFound
	case apperr.CategoryConflict, apperr.CategoryNoPendingChange:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ResponseAppError writes err with the status of its category. Anything
// uncategorized, database and upstream failures included, becomes a generic 500.
func ResponseAppError(ctx *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logrus.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
		return ResponseError(ctx, fiber.StatusInternalServerError, "internal server error")
	}

	status := StatusOf(err)
	body := fiber.Map{"code": ae.Code}
	switch ae.Category {
	case apperr.CategoryNoPendingChange:
		body["error"] = apperr.ErrNoPendingChange.Error()
	case apperr.CategoryDatabase, apperr.CategoryUpstream:
		logrus.WithFields(ae.LogFields()).WithField("path", ctx.Path()).Error("request failed")
		body["error"] = "internal server error"
	default:
		if status == fiber.StatusInternalServerError {
			body["error"] = "internal server error"
		} else {
			body["error"] = ae.Message
		}
	}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	return ctx.Status(status).JSON(body)
}

// ErrorHandler is the fiber error handler; fiber errors keep their status.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ResponseError(ctx, fe.Code, fe.Message)
	}
	return ResponseAppError(ctx, err)
}
