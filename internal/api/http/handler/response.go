package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
)

// Successful bodies are {"data": ...}; failures are {"error": apiError}.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	codeInvalidRequest   = "invalid_request"
	codeUnauthenticated  = "unauthenticated"
	codeNotFound         = "not_found"
	codeCapacityExceeded = "capacity_exceeded"
	codeInternal         = "internal"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func fail(c fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": apiError{
		Code:      code,
		Message:   msg,
		RequestID: reqctx.RequestIDFromContext(c.Context()),
	}})
}

func badRequest(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, codeInvalidRequest, msg)
}

func unauthorized(c fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, codeUnauthenticated, "a valid access token is required")
}

func notFound(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusNotFound, codeNotFound, msg)
}

func capacityExceeded(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusConflict, codeCapacityExceeded, msg)
}

// internalError hides the cause; it is logged by the caller.
func internalError(c fiber.Ctx) error {
	return fail(c, fiber.StatusInternalServerError, codeInternal, "something went wrong, please try again")
}
