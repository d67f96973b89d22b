package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
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

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// respondError maps service errors onto status codes by their base kind.
func respondError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return conflict(c, err.Error())
	default:
		ctx := c.Context()
		slog.ErrorContext(ctx, "request failed",
			"request_id", reqctx.RequestIDFromContext(ctx),
			"method", c.Method(),
			"path", c.Path(),
			"err", err,
		)
		return internalError(c)
	}
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// optionalDay parses a query date; an empty value yields nil.
func optionalDay(raw string) (*domain.Day, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDay(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type pageQuery struct {
	Page    int    `query:"page"`
	PerPage int    `query:"per_page"`
	Search  string `query:"search"`
}
