package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Status maps an error kind onto an HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindReference:
		return fiber.StatusBadRequest
	case KindInsufficientStock, KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Body renders err as the JSON body sent to clients. Store failures never
// leak their cause.
func Body(err error) fiber.Map {
	body := fiber.Map{"error": err.Error()}
	kind := KindOf(err)
	if kind != "" {
		body["kind"] = kind
	}

	var (
		ve *ValidationError
		re *ReferenceError
		ie *InsufficientStockError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		if ve.Field != "" {
			body["field"] = ve.Field
		}
	case errors.As(err, &re):
		body["entity"] = re.Entity
		body["id"] = re.ID
	case errors.As(err, &ie):
		body["itemId"] = ie.ItemID
		body["inventoryBatchId"] = ie.BatchID
		body["batch"] = ie.BatchNumber
		body["requested"] = ie.Requested
		body["available"] = ie.Available
	case errors.As(err, &ce):
		if ce.ItemID != 0 {
			body["itemId"] = ce.ItemID
		}
		if ce.BatchID != 0 {
			body["inventoryBatchId"] = ce.BatchID
		}
	case kind == KindStore:
		body["error"] = "Server error"
	}
	return body
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := KindOf(err)
		if kind == "" || kind == KindStore {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("requestid")),
				zap.Error(err))
			if kind == "" {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong!"})
			}
		}
		return c.Status(Status(kind)).JSON(Body(err))
	}
}
