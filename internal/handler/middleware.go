package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const wsRequestKey = "ws_request"

var validate = validator.New()

func HandleWithFiber[R Request, Res Response](handler FiberHandler[R, Res]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R

		if err := parseRequest(c, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
		}

		ctx := c.UserContext()
		res, status, err := handler.Handle(c, ctx, &req)

		if err != nil {
			zap.L().Error("Failed to handle request", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(status).JSON(res)
	}
}

func parseRequest[R any](c *fiber.Ctx, req *R) error {
	if err := c.BodyParser(req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return err
	}

	if err := c.ParamsParser(req); err != nil {
		return err
	}

	if err := c.QueryParser(req); err != nil {
		return err
	}

	if err := c.ReqHeaderParser(req); err != nil {
		return err
	}

	return nil
}

// HandleWithFiberWS parses and validates the request before the upgrade so
// a bad request is answered with plain HTTP.
func HandleWithFiberWS[R Request](handler FiberWSHandler[R]) fiber.Handler {
	upgrade := websocket.New(func(c *websocket.Conn) {
		req, ok := c.Locals(wsRequestKey).(*R)
		if !ok {
			req = new(R)
		}
		handler.HandleWS(c, context.Background(), req)
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		var req R
		if err := parseRequest(c, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
		}

		c.Locals(wsRequestKey, &req)
		return upgrade(c)
	}
}
