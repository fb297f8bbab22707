// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/ranging"
)

// handleHealthcheck reports liveness.
func (s *Server) handleHealthcheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleLocalize runs one localization request.
func (s *Server) handleLocalize(c *fiber.Ctx) error {
	var body LocalizationRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return reply(c, fiber.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
	}

	req, err := body.ToRequest(s.now())
	switch {
	case errors.Is(err, ErrBadRequest):
		return reply(c, fiber.StatusBadRequest, err.Error(), nil)
	case err != nil:
		return err
	}

	loc, err := s.localizer.Localize(c.UserContext(), req)
	switch {
	case errors.Is(err, ranging.ErrConfiguration):
		return reply(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
	case err != nil:
		return err
	}

	return reply(c, fiber.StatusOK, "Location estimated successfully", NewResponseData(loc))
}

func reply(c *fiber.Ctx, code int, message string, data *ResponseData) error {
	return c.Status(code).JSON(LocalizationResponse{Code: code, Message: message, Data: data})
}
