package controller

import (
	"botsy-widget-be/internal/dto"
	"botsy-widget-be/internal/pkg/serverutils"
	"botsy-widget-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IWidgetController interface {
	RegisterRoutes(r fiber.Router)
	GetConfig(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	RequestEmailSummary(ctx *fiber.Ctx) error
}

// widgetController serves the embedded widget. No auth; tenant id comes from
// the embed snippet and every query is scoped by it.
type widgetController struct {
	service service.IWidgetService
}

func NewWidgetController(service service.IWidgetService) IWidgetController {
	return &widgetController{service: service}
}

func (c *widgetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/widget/v1")
	h.Get("config/:tenantId", c.GetConfig)
	h.Post("chat", c.SendChat)
	h.Get("history/:tenantId/:sessionId", c.GetHistory)
	h.Post("summary", c.RequestEmailSummary)
}

func (c *widgetController) GetConfig(ctx *fiber.Ctx) error {
	tenantId, err := uuid.Parse(ctx.Params("tenantId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tenant id")
	}

	res, err := c.service.GetConfig(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get widget config", res))
}

func (c *widgetController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendWidgetChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *widgetController) GetHistory(ctx *fiber.Ctx) error {
	tenantId, err := uuid.Parse(ctx.Params("tenantId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tenant id")
	}
	sessionId := ctx.Params("sessionId")
	if sessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing session id")
	}

	res, err := c.service.GetHistory(ctx.Context(), tenantId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *widgetController) RequestEmailSummary(ctx *fiber.Ctx) error {
	var req dto.EmailSummaryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.RequestEmailSummary(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Summary queued", nil))
}
