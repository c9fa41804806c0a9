package controller

import (
	fiberws "github.com/gofiber/websocket/v2"

	"botsy-widget-be/internal/dto"
	"botsy-widget-be/internal/pkg/serverutils"
	"botsy-widget-be/internal/service"
	"botsy-widget-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Reply(ctx *fiber.Ctx) error
	Release(ctx *fiber.Ctx) error
	LiveSessions(ctx *fiber.Ctx) error
}

type agentController struct {
	service service.IAgentService
	hub     *websocket.Hub
}

func NewAgentController(service service.IAgentService, hub *websocket.Hub) IAgentController {
	return &agentController{service: service, hub: hub}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED
	h.Post("reply", c.Reply)
	h.Post("release", c.Release)
	h.Get("live", c.LiveSessions)

	// Live feed upgrade. The JWT middleware has already stashed tenant_id.
	h.Get("feed", fiberws.New(func(conn *fiberws.Conn) {
		tenantId, _ := conn.Locals("tenant_id").(string)
		if tenantId == "" {
			conn.Close()
			return
		}
		websocket.ServeWs(c.hub, conn, tenantId)
	}))
}

func tenantFromLocals(ctx *fiber.Ctx) (uuid.UUID, error) {
	tenantIdStr, _ := ctx.Locals("tenant_id").(string)
	tenantId, err := uuid.Parse(tenantIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid tenant claim")
	}
	return tenantId, nil
}

func (c *agentController) Reply(ctx *fiber.Ctx) error {
	tenantId, err := tenantFromLocals(ctx)
	if err != nil {
		return err
	}

	var req dto.AgentReplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.TenantId = tenantId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Reply(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send reply", res))
}

func (c *agentController) Release(ctx *fiber.Ctx) error {
	tenantId, err := tenantFromLocals(ctx)
	if err != nil {
		return err
	}

	var req dto.ReleaseConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.TenantId = tenantId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Release(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Conversation released", nil))
}

func (c *agentController) LiveSessions(ctx *fiber.Ctx) error {
	tenantId, err := tenantFromLocals(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.LiveSessions(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get live sessions", res))
}
