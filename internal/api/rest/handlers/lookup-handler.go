package handlers

import (
	"github.com/SundayYogurt/directory_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/SundayYogurt/directory_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type LookupHandler struct {
	svc services.LookupService
}

func NewLookupHandler(svc services.LookupService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

func (h *LookupHandler) SetupRoutes(api fiber.Router) {
	lookup := api.Group("/lookup")
	lookup.Get("/:kind", h.List)
	lookup.Post("/", middleware.AdminOnly(), h.Create)
}

func (h *LookupHandler) List(ctx *fiber.Ctx) error {
	rows, err := h.svc.List(ctx.UserContext(), ctx.Params("kind"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, rows)
}

func (h *LookupHandler) Create(ctx *fiber.Ctx) error {
	var req dto.LookupCreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	l, err := h.svc.Create(ctx.UserContext(), req)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, l)
}
