package handlers

import (
	"strconv"

	"github.com/SundayYogurt/directory_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/export"
	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/SundayYogurt/directory_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type DirectoryHandler struct {
	svc services.DirectoryService
}

func NewDirectoryHandler(svc services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

// SetupRoutes must run after every fixed /api prefix is registered; the
// :entity routes match any first segment.
func (h *DirectoryHandler) SetupRoutes(api fiber.Router) {
	api.Get("/:entity/list", h.List)
	api.Get("/:entity/export", h.Export)
	api.Get("/:entity/:id", h.Get)
	api.Post("/:entity", h.Create)
	api.Put("/:entity/:id", h.Update)
	api.Delete("/:entity/:id", h.Delete)

	// Review queue
	api.Post("/:entity/:id/approve", middleware.AdminOnly(), h.Approve)
	api.Post("/:entity/:id/reject", middleware.AdminOnly(), h.Reject)
	api.Get("/:entity/:id/reviews", middleware.AdminOnly(), h.Reviews)
}

func entityParam(ctx *fiber.Ctx) (domain.EntityType, error) {
	raw := ctx.Params("entity")
	t, ok := domain.ParseEntityType(raw)
	if !ok {
		return "", apperr.NotFound("entity type", raw)
	}
	return t, nil
}

func actorFrom(ctx *fiber.Ctx) services.Actor {
	userID, _ := ctx.Locals("userID").(uint)
	isAdmin, _ := ctx.Locals("isAdmin").(bool)
	return services.Actor{
		UserID: strconv.FormatUint(uint64(userID), 10),
		Admin:  isAdmin,
	}
}

func bodyMap(ctx *fiber.Ctx) (map[string]any, error) {
	body := map[string]any{}
	if err := ctx.BodyParser(&body); err != nil {
		return nil, apperr.Invalid("Please provide valid inputs")
	}
	return body, nil
}

func (h *DirectoryHandler) List(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	var params dto.ListParams
	if err := ctx.QueryParser(&params); err != nil {
		return utils.ResponseAppError(ctx, apperr.Invalid("invalid query"))
	}

	res, err := h.svc.List(ctx.UserContext(), t, params)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		t.Plural():    res.Items,
		"total":       res.Total,
		"hasMore":     res.HasMore,
		"currentPage": res.CurrentPage,
		"totalPages":  res.TotalPages,
	})
}

func (h *DirectoryHandler) Get(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	m, err := h.svc.Get(ctx.UserContext(), t, ctx.Params("id"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, m)
}

func (h *DirectoryHandler) Create(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	body, err := bodyMap(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	actor := actorFrom(ctx)
	m, err := h.svc.Create(ctx.UserContext(), t, actor, body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	msg := "submitted for review"
	if actor.Admin {
		msg = "created"
	}
	return utils.ResponseMessage(ctx, fiber.StatusCreated, msg, m)
}

func (h *DirectoryHandler) Update(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	body, err := bodyMap(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	actor := actorFrom(ctx)
	m, err := h.svc.Update(ctx.UserContext(), t, actor, ctx.Params("id"), body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	msg := "submitted for review"
	if actor.Admin {
		msg = "updated"
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, msg, m)
}

func (h *DirectoryHandler) Delete(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	res, err := h.svc.Delete(ctx.UserContext(), t, actorFrom(ctx), ctx.Params("id"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	if res.Deleted {
		return utils.ResponseMessage(ctx, fiber.StatusOK, "deleted", nil)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "submitted for review", res.Record)
}

func (h *DirectoryHandler) Approve(ctx *fiber.Ctx) error {
	return h.resolve(ctx, domain.DecisionApprove, "approved")
}

func (h *DirectoryHandler) Reject(ctx *fiber.Ctx) error {
	return h.resolve(ctx, domain.DecisionReject, "rejected")
}

func (h *DirectoryHandler) resolve(ctx *fiber.Ctx, d domain.Decision, msg string) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	res, err := h.svc.Resolve(ctx.UserContext(), t, ctx.Params("id"), string(d), actorFrom(ctx).UserID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, msg, res)
}

func (h *DirectoryHandler) Export(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	keyword := ctx.Query("keyword", ctx.Query("search"))

	b, err := h.svc.Export(ctx.UserContext(), t, keyword)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	ctx.Attachment(t.Plural() + ".xlsx")
	ctx.Set(fiber.HeaderContentType, export.ContentTypeXLSX)
	return ctx.Status(fiber.StatusOK).Send(b)
}

func (h *DirectoryHandler) Reviews(ctx *fiber.Ctx) error {
	t, err := entityParam(ctx)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	logs, err := h.svc.Reviews(ctx.UserContext(), t, ctx.Params("id"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, logs)
}
