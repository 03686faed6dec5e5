package handlers

import (
	"strconv"

	"github.com/SundayYogurt/directory_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/SundayYogurt/directory_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	svc services.UserService
}

func NewUserHandler(svc services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// SetupPublicRoutes registers the routes that need no token.
func (h *UserHandler) SetupPublicRoutes(api fiber.Router) {
	api.Post("/auth/login", h.Login)
}

func (h *UserHandler) SetupRoutes(api fiber.Router) {
	api.Get("/auth/me", h.Me)

	users := api.Group("/users", middleware.AdminOnly())
	users.Post("/", h.CreateUser)
	users.Put("/:userID/roles", h.SetRoles)
}

func (h *UserHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.UserLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	res, err := h.svc.Login(ctx.UserContext(), requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    res.Token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.Status(fiber.StatusOK).JSON(res)
}

func (h *UserHandler) Me(ctx *fiber.Ctx) error {
	userID, _ := ctx.Locals("userID").(uint)
	profile, err := h.svc.GetProfile(ctx.UserContext(), userID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *UserHandler) CreateUser(ctx *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	profile, err := h.svc.CreateUser(ctx.UserContext(), req)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, profile)
}

func (h *UserHandler) SetRoles(ctx *fiber.Ctx) error {
	userID, err := strconv.ParseUint(ctx.Params("userID"), 10, 64)
	if err != nil || userID == 0 {
		return utils.ResponseAppError(ctx, apperr.Invalid("invalid user id"))
	}
	var req dto.SetRolesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := h.svc.SetRoles(ctx.UserContext(), uint(userID), req); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "roles updated")
}
