package middleware

import (
	"context"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

// RoleChecker reports whether a user holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) try cookie first
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))

		// 2) fallback to Authorization header
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}

		ctx.Locals("userID", user.UserID)
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// LoadRoles stores the caller's admin flag under "isAdmin".
func LoadRoles(roles RoleChecker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("userID").(uint)
		if !ok || userID == 0 {
			return utils.ResponseAppError(ctx, apperr.Unauthenticated("unauthorized"))
		}

		isAdmin, err := roles.IsAdmin(ctx.UserContext(), userID)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}
		ctx.Locals("isAdmin", isAdmin)
		return ctx.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if isAdmin, _ := ctx.Locals("isAdmin").(bool); !isAdmin {
			return utils.ResponseAppError(ctx, apperr.Forbidden("admin only"))
		}
		return ctx.Next()
	}
}
