package handlers

import (
	"path/filepath"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/SundayYogurt/directory_service/internal/interfaces"
	pkgutils "github.com/SundayYogurt/directory_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadSize  = 5 * 1024 * 1024 //5MB
	maxImageWidth  = 1600
	uploadQuality  = 82
	uploadNotReady = "media upload is not configured"
)

type UploadResponse struct {
	URL string `json:"url"`
}

type UploadHandler struct {
	uploader interfaces.Uploader
	folder   string
}

func NewUploadHandler(uploader interfaces.Uploader, folder string) *UploadHandler {
	return &UploadHandler{uploader: uploader, folder: folder}
}

func (h *UploadHandler) SetupRoutes(api fiber.Router) {
	api.Post("/media/single", h.UploadSingle)
}

// POST /api/media/single
// form-data: file=<image>
func (h *UploadHandler) UploadSingle(ctx *fiber.Ctx) error {
	if h.uploader == nil {
		return utils.ResponseError(ctx, fiber.StatusServiceUnavailable, uploadNotReady)
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "only jpg/jpeg/png/webp allowed")
	}
	if file.Size > maxUploadSize {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file too large (max 5MB)")
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	raw, err := pkgutils.ReadAllLimit(f, maxUploadSize)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	jpg, format, err := pkgutils.NormalizeToJPG(raw, maxImageWidth, uploadQuality)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	name := uuid.NewString()
	url, err := h.uploader.UploadBytes(ctx.UserContext(), h.folder, name, jpg)
	if err != nil {
		logrus.WithError(err).WithField("format", format).Error("media upload failed")
		return utils.ResponseError(ctx, fiber.StatusBadGateway, "media upload failed")
	}
	return ctx.Status(fiber.StatusOK).JSON(UploadResponse{URL: url})
}
