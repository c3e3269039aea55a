package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/internal/services/flow"
	"github.com/phambaophuc/flag-avatar/internal/services/processor"
	"github.com/phambaophuc/flag-avatar/pkg/utils"
	"go.uber.org/zap"
)

const (
	fileParamKey    = "file"
	avatarParamKey  = "avatarFileName"
	pngSuffix       = ".png"
	methodOverride  = "_method"
	uploadPath      = "/upload"
	cropPathPrefix  = "/crop/"
	downloadPath    = "/download"
	pageUpload      = "upload.html"
	pageCrop        = "crop.html"
	pageDownload    = "download.html"
	notFoundMessage = "Not found"
)

// AvatarFlow is the flow controller as seen by the HTTP layer.
type AvatarFlow interface {
	Upload(ctx context.Context, file multipart.File) (*models.Session, error)
	OpenCrop(ctx context.Context, id string) (*flow.CropView, error)
	Commit(ctx context.Context, id string, input models.CropInput) (*flow.Result, error)
	Render(ctx context.Context, id string, input models.CropInput) ([]byte, error)
	Discard(ctx context.Context, id string) error
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]string
}

type AvatarHandler struct {
	flow     AvatarFlow
	checkers []HealthChecker
	logger   *zap.Logger
	config   *config.Config
	now      func() time.Time
}

func NewAvatarHandler(
	avatarFlow AvatarFlow,
	checkers []HealthChecker,
	logger *zap.Logger,
	config *config.Config,
) *AvatarHandler {
	return &AvatarHandler{
		flow:     avatarFlow,
		checkers: checkers,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// === PAGES ===

func (h *AvatarHandler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, uploadPath)
}

func (h *AvatarHandler) UploadPage(c *gin.Context) {
	c.HTML(http.StatusOK, pageUpload, gin.H{})
}

func (h *AvatarHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Storage.MaxFileSize+1<<20)

	file, _, err := c.Request.FormFile(fileParamKey)
	if err != nil {
		h.renderUploadError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	sess, err := h.flow.Upload(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidImage) {
			h.renderUploadError(c, http.StatusBadRequest, "Invalid image: "+err.Error())
			return
		}
		h.logger.Error("Upload failed", zap.Error(err))
		h.renderUploadError(c, http.StatusBadGateway, "Upload failed, please try again")
		return
	}

	c.Redirect(http.StatusSeeOther, cropPath(sess.AssetID))
}

// Crop serves both the crop page and, for names ending in .png, the generated
// avatar as an attachment.
func (h *AvatarHandler) Crop(c *gin.Context) {
	name := c.Param(avatarParamKey)
	if id, ok := strings.CutSuffix(name, pngSuffix); ok {
		h.downloadAttachment(c, id)
		return
	}

	view, err := h.flow.OpenCrop(c.Request.Context(), name)
	if err != nil {
		h.respondFlowError(c, name, err, uploadPath)
		return
	}

	c.HTML(http.StatusOK, pageCrop, gin.H{"View": view})
}

func (h *AvatarHandler) CommitCrop(c *gin.Context) {
	id := c.Param(avatarParamKey)
	if strings.EqualFold(c.PostForm(methodOverride), http.MethodDelete) {
		h.DiscardCrop(c)
		return
	}

	input, err := parseCropInput(c.PostForm)
	if err != nil {
		h.logger.Warn("Invalid crop submitted", zap.String("asset_id", id), zap.Error(err))
		c.Redirect(http.StatusSeeOther, cropPath(id))
		return
	}

	result, err := h.flow.Commit(c.Request.Context(), id, input)
	if err != nil {
		h.logger.Error("Avatar generation failed", zap.String("asset_id", id), zap.Error(err))
		c.Redirect(http.StatusSeeOther, cropPath(id))
		return
	}

	c.Redirect(http.StatusSeeOther, downloadPath+"?url="+url.QueryEscape(result.URL))
}

func (h *AvatarHandler) DiscardCrop(c *gin.Context) {
	id := c.Param(avatarParamKey)
	if err := h.flow.Discard(c.Request.Context(), id); err != nil && !errors.Is(err, flow.ErrNotFound) {
		h.logger.Error("Discard failed", zap.String("asset_id", id), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, uploadPath)
}

func (h *AvatarHandler) DownloadPage(c *gin.Context) {
	imageURL := c.Query("url")
	if !isHTTPURL(imageURL) {
		c.String(http.StatusBadRequest, "Invalid url")
		return
	}

	c.HTML(http.StatusOK, pageDownload, gin.H{
		"ImageURL": imageURL,
		"Size":     h.config.Avatar.FinalSize,
	})
}

func (h *AvatarHandler) downloadAttachment(c *gin.Context, id string) {
	input, err := parseCropInput(c.Query)
	if err != nil {
		h.logger.Warn("Invalid crop requested", zap.String("asset_id", id), zap.Error(err))
		c.Redirect(http.StatusSeeOther, cropPath(id))
		return
	}

	data, err := h.flow.Render(c.Request.Context(), id, input)
	if err != nil {
		h.respondFlowError(c, id, err, cropPath(id))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+utils.AttachmentFilename(h.now())+`"`)
	c.Data(http.StatusOK, "image/png", data)
}

// === HEALTH ===

func (h *AvatarHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	for _, checker := range h.checkers {
		for name, status := range checker.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}
	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: h.now(),
			Services:  services,
		},
	})
}
