package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/internal/services/flow"
	"go.uber.org/zap"
)

// === REQUEST PARSING ===

// parseCropInput reads x, y, width, height and the optional preview size
// through get, which is c.PostForm or c.Query.
func parseCropInput(get func(string) string) (models.CropInput, error) {
	var input models.CropInput
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &input.Crop.X},
		{"y", &input.Crop.Y},
		{"width", &input.Crop.Width},
		{"height", &input.Crop.Height},
		{"previewWidth", &input.Preview.Width},
		{"previewHeight", &input.Preview.Height},
	}

	for _, f := range fields {
		v, err := parseCoordinate(get(f.name), f.name)
		if err != nil {
			return models.CropInput{}, err
		}
		*f.dst = v
	}

	return input, nil
}

// parseCoordinate accepts empty as zero; fractional values are kept.
func parseCoordinate(value, fieldName string) (float64, error) {
	if value == "" {
		return 0, nil
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, fmt.Errorf("invalid %s: must be a number", fieldName)
	}
	if num < 0 {
		return 0, fmt.Errorf("%s must not be negative", fieldName)
	}

	return num, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func cropPath(id string) string {
	return cropPathPrefix + url.PathEscape(id)
}

// === RESPONSE HANDLING ===

func (h *AvatarHandler) renderUploadError(c *gin.Context, statusCode int, message string) {
	c.HTML(statusCode, pageUpload, gin.H{"Error": message})
}

// respondFlowError answers 404 for unknown avatars and otherwise sends the
// user back to fallback.
func (h *AvatarHandler) respondFlowError(c *gin.Context, id string, err error, fallback string) {
	if errors.Is(err, flow.ErrNotFound) {
		c.String(http.StatusNotFound, notFoundMessage)
		return
	}

	h.logger.Error("Avatar request failed", zap.String("asset_id", id), zap.Error(err))
	c.Redirect(http.StatusSeeOther, fallback)
}

// === UTILITY METHODS ===

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
