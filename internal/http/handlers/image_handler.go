// README: Destination image lookup and Google Places photo proxy handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voyage/internal/modules/images"
)

type ImageHandler struct {
	images *images.Service
	logger *zap.Logger
}

func NewImageHandler(svc *images.Service, logger *zap.Logger) *ImageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageHandler{images: svc, logger: logger.Named("image_handler")}
}

// Destination handles GET /api/images/destination?destination=&country=&count=.
func (h *ImageHandler) Destination(c *gin.Context) {
	count := 1
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "count must be a number")
			return
		}
		count = n
	}

	urls, err := h.images.Lookup(c.Request.Context(), images.Query{
		Destination: c.Query("destination"),
		Country:     c.Query("country"),
		Count:       count,
	})
	if err != nil {
		if errors.Is(err, images.ErrBadRequest) {
			writeError(c, http.StatusBadRequest, "destination is required")
			return
		}
		h.logger.Error("image lookup", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "image lookup failed")
		return
	}
	if count <= 1 {
		writeJSON(c, http.StatusOK, gin.H{"imageUrl": urls[0]})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"imageUrls": urls})
}

// PlacePhoto handles GET /api/images/place-photo?ref=.
func (h *ImageHandler) PlacePhoto(c *gin.Context) {
	contentType, body, err := h.images.PlacePhoto(c.Request.Context(), c.Query("ref"))
	switch {
	case errors.Is(err, images.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "ref is required")
		return
	case errors.Is(err, images.ErrNotConfigured), errors.Is(err, images.ErrNotFound):
		writeError(c, http.StatusNotFound, "photo not found")
		return
	case err != nil:
		h.logger.Warn("place photo", zap.Error(err))
		writeError(c, http.StatusBadGateway, "photo fetch failed")
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
