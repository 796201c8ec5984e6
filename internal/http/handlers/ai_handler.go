// README: AI trip-planning handlers (destinations, full plan, manifest, chunked sections, SSE stream).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voyage/internal/http/middleware"
	"voyage/internal/modules/aiusage"
	"voyage/internal/modules/planning"
)

// ChunkedEndpoint is where clients of non-streaming providers fetch sections.
const ChunkedEndpoint = "/api/ai/trip-planning/chunked"

// TokenSpender deducts one generation from an authenticated caller's monthly allowance.
type TokenSpender interface {
	UseToken(ctx context.Context, uid string) error
}

type AIHandler struct {
	planning *planning.Service
	quota    TokenSpender
	logger   *zap.Logger
}

// NewAIHandler wires the planning service. quota may be nil to disable metering.
func NewAIHandler(svc *planning.Service, quota TokenSpender, logger *zap.Logger) *AIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIHandler{planning: svc, quota: quota, logger: logger.Named("ai_handler")}
}

// spend charges authenticated callers; anonymous requests are not metered.
func (h *AIHandler) spend(c *gin.Context) bool {
	uid := middleware.CallerUID(c)
	if uid == "" || h.quota == nil {
		return true
	}
	err := h.quota.UseToken(c.Request.Context(), uid)
	switch {
	case err == nil:
		return true
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		writeError(c, http.StatusTooManyRequests, "monthly AI generation quota exhausted")
		return false
	default:
		// metering failures are logged; the request proceeds
		h.logger.Warn("quota check failed", zap.String("uid", uid), zap.Error(err))
		return true
	}
}

// Destinations handles POST /api/ai/destinations.
func (h *AIHandler) Destinations(c *gin.Context) {
	var req planning.DestinationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.spend(c) {
		return
	}
	resp, err := h.planning.RecommendDestinations(generationContext(c), &req)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

// TripPlan handles POST /api/ai/trip-planning.
func (h *AIHandler) TripPlan(c *gin.Context) {
	var req planning.TripRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.spend(c) {
		return
	}
	resp, err := h.planning.PlanTrip(generationContext(c), &req)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

// Manifest handles POST /api/ai/trip-planning/manifest.
func (h *AIHandler) Manifest(c *gin.Context) {
	var req planning.TripRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.spend(c) {
		return
	}
	m, err := h.planning.Manifest(generationContext(c), &req)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

// Chunked handles POST /api/ai/trip-planning/chunked. Without a chunk id it
// lists the sections; with one it generates that section.
func (h *AIHandler) Chunked(c *gin.Context) {
	var req planning.TripRequest
	if !bindJSON(c, &req) {
		return
	}
	chunkID, present, err := chunkParam(c, &req)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	if !present {
		writeJSON(c, http.StatusOK, h.planning.ListSections())
		return
	}
	if !h.spend(c) {
		return
	}
	res, err := h.planning.GenerateChunk(generationContext(c), &req, chunkID)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

// Stream handles POST /api/ai/trip-planning/stream as server-sent events.
func (h *AIHandler) Stream(c *gin.Context) {
	var req planning.TripRequest
	if !bindJSON(c, &req) {
		return
	}
	chunkID, present, err := chunkParam(c, &req)
	if err != nil {
		writePlanningError(c, err)
		return
	}
	if !present {
		writePlanningError(c, fmt.Errorf("%w: chunk is required", planning.ErrInvalidChunk))
		return
	}
	if !h.planning.CanStream() {
		writeJSON(c, http.StatusOK, gin.H{
			"streaming":        false,
			"message":          fmt.Sprintf("Streaming is not available for the %s provider; request the section from the chunked endpoint.", h.planning.ProviderName()),
			"fallbackEndpoint": ChunkedEndpoint,
		})
		return
	}
	if !h.spend(c) {
		return
	}

	started := false
	emit := func(ev planning.StreamEvent) error {
		if !started {
			hdr := c.Writer.Header()
			hdr.Set("Content-Type", "text/event-stream")
			hdr.Set("Cache-Control", "no-cache")
			hdr.Set("Connection", "keep-alive")
			hdr.Set("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			started = true
		}
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", b); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err = h.planning.StreamChunk(c.Request.Context(), &req, chunkID, emit)
	if err != nil && !started {
		writePlanningError(c, err)
		return
	}
	if started {
		_, _ = fmt.Fprint(c.Writer, "data: [DONE]\n\n")
		c.Writer.Flush()
	}
}
