// README: Base handler utilities (JSON helpers, binding, error mapping).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"voyage/internal/ai"
	"voyage/internal/modules/planning"
)

type errorResponse struct {
	Error              string   `json:"error"`
	Details            string   `json:"details,omitempty"`
	Preview            string   `json:"preview,omitempty"`
	ValidChunks        []int    `json:"validChunks,omitempty"`
	ValidTravelerTypes []string `json:"validTravelerTypes,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

var registerOnce sync.Once

// registerValidators adds the custom binding rules. Safe to call repeatedly.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("travelertype", func(fl validator.FieldLevel) bool {
			_, known := planning.LookupTravelerType(fl.Field().String())
			return known
		})
	})
}

// bindJSON decodes and validates the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, v any) bool {
	registerValidators()
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	resp := errorResponse{Error: "invalid request", Details: err.Error()}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "travelertype" {
				resp.Error = "unknown traveler type"
				resp.ValidTravelerTypes = planning.TravelerTypeIDs()
			}
		}
	}
	writeJSON(c, http.StatusBadRequest, resp)
	return false
}

// generationContext detaches provider work from the client connection; the
// provider timeout still bounds it.
func generationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// chunkParam reads the chunk id from ?chunk= or, failing that, the body's chunk field.
func chunkParam(c *gin.Context, req *planning.TripRequest) (id int, present bool, err error) {
	raw := strings.TrimSpace(c.Query("chunk"))
	if raw == "" && req.Chunk != nil {
		var s string
		if json.Unmarshal(*req.Chunk, &s) == nil {
			raw = strings.TrimSpace(s)
		} else {
			raw = strings.TrimSpace(string(*req.Chunk))
		}
		if raw == "null" {
			raw = ""
		}
	}
	if raw == "" {
		return 0, false, nil
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return 0, true, fmt.Errorf("%w: %q", planning.ErrInvalidChunk, raw)
	}
	if _, err := planning.SectionByID(n); err != nil {
		return 0, true, err
	}
	return n, true, nil
}

// writePlanningError maps planning, provider and parse failures onto HTTP responses.
func writePlanningError(c *gin.Context, err error) {
	var pe *ai.ParseError
	var provErr *ai.ProviderError
	switch {
	case errors.Is(err, planning.ErrInvalidChunk):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid chunk", Details: err.Error(), ValidChunks: planning.ValidChunkIDs()})
	case errors.Is(err, planning.ErrUnknownTraveler):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "unknown traveler type", Details: err.Error(), ValidTravelerTypes: planning.TravelerTypeIDs()})
	case errors.Is(err, planning.ErrBadRequest):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
	case errors.As(err, &pe):
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "failed to parse AI response", Details: err.Error(), Preview: pe.Preview})
	case errors.As(err, &provErr):
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "AI provider request failed", Details: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "AI request timed out", Details: err.Error()})
	default:
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "AI generation failed", Details: err.Error()})
	}
}
