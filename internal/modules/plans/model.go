// README: Saved plan, saved destination and share link definitions.
package plans

import (
	"encoding/json"
	"errors"
	"time"

	"voyage/internal/modules/planning"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

type SavedPlan struct {
	ID           string                    `json:"id"`
	UserID       string                    `json:"userId,omitempty"`
	Name         string                    `json:"name"`
	Destination  planning.Destination      `json:"destination"`
	TravelerType planning.TravelerType     `json:"travelerType"`
	Preferences  *planning.TripPreferences `json:"preferences,omitempty"`
	AIResponse   json.RawMessage           `json:"aiResponse"`
	Notes        *string                   `json:"notes,omitempty"`
	Tags         []string                  `json:"tags"`
	IsFavorite   bool                      `json:"isFavorite"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// PlanSummary is the list view of a saved plan, without the AI response blob.
type PlanSummary struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Destination  planning.Destination  `json:"destination"`
	TravelerType planning.TravelerType `json:"travelerType"`
	Tags         []string              `json:"tags"`
	IsFavorite   bool                  `json:"isFavorite"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

type CreatePlanInput struct {
	Name         string                    `json:"name" binding:"required"`
	Destination  *planning.Destination     `json:"destination" binding:"required"`
	TravelerType *planning.TravelerType    `json:"travelerType" binding:"required"`
	Preferences  *planning.TripPreferences `json:"preferences"`
	AIResponse   json.RawMessage           `json:"aiResponse" binding:"required"`
	Notes        *string                   `json:"notes"`
	Tags         []string                  `json:"tags"`
	IsFavorite   bool                      `json:"isFavorite"`
}

// UpdatePlanInput changes only the fields that are set.
type UpdatePlanInput struct {
	Name       *string   `json:"name"`
	Notes      *string   `json:"notes"`
	Tags       *[]string `json:"tags"`
	IsFavorite *bool     `json:"isFavorite"`
}

func (in UpdatePlanInput) empty() bool {
	return in.Name == nil && in.Notes == nil && in.Tags == nil && in.IsFavorite == nil
}

type SavedDestination struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId,omitempty"`
	Destination planning.Destination `json:"destination"`
	Notes       *string              `json:"notes,omitempty"`
	Tags        []string             `json:"tags"`
	IsFavorite  bool                 `json:"isFavorite"`
	CreatedAt   time.Time            `json:"createdAt"`
}

type CreateDestinationInput struct {
	Destination *planning.Destination `json:"destination" binding:"required"`
	Notes       *string               `json:"notes"`
	Tags        []string              `json:"tags"`
	IsFavorite  bool                  `json:"isFavorite"`
}

type SharedPlan struct {
	ID        string    `json:"shareId"`
	PlanID    string    `json:"planId"`
	UserID    string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// SharedPlanView is what an anonymous reader of a share link gets.
type SharedPlanView struct {
	ShareID   string     `json:"shareId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Plan      *SavedPlan `json:"plan"`
}
