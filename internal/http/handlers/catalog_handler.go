// README: Static catalog handlers (traveler types and well-known destinations).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/modules/planning"
)

// TravelerTypes handles GET /api/traveler-types.
func TravelerTypes(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"travelerTypes": planning.TravelerTypes()})
}

// Destinations handles GET /api/destinations.
func Destinations(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"destinations": planning.Destinations()})
}
