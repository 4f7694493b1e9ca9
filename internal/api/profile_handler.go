package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/invites"
	"github.com/team-entries-api/internal/service"
)

// ProfileHandler handles the admin-facing team assignment surface
type ProfileHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(services *service.Services, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		services: services,
		log:      log.With().Str("handler", "profile").Logger(),
	}
}

// ListTeams handles GET /v1/teams: the closed dropdown of canonical team
// identifiers, naturally sorted.
func (h *ProfileHandler) ListTeams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teams": h.services.Registration.Teams()})
}

type assignTeamRequest struct {
	Team string `json:"team"`
	Code string `json:"invite_code"`
}

// AssignTeam handles PUT /v1/users/:id/team. Admins may set a team directly
// (canonical values only) or re-run invite resolution with a code; either
// way, last write wins.
func (h *ProfileHandler) AssignTeam(c *gin.Context) {
	userID := c.Param("id")

	var req assignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var team string
	var err error
	switch {
	case req.Code != "":
		team, err = h.services.Registration.AssignByCode(c.Request.Context(), userID, req.Code)
	case req.Team != "":
		team = req.Team
		err = h.services.Registration.AssignTeam(c.Request.Context(), userID, req.Team)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "team or invite_code is required"})
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTeam):
			c.JSON(http.StatusBadRequest, gin.H{"error": "team is not a canonical identifier", "field": "team"})
		case errors.Is(err, invites.ErrEmptyCode), errors.Is(err, invites.ErrUnknownCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown invite code", "field": "invite_code"})
		default:
			h.log.Error().Err(err).Str("user_id", userID).Msg("Team assignment failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "team": team})
}
