package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsetrack/attendance-api/internal/service"
	"github.com/pulsetrack/attendance-api/pkg/response"
)

// ParticipantHandler exposes participant directory endpoints.
type ParticipantHandler struct {
	participants *service.ParticipantService
}

// NewParticipantHandler constructs the participant handler.
func NewParticipantHandler(participants *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// List returns all participants.
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.participants.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants)
}

// Get returns one participant by id.
func (h *ParticipantHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	participant, err := h.participants.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant)
}
