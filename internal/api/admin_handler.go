package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guestbook-api/internal/service"
	"github.com/rs/zerolog"
)

// AdminHandler handles operator endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// CreateSnapshot handles POST /v1/admin/snapshots
func (h *AdminHandler) CreateSnapshot(c *gin.Context) {
	snap, err := h.services.Snapshot.CreateSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	user, _ := currentUser(c)
	h.log.Info().Str("key", snap.Key).Str("requested_by", user.ID).Msg("On-demand snapshot created")
	c.JSON(http.StatusCreated, snap)
}
