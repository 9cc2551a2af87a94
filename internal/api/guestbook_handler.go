package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/service"
	"github.com/guestbook-api/internal/validation"
	"github.com/guestbook-api/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Mutation actions accepted by PATCH /v1/guestbook. An empty action toggles a like.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// GuestbookHandler handles guestbook endpoints
type GuestbookHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewGuestbookHandler creates a new GuestbookHandler
func NewGuestbookHandler(services *service.Services, log zerolog.Logger) *GuestbookHandler {
	return &GuestbookHandler{
		services: services,
		log:      log.With().Str("handler", "guestbook").Logger(),
	}
}

// CreateEntryRequest adds a message, or a reply when MessageID is set
type CreateEntryRequest struct {
	Content   string `json:"content" binding:"required,guestbook_content"`
	MessageID string `json:"messageId"`
}

// UpdateEntryRequest targets a reply when ReplyID is set
type UpdateEntryRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	ReplyID   string `json:"replyId"`
	Action    string `json:"action" binding:"omitempty,oneof=edit delete"`
	Content   string `json:"content"`
}

type messageLikeResponse struct {
	*models.MessageRecord
	Liked bool `json:"liked"`
}

type replyLikeResponse struct {
	*models.ReplyRecord
	Liked bool `json:"liked"`
}

// ListMessages handles GET /v1/guestbook
func (h *GuestbookHandler) ListMessages(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	messages, err := h.services.Guestbook.ListMessages(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	records := make([]*models.MessageRecord, 0, len(messages))
	for _, m := range messages {
		records = append(records, m.Record())
	}
	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /stats
func (h *GuestbookHandler) GetStats(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	stats, err := h.services.Guestbook.Stats(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateEntry handles POST /v1/guestbook
func (h *GuestbookHandler) CreateEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("authentication required"))
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	if req.MessageID == "" {
		msg, err := h.services.Guestbook.AddMessage(ctx, req.Content, user)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, msg.Record())
		return
	}

	reply, err := h.services.Guestbook.AddReply(ctx, req.MessageID, req.Content, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, reply.Record())
}

// UpdateEntry handles PATCH /v1/guestbook
func (h *GuestbookHandler) UpdateEntry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("authentication required"))
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()
	gb := h.services.Guestbook

	switch req.Action {
	case ActionEdit:
		if _, err := validation.NormalizeContent(req.Content); err != nil {
			respondError(c, h.log, err)
			return
		}
		if req.ReplyID != "" {
			reply, err := gb.EditReply(ctx, req.MessageID, req.ReplyID, user.ID, req.Content)
			if err != nil {
				respondError(c, h.log, err)
				return
			}
			c.JSON(http.StatusOK, reply.Record())
			return
		}
		msg, err := gb.EditMessage(ctx, req.MessageID, user.ID, req.Content)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, msg.Record())

	case ActionDelete:
		var err error
		if req.ReplyID != "" {
			err = gb.DeleteReply(ctx, req.MessageID, req.ReplyID, user.ID)
		} else {
			err = gb.DeleteMessage(ctx, req.MessageID, user.ID)
		}
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	default:
		if req.ReplyID != "" {
			reply, err := gb.ToggleReplyLike(ctx, req.MessageID, req.ReplyID, user)
			if err != nil {
				respondError(c, h.log, err)
				return
			}
			c.JSON(http.StatusOK, replyLikeResponse{ReplyRecord: reply.Record(), Liked: reply.Likes.Has(user.ID)})
			return
		}
		msg, err := gb.ToggleLike(ctx, req.MessageID, user)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, messageLikeResponse{MessageRecord: msg.Record(), Liked: msg.Likes.Has(user.ID)})
	}
}
