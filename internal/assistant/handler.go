package assistant

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/llm"
	"venturesight-backend/internal/shared/server/middleware"
	"venturesight-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches assistant routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assistant/chat", h.chat)
	rg.GET("/assistant/conversations", h.listConversations)
	rg.GET("/assistant/conversations/:id/messages", h.listMessages)
	rg.DELETE("/assistant/conversations/:id", h.deleteConversation)
	rg.DELETE("/assistant/conversations", h.deleteAllConversations)
}

// ConversationResponse is the outward-facing representation of a
// conversation.
type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse is the outward-facing representation of a message.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toConversationResponse(conv Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func toMessageResponse(msg Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

type chatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversationId"`
	DeckID         string `json:"deckId"`
}

func (h *Handler) chat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Svc.Chat(c.Request.Context(), ChatInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		DeckID:         req.DeckID,
		Query:          req.Query,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		case errors.Is(err, decks.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, llm.ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "assistant provider is not configured", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "chat failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"conversationId": result.Conversation.ID,
		"title":          result.Conversation.Title,
		"message":        toMessageResponse(result.Reply),
	})
}

func (h *Handler) listConversations(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	conversations, err := h.Svc.Conversations(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list conversations", nil)
		return
	}

	out := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		out = append(out, toConversationResponse(conv))
	}
	respond.JSON(c, http.StatusOK, gin.H{"conversations": out})
}

func (h *Handler) listMessages(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	messages, err := h.Svc.Messages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list messages", nil)
		}
		return
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toMessageResponse(msg))
	}
	respond.JSON(c, http.StatusOK, gin.H{"messages": out})
}

func (h *Handler) deleteConversation(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete conversation", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAllConversations(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.DeleteAllConversations(c.Request.Context(), userID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete conversations", nil)
		return
	}

	c.Status(http.StatusNoContent)
}
