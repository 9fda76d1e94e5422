package rag

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/shared/server/middleware"
	"venturesight-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc   *Service
	Decks *decks.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, deckSvc *decks.Service) *Handler {
	return &Handler{Svc: svc, Decks: deckSvc}
}

// RegisterRoutes attaches chunk retrieval routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/decks/:id/chunks/search", h.search)
}

// ChunkResponse is the outward-facing representation of a chunk hit.
type ChunkResponse struct {
	ChunkID string `json:"chunkId"`
	Index   int    `json:"index"`
	Content string `json:"content"`
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	deckID := c.Param("id")

	if _, err := h.Decks.Get(c.Request.Context(), userID, deckID); err != nil {
		switch {
		case errors.Is(err, decks.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch deck", nil)
		}
		return
	}

	query := c.Query("q")
	limit := 5
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	if limit > 50 {
		limit = 50
	}

	chunks, err := h.Svc.Search(c.Request.Context(), deckID, query, limit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuery):
			respond.Error(c, http.StatusBadRequest, "validation_error", "q is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to search chunks", nil)
		}
		return
	}

	resp := make([]ChunkResponse, 0, len(chunks))
	for _, chunk := range chunks {
		resp = append(resp, ChunkResponse{
			ChunkID: chunk.ID,
			Index:   chunk.Index,
			Content: chunk.Content,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}
