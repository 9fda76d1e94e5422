package council

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

// RegisterRoutes attaches council routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/council/analyze/:id", h.analyze)
	rg.GET("/council/:id", h.get)
}

// AnalysisResponse is the outward-facing representation of a council
// analysis.
type AnalysisResponse struct {
	DeckID    string           `json:"deckId"`
	Status    string           `json:"status"`
	Optimist  *AgentReport     `json:"optimist,omitempty"`
	Skeptic   *AgentReport     `json:"skeptic,omitempty"`
	Quant     *AgentReport     `json:"quant,omitempty"`
	Consensus *ConsensusReport `json:"consensus,omitempty"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func toResponse(analysis Analysis) AnalysisResponse {
	return AnalysisResponse{
		DeckID:    analysis.DeckID,
		Status:    analysis.Status,
		Optimist:  analysis.Optimist,
		Skeptic:   analysis.Skeptic,
		Quant:     analysis.Quant,
		Consensus: analysis.Consensus,
		Error:     analysis.Error,
		UpdatedAt: analysis.UpdatedAt,
	}
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	deck, err := h.Svc.Analyze(ctx, userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, decks.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, decks.ErrInvalidTransition):
			respond.Error(c, http.StatusConflict, "analysis_in_progress", "analysis is already running for this deck", nil)
		case errors.Is(err, llm.ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "analysis provider is not configured", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	c.Set("deckId", deck.ID)
	c.Set("statusTransition", "-> analyzing")
	respond.JSON(c, http.StatusAccepted, gin.H{
		"deckId": deck.ID,
		"status": string(deck.Status),
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	analysis, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, decks.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no analysis for this deck yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(analysis))
}
