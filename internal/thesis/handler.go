package thesis

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches thesis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/thesis", h.get)
	rg.PUT("/thesis", h.put)
}

// ThesisResponse is the outward-facing representation of a thesis.
type ThesisResponse struct {
	FundName      string    `json:"fundName,omitempty"`
	TargetSectors []string  `json:"targetSectors,omitempty"`
	TargetStages  []string  `json:"targetStages,omitempty"`
	Geographies   []string  `json:"geographies,omitempty"`
	CheckSizeUSD  int64     `json:"checkSizeUsd,omitempty"`
	Description   string    `json:"description,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(t Thesis) ThesisResponse {
	return ThesisResponse{
		FundName:      t.FundName,
		TargetSectors: t.TargetSectors,
		TargetStages:  t.TargetStages,
		Geographies:   t.Geographies,
		CheckSizeUSD:  t.CheckSizeUSD,
		Description:   t.Description,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	t, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no thesis configured", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch thesis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(t))
}

type putThesisRequest struct {
	FundName      string   `json:"fundName"`
	TargetSectors []string `json:"targetSectors"`
	TargetStages  []string `json:"targetStages"`
	Geographies   []string `json:"geographies"`
	CheckSizeUSD  int64    `json:"checkSizeUsd"`
	Description   string   `json:"description"`
}

func (h *Handler) put(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req putThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	t, err := h.Svc.Save(c.Request.Context(), Thesis{
		UserID:        userID,
		FundName:      req.FundName,
		TargetSectors: req.TargetSectors,
		TargetStages:  req.TargetStages,
		Geographies:   req.Geographies,
		CheckSizeUSD:  req.CheckSizeUSD,
		Description:   req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save thesis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(t))
}
