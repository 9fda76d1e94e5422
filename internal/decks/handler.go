package decks

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venturesight-backend/internal/extract"
	"venturesight-backend/internal/shared/server/middleware"
	"venturesight-backend/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 20 << 20 // 20MiB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches deck routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/decks", h.submit)
	rg.GET("/decks", h.list)
	rg.GET("/decks/:id", h.get)
	rg.PATCH("/decks/:id/notes", h.saveNotes)
	rg.PATCH("/decks/:id/archive", h.archive)
	rg.DELETE("/decks/:id", h.remove)
}

func (h *Handler) submit(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	deck, err := h.Svc.Submit(c.Request.Context(), userID, fileHeader.Filename, mimeType, data)
	if err != nil {
		var dup *DuplicateError
		switch {
		case errors.As(err, &dup):
			respond.Error(c, http.StatusConflict, "duplicate_deck", "an active deck with identical content already exists", gin.H{
				"existingDeckId": dup.ExistingID,
			})
		case errors.Is(err, extract.ErrUnsupportedFormat):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_format", "only PDF decks are supported", nil)
		case errors.Is(err, extract.ErrExtractionFailed):
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "unable to extract text from deck", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit deck", nil)
		}
		return
	}

	c.Set("deckId", deck.ID)
	respond.Created(c, toResponse(deck))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	status := Status(c.Query("status"))
	if status != "" && !status.Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status filter", nil)
		return
	}

	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	list, err := h.Svc.List(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list decks", nil)
		}
		return
	}

	resp := make([]DeckResponse, 0, len(list))
	for _, deck := range list {
		resp = append(resp, toResponse(deck))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	deck, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch deck", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(deck))
}

type saveNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) saveNotes(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req saveNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.SaveNotes(c.Request.Context(), userID, c.Param("id"), req.Notes); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save notes", nil)
		}
		return
	}

	respond.OK(c, gin.H{"saved": true})
}

func (h *Handler) archive(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	deck, err := h.Svc.Archive(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusConflict, "invalid_transition", "deck cannot be archived while analysis is running", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to archive deck", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(deck))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete deck", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}
