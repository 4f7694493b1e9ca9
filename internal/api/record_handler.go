package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/service"
)

// RecordHandler handles policy-checked record CRUD
type RecordHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(services *service.Services, log zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		services: services,
		log:      log.With().Str("handler", "record").Logger(),
	}
}

type recordPayload struct {
	Type   models.RecordType          `json:"type"`
	Title  string                     `json:"title" binding:"required"`
	Status string                     `json:"status"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// Create handles POST /v1/records. The requested status is pinned by policy,
// never honored as-is.
func (h *RecordHandler) Create(c *gin.Context) {
	var req recordPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of: entry, city"})
		return
	}

	record := &models.Record{
		Type:   req.Type,
		Title:  req.Title,
		Status: req.Status,
		Fields: req.Fields,
	}
	if err := h.services.Record.Create(c.Request.Context(), currentActor(c), record); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Get handles GET /v1/records/:id
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	record, err := h.services.Record.Get(c.Request.Context(), currentActor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Update handles PUT /v1/records/:id
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var req recordPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record, err := h.services.Record.Update(c.Request.Context(), currentActor(c), id, req.Title, req.Fields, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /v1/records/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.services.Record.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /v1/records?type=&status=&paged=&per_page=. The result is
// scoped to the actor's visibility; a teamless contributor gets an empty
// list, not an error.
func (h *RecordHandler) List(c *gin.Context) {
	recordType := models.RecordType(c.DefaultQuery("type", string(models.RecordTypeEntry)))
	if !recordType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of: entry, city"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("paged", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	records, total, err := h.services.Record.List(c.Request.Context(), currentActor(c), service.ListQuery{
		Type:    recordType,
		Status:  c.DefaultQuery("status", models.StatusDraft),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"paged":   page,
	})
}

// writeError maps service errors to responses. Policy denials and absent
// records both come back as 403.
func (h *RecordHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrPermissionDenied) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	h.log.Error().Err(err).Msg("Record operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return 0, false
	}
	return id, true
}
