package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/service"
)

// ExportHandler handles the admin-only export surface
type ExportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// Export handles GET /export/v1/entries?post_type=&team=&paged=&per_page=&status=
func (h *ExportHandler) Export(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	result, err := h.services.Export.Export(c.Request.Context(), q)
	if err != nil {
		h.log.Error().Err(err).Str("post_type", string(q.Type)).Msg("Export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.JSON(http.StatusOK, exportResponse(q, result))
}

// Preview handles GET /export/v1/entries/preview: the first rows of page
// one, with the column order computed over only those rows.
func (h *ExportHandler) Preview(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	result, err := h.services.Export.Preview(c.Request.Context(), q)
	if err != nil {
		h.log.Error().Err(err).Str("post_type", string(q.Type)).Msg("Preview failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.JSON(http.StatusOK, exportResponse(q, result))
}

// DownloadCSV handles GET /export/v1/entries/csv: the full filtered set as
// a BOM-prefixed, fully quoted CSV attachment.
func (h *ExportHandler) DownloadCSV(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	result, err := h.services.Export.ExportAll(c.Request.Context(), q)
	if err != nil {
		h.log.Error().Err(err).Str("post_type", string(q.Type)).Msg("CSV export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := h.services.Export.Filename(q.Type, time.Now())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.services.Export.WriteCSV(c.Writer, result); err != nil {
		// Headers already went out; nothing left to do but log.
		h.log.Error().Err(err).Msg("CSV write failed mid-stream")
	}
}

// CreateJob handles POST /export/v1/jobs: queues a full export for the
// background processor.
func (h *ExportHandler) CreateJob(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	job, err := h.services.Job.CreateExportJob(c.Request.Context(), currentActor(c), q)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to queue export job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue export"})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetJob handles GET /export/v1/jobs/:job_id
func (h *ExportHandler) GetJob(c *gin.Context) {
	job, err := h.services.Job.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load export job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job status"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// parseQuery reads the shared export query parameters.
func (h *ExportHandler) parseQuery(c *gin.Context) (service.ExportQuery, bool) {
	postType := models.RecordType(c.DefaultQuery("post_type", string(models.RecordTypeEntry)))
	if !postType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_type must be one of: entry, city"})
		return service.ExportQuery{}, false
	}

	page, _ := strconv.Atoi(c.DefaultQuery("paged", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(h.cfg.Export.MaxPerPage)))
	if perPage > h.cfg.Export.MaxPerPage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "per_page exceeds the maximum of " + strconv.Itoa(h.cfg.Export.MaxPerPage)})
		return service.ExportQuery{}, false
	}

	return service.ExportQuery{
		Type:    postType,
		Team:    c.Query("team"),
		Status:  c.DefaultQuery("status", models.StatusDraft),
		Page:    page,
		PerPage: perPage,
	}, true
}

// exportResponse shapes the JSON payload for export and preview responses.
func exportResponse(q service.ExportQuery, result *models.ExportResult) gin.H {
	return gin.H{
		"rows":       result.Rows,
		"columns":    result.Columns,
		"pagination": result.Pagination,
		"post_type":  q.Type,
		"team":       q.Team,
		"status":     q.Status,
	}
}
