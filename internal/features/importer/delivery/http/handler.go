package http

import (
	"errors"
	"net/http"

	"data-importer-backend/internal/features/importer/service"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	service service.ImportService
}

func NewImportHandler(service service.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/import")
	{
		imports.POST("/start", h.startImport)
		imports.POST("/dry-run", h.dryRun)
		imports.GET("/status/:id", h.importStatus)
	}
}

// startImport запускает импорт в фоне и сразу отвечает идентификатором
// запуска; готовый отчёт забирается через /import/status/:id.
func (h *ImportHandler) startImport(c *gin.Context) {
	runID, err := h.service.Start(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrConcurrentRun) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "import is already running"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": "started"})
}

// dryRun выполняет выборку и обработку без записи в хранилище.
func (h *ImportHandler) dryRun(c *gin.Context) {
	report, err := h.service.DryRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrConcurrentRun) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "import is already running"})
			return
		}
		if report != nil {
			// Неуспешный прогон всё равно несёт отчёт со счётчиками
			c.JSON(http.StatusOK, report)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ImportHandler) importStatus(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
