package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/service/reporting"
	"github.com/mamadbah2/recebimento/internal/spreadsheet"
)

// ReportHandler serves ledger reports and spreadsheet exports.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// filter reads from, to (YYYY-MM-DD), status, unresolved and submitter.
func (h *ReportHandler) filter(c *gin.Context) (models.ReportFilter, error) {
	from, err := h.svc.ParseDate(c.Query("from"))
	if err != nil {
		return models.ReportFilter{}, err
	}
	to, err := h.svc.ParseDate(c.Query("to"))
	if err != nil {
		return models.ReportFilter{}, err
	}

	f := models.ReportFilter{
		From:      from,
		To:        to,
		Status:    models.AuditStatus(c.Query("status")),
		Submitter: c.Query("submitter"),
	}
	if raw := c.Query("unresolved"); raw != "" {
		f.Unresolved, err = strconv.ParseBool(raw)
		if err != nil {
			return models.ReportFilter{}, badRequest("invalid unresolved flag %q", raw)
		}
	}
	return f, nil
}

// Audits answers GET /reports/audits.
func (h *ReportHandler) Audits(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	records, err := h.svc.QueryAudits(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ExportAudits answers GET /reports/audits/export.
func (h *ReportHandler) ExportAudits(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	data, err := h.svc.ExportAudits(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	attachment(c, spreadsheet.AuditsFilename, data)
}

// Receptions answers GET /reports/receptions.
func (h *ReportHandler) Receptions(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	records, err := h.svc.QueryReceptions(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ExportReceptions answers GET /reports/receptions/export.
func (h *ReportHandler) ExportReceptions(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	data, err := h.svc.ExportReceptions(c.Request.Context(), sessionFrom(c), f)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	attachment(c, spreadsheet.ReceptionsFilename, data)
}

func attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, spreadsheet.ContentType, data)
}
