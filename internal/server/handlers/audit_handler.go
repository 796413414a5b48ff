package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/service/auditing"
)

// AuditHandler serves the audit ledger.
type AuditHandler struct {
	svc    *auditing.Service
	logger *zap.Logger
}

// NewAuditHandler constructs the HTTP handler adapter.
func NewAuditHandler(svc *auditing.Service, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{svc: svc, logger: logger}
}

type auditRequest struct {
	ProductCode       string   `json:"product_code"`
	ReceptionID       uint     `json:"reception_id"`
	Mode              string   `json:"mode"`
	ReferenceQuantity Quantity `json:"reference_quantity"`
	Note              string   `json:"note"`
}

// Create answers POST /audits.
func (h *AuditHandler) Create(c *gin.Context) {
	var req auditRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	reference, err := req.ReferenceQuantity.Decimal("reference_quantity")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	// an empty mode lets the service apply its configured default
	mode, err := models.ParseAuditMode(req.Mode, "")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	record, err := h.svc.Audit(c.Request.Context(), sessionFrom(c), models.AuditInput{
		ProductCode:       req.ProductCode,
		ReceptionID:       req.ReceptionID,
		Mode:              mode,
		ReferenceQuantity: reference,
		Note:              req.Note,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Get answers GET /audits/:id.
func (h *AuditHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	record, err := h.svc.Get(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus answers PATCH /audits/:id/status.
func (h *AuditHandler) SetStatus(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	status, err := models.ParseAuditStatus(req.Status)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	record, err := h.svc.SetStatus(c.Request.Context(), sessionFrom(c), id, status)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
