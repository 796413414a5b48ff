package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/service/receiving"
)

// ReceptionHandler serves the reception ledger.
type ReceptionHandler struct {
	svc    *receiving.Service
	logger *zap.Logger
}

// NewReceptionHandler constructs the HTTP handler adapter.
func NewReceptionHandler(svc *receiving.Service, logger *zap.Logger) *ReceptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceptionHandler{svc: svc, logger: logger}
}

type receptionRequest struct {
	ProductCode string   `json:"product_code"`
	Quantity    Quantity `json:"quantity"`
	Note        string   `json:"note"`
	Condition   string   `json:"condition"`
	Description string   `json:"description"`
	Section     string   `json:"section"`
}

// Record answers POST /receptions. JSON bodies carry no photo; multipart
// forms may attach one in the "photo" field.
func (h *ReceptionHandler) Record(c *gin.Context) {
	var (
		in  models.ReceptionInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = h.fromForm(c)
	} else {
		in, err = h.fromJSON(c)
	}
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	record, err := h.svc.Record(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *ReceptionHandler) fromJSON(c *gin.Context) (models.ReceptionInput, error) {
	var req receptionRequest
	if err := bindJSON(c, &req); err != nil {
		return models.ReceptionInput{}, err
	}
	qty, err := req.Quantity.Decimal("quantity")
	if err != nil {
		return models.ReceptionInput{}, err
	}
	condition, err := models.ParseCondition(req.Condition)
	if err != nil {
		return models.ReceptionInput{}, err
	}
	return models.ReceptionInput{
		ProductCode: req.ProductCode,
		Quantity:    qty,
		Note:        req.Note,
		Condition:   condition,
		Description: req.Description,
		Section:     req.Section,
	}, nil
}

func (h *ReceptionHandler) fromForm(c *gin.Context) (models.ReceptionInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	qty, err := models.ParseQuantity(c.PostForm("quantity"))
	if err != nil {
		return models.ReceptionInput{}, err
	}
	condition, err := models.ParseCondition(c.PostForm("condition"))
	if err != nil {
		return models.ReceptionInput{}, err
	}

	in := models.ReceptionInput{
		ProductCode: c.PostForm("product_code"),
		Quantity:    qty,
		Note:        c.PostForm("note"),
		Condition:   condition,
		Description: c.PostForm("description"),
		Section:     c.PostForm("section"),
	}

	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return models.ReceptionInput{}, badRequest("unable to read photo: %v", err)
	}
	file, err := header.Open()
	if err != nil {
		return models.ReceptionInput{}, badRequest("unable to read photo: %v", err)
	}
	defer func() { _ = file.Close() }()

	in.EvidencePhoto, err = io.ReadAll(file)
	if err != nil {
		return models.ReceptionInput{}, badRequest("unable to read photo: %v", err)
	}
	return in, nil
}

// Recent answers GET /receptions/recent?limit=N.
func (h *ReceptionHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, h.logger, badRequest("invalid limit %q", raw))
			return
		}
		limit = n
	}

	records, err := h.svc.Recent(c.Request.Context(), sessionFrom(c), limit)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Consolidated answers GET /receptions/consolidated.
func (h *ReceptionHandler) Consolidated(c *gin.Context) {
	totals, err := h.svc.Consolidated(c.Request.Context(), sessionFrom(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Delete answers DELETE /receptions/:id.
func (h *ReceptionHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), sessionFrom(c), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Photo answers GET /receptions/:id/photo with the raw image.
func (h *ReceptionHandler) Photo(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	photo, err := h.svc.Photo(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(photo), photo)
}
