package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/service/catalog"
)

// maxUploadBytes bounds catalog and photo uploads.
const maxUploadBytes = 10 << 20

// CatalogHandler serves product lookups and catalog maintenance.
type CatalogHandler struct {
	svc    *catalog.Service
	logger *zap.Logger
}

// NewCatalogHandler constructs the HTTP handler adapter.
func NewCatalogHandler(svc *catalog.Service, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

// Lookup answers GET /products/:code.
func (h *CatalogHandler) Lookup(c *gin.Context) {
	product, err := h.svc.Lookup(c.Request.Context(), sessionFrom(c), c.Param("code"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type createProductRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Section     string `json:"section"`
}

// Create answers POST /products.
func (h *CatalogHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	product, err := h.svc.Create(c.Request.Context(), sessionFrom(c), req.Code, req.Description, req.Section)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Import answers POST /products/import with a multipart "file" field.
func (h *CatalogHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, h.logger, badRequest("multipart field \"file\" is required: %v", err))
		return
	}
	file, err := header.Open()
	if err != nil {
		RespondError(c, h.logger, badRequest("unable to read upload: %v", err))
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.svc.Import(c.Request.Context(), sessionFrom(c), file)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
