package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
	"github.com/mamadbah2/recebimento/internal/server/handlers"
	"github.com/mamadbah2/recebimento/internal/service/access"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Catalog   *handlers.CatalogHandler
	Reception *handlers.ReceptionHandler
	Audit     *handlers.AuditHandler
	Report    *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authSvc *access.Service, reg *metrics.Registry, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(reg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(reg.Handler()))
	r.POST("/auth/login", h.Auth.Login)

	api := r.Group("/", authMiddleware(authSvc, logger))
	api.GET("/auth/me", h.Auth.Me)

	api.GET("/products/:code", h.Catalog.Lookup)
	api.POST("/products", h.Catalog.Create)
	api.POST("/products/import", h.Catalog.Import)

	api.POST("/receptions", h.Reception.Record)
	api.GET("/receptions/recent", h.Reception.Recent)
	api.GET("/receptions/consolidated", h.Reception.Consolidated)
	api.DELETE("/receptions/:id", h.Reception.Delete)
	api.GET("/receptions/:id/photo", h.Reception.Photo)

	api.POST("/audits", h.Audit.Create)
	api.GET("/audits/:id", h.Audit.Get)
	api.PATCH("/audits/:id/status", h.Audit.SetStatus)

	api.GET("/reports/audits", h.Report.Audits)
	api.GET("/reports/audits/export", h.Report.ExportAudits)
	api.GET("/reports/receptions", h.Report.Receptions)
	api.GET("/reports/receptions/export", h.Report.ExportReceptions)

	api.GET("/users", h.Auth.ListUsers)
	api.PUT("/users/:id", h.Auth.SaveUser)
	api.DELETE("/users/:id", h.Auth.DeleteUser)

	logger.Info("router initialized")
	return r
}

// authMiddleware resolves the bearer token into a session for the handlers.
func authMiddleware(authSvc *access.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			handlers.RespondError(c, logger, models.ErrUnauthorized)
			return
		}

		sess, err := authSvc.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			handlers.RespondError(c, logger, err)
			return
		}
		c.Set(handlers.SessionKey, sess)
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func metricsMiddleware(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		reg.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDHeader)))
	}
}
