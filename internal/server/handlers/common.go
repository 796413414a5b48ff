package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

// SessionKey is the gin context key holding the authenticated models.Session.
const SessionKey = "session"

func sessionFrom(c *gin.Context) models.Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}
	return models.Session{}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateCode):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes {"error": message}. Server errors are logged and
// their details hidden from the client.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{models.ErrValidation}, args...)...)
}

func idParam(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return uint(id), nil
}

// Quantity accepts a JSON number or string; strings may use a decimal comma.
type Quantity struct {
	set   bool
	value decimal.Decimal
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := models.ParseQuantity(raw)
	if err != nil {
		return err
	}
	q.set, q.value = true, v
	return nil
}

// Decimal returns the parsed value or ErrValidation naming field when the
// quantity was absent.
func (q Quantity) Decimal(field string) (decimal.Decimal, error) {
	if !q.set {
		return decimal.Zero, badRequest("%s is required", field)
	}
	return q.value, nil
}

// bindJSON wraps binding failures in ErrValidation, keeping the domain
// error when a Quantity rejected the value.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
