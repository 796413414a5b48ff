package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/service/access"
)

// AuthHandler serves login and user administration.
type AuthHandler struct {
	svc    *access.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc *access.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	User     string `json:"user" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	token, sess, err := h.svc.Login(c.Request.Context(), req.User, req.Password)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": sess})
}

// Me returns the session behind the token.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c))
}

// ListUsers returns every account.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), sessionFrom(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type saveUserRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
	Password    string `json:"password"`
}

// SaveUser creates or updates the account named in the path.
func (h *AuthHandler) SaveUser(c *gin.Context) {
	var req saveUserRequest
	if err := bindJSON(c, &req); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	user, err := h.svc.SaveUser(c.Request.Context(), sessionFrom(c), access.UserInput{
		ID:          c.Param("id"),
		DisplayName: req.DisplayName,
		Role:        models.Role(req.Role),
		Password:    req.Password,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes the account named in the path.
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), sessionFrom(c), c.Param("id")); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
