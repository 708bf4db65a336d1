package handlers

import (
	"errors"
	"net/http"

	"staticblog/internal/constants"
	"staticblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and password are required"})
		return
	}

	principal, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidLogin) {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.SessionKeyUserID, principal.UserID)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": principal})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	session.Save()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Me returns the principal of the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": CurrentPrincipal(c)})
}

type passwordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	principal := CurrentPrincipal(c)
	if err := h.userService.ChangePassword(c.Request.Context(), principal.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
