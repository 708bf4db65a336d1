package handlers

import (
	"errors"
	"log"
	"net/http"

	"staticblog/internal/constants"
	"staticblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the session's user into a request-scoped
// principal. Requests without one are rejected.
func AuthMiddleware(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(constants.SessionKeyUserID).(uint)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "login required"})
			return
		}

		principal, err := userService.Principal(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				log.Printf("Failed to load user %d: %v", userID, err)
			}
			session.Clear()
			session.Save()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "login required"})
			return
		}

		c.Set(constants.ContextKeyPrincipal, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal set by AuthMiddleware, or nil.
func CurrentPrincipal(c *gin.Context) *services.Principal {
	v, ok := c.Get(constants.ContextKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}

// SettingsMiddleware puts the cached settings into the request context.
func SettingsMiddleware(settingService *services.SettingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeySettings, settingService.GetAllSettings())
		c.Next()
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	isValidation := errors.As(err, &verr)
	switch {
	case errors.Is(err, services.ErrSlugTaken):
		c.JSON(http.StatusConflict, errorBody(err, verr))
	case isValidation:
		c.JSON(http.StatusBadRequest, errorBody(err, verr))
	case errors.Is(err, services.ErrProtectedCategory):
		c.JSON(http.StatusForbidden, errorBody(err, nil))
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody(err, nil))
	default:
		log.Printf("Admin request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
	}
}

func errorBody(err error, verr *services.ValidationError) gin.H {
	body := gin.H{"status": "error", "message": err.Error()}
	if verr != nil {
		body["field"] = verr.Field
	}
	return body
}

// respondOutcome writes a successful mutation with its regeneration outcome.
func respondOutcome(c *gin.Context, status int, key string, value any, outcome services.Outcome) {
	body := gin.H{"status": "success", "regenerated": outcome.Regenerated}
	if key != "" {
		body[key] = value
	}
	if outcome.Warning != "" {
		body["warning"] = outcome.Warning
	}
	c.JSON(status, body)
}
