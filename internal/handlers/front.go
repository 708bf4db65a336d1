package handlers

import (
	"net/http"

	"staticblog/internal/site"

	"github.com/gin-gonic/gin"
)

// FrontHandler serves the public site through the front controller.
type FrontHandler struct {
	frontend *site.Frontend
}

func NewFrontHandler(frontend *site.Frontend) *FrontHandler {
	return &FrontHandler{frontend: frontend}
}

func (h *FrontHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}
	resp := h.frontend.Serve(c.Request.Context(), c.Request.URL)
	c.Header("X-Cache", string(resp.Outcome))
	c.Data(resp.Status, resp.ContentType, resp.Body)
}
