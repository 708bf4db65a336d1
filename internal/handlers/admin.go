package handlers

import (
	"net/http"
	"strconv"

	"staticblog/internal/constants"
	"staticblog/internal/services"
	"staticblog/internal/utils"

	"github.com/gin-gonic/gin"
)

const adminPageSize = 20

type AdminHandler struct {
	postService     *services.PostService
	categoryService *services.CategoryService
	settingService  *services.SettingService
	invalidator     *services.Invalidator
}

func NewAdminHandler(postService *services.PostService, categoryService *services.CategoryService, settingService *services.SettingService, invalidator *services.Invalidator) *AdminHandler {
	return &AdminHandler{
		postService:     postService,
		categoryService: categoryService,
		settingService:  settingService,
		invalidator:     invalidator,
	}
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *AdminHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	status := c.DefaultQuery("status", "all")

	posts, total, err := h.postService.List(c.Request.Context(), page, adminPageSize, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"posts":      posts,
		"total":      total,
		"pagination": utils.GeneratePagination(page, utils.TotalPages(total, adminPageSize)),
	})
}

func (h *AdminHandler) GetPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "post": post})
}

func (h *AdminHandler) CreatePost(c *gin.Context) {
	var in services.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	post, outcome, err := h.postService.Create(c.Request.Context(), CurrentPrincipal(c).UserID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, "post", post, outcome)
}

func (h *AdminHandler) UpdatePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	post, outcome, err := h.postService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, "post", post, outcome)
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	outcome, err := h.postService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, "", nil, outcome)
}

func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "categories": categories})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	category, outcome, err := h.categoryService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, "category", category, outcome)
}

func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	category, outcome, err := h.categoryService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, "category", category, outcome)
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	outcome, err := h.categoryService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, "", nil, outcome)
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, ok := c.Get(constants.ContextKeySettings)
	if !ok {
		settings = h.settingService.GetAllSettings()
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "settings": settings})
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	outcome, err := h.settingService.UpdateSettings(c.Request.Context(), values)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOutcome(c, http.StatusOK, "settings", h.settingService.GetAllSettings(), outcome)
}

// Regenerate rebuilds the whole site on request.
func (h *AdminHandler) Regenerate(c *gin.Context) {
	respondOutcome(c, http.StatusOK, "", nil, h.invalidator.Regenerate(c.Request.Context()))
}
