package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"staticblog/internal/repository"
	"staticblog/internal/services"
	"staticblog/internal/site"
	"staticblog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	root    string
	metrics *RequestMetrics
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := utils.InitDatabase("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	_, file, _, _ := runtime.Caller(0)
	renderer, err := site.NewRenderer(os.DirFS(filepath.Join(filepath.Dir(file), "..", "..", "templates")))
	require.NoError(t, err)
	root := t.TempDir()
	gen := site.NewGenerator(repository.NewContentStore(db), renderer, site.NewWriter(root))

	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	inv := services.NewInvalidator(gen)
	users := services.NewUserService(repository.NewUserRepository(db))
	_, err = users.EnsureAdmin(context.Background(), "admin", "correct horse", "admin@example.com")
	require.NoError(t, err)
	settings := services.NewSettingService(repository.NewSettingRepository(db), inv)

	requestMetrics, err := NewRequestMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	auth := NewAuthHandler(users)
	admin := NewAdminHandler(
		services.NewPostService(postRepo, categoryRepo, inv),
		services.NewCategoryService(categoryRepo, inv),
		settings,
		inv,
	)
	front := NewFrontHandler(site.NewFrontend(gen))

	r := gin.New()
	r.Use(requestMetrics.Handler())
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.POST("/login", auth.Login)
	g := r.Group("/admin", AuthMiddleware(users), SettingsMiddleware(settings))
	g.GET("/me", auth.Me)
	g.POST("/posts", admin.CreatePost)
	g.PUT("/posts/:id", admin.UpdatePost)
	g.DELETE("/posts/:id", admin.DeletePost)
	g.POST("/categories", admin.CreateCategory)
	g.DELETE("/categories/:id", admin.DeleteCategory)
	g.GET("/settings", admin.GetSettings)
	g.PUT("/settings", admin.UpdateSettings)
	r.GET("/", front.Serve)
	r.NoRoute(front.Serve)

	return &testServer{router: r, root: root, metrics: requestMetrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}

	var decoded map[string]any
	if json.Valid(w.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/login", map[string]string{"username": "admin", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", body["status"])

	w, _ = s.do(t, http.MethodPost, "/login", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.login(t)
	w, body = s.do(t, http.MethodGet, "/admin/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", user["username"])
}

func TestCreatePublishedPostRegenerates(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w, body := s.do(t, http.MethodPost, "/admin/posts", map[string]any{
		"title":   "Hello World",
		"content": "Some **markdown**.",
		"status":  "published",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["regenerated"])
	assert.NotContains(t, body, "warning")
	assert.FileExists(t, filepath.Join(s.root, "hello-world", "index.html"))
	assert.FileExists(t, filepath.Join(s.root, "feed.xml"))

	w, body = s.do(t, http.MethodPost, "/admin/posts", map[string]any{"title": "Draft", "content": "x"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, body["regenerated"])
	assert.NoFileExists(t, filepath.Join(s.root, "draft", "index.html"))
}

func TestAdminErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w, body := s.do(t, http.MethodPost, "/admin/posts", map[string]any{"title": "", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", body["field"])

	w, _ = s.do(t, http.MethodPost, "/admin/categories", map[string]any{"name": "Go"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(t, http.MethodPost, "/admin/categories", map[string]any{"name": "Golang", "slug": "go"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/admin/categories/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/admin/posts/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/admin/posts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/admin/settings", map[string]string{"posts_per_page": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFrontHandler(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(site.OutcomeGenerated), w.Header().Get("X-Cache"))

	w, _ = s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, string(site.OutcomeCacheHit), w.Header().Get("X-Cache"))

	w, _ = s.do(t, http.MethodGet, "/no-such-post/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.NoFileExists(t, filepath.Join(s.root, "no-such-post", "index.html"))

	w, _ = s.do(t, http.MethodPost, "/anything", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.requestCount.WithLabelValues("GET", "frontend", "404")))
	assert.Equal(t, float64(2), testutil.ToFloat64(s.metrics.requestCount.WithLabelValues("GET", "/", "200")))
}
