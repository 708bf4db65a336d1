package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staticblog/internal/constants"
	"staticblog/internal/handlers"
	"staticblog/internal/repository"
	"staticblog/internal/services"
	"staticblog/internal/site"
	"staticblog/internal/utils"

	"github.com/alecthomas/kong"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global filesystems that will be populated by either assets_dev.go or assets_prod.go at startup.
var templatesFS fs.FS
var staticFS fs.FS

var CLI struct {
	Database string `help:"SQLite database path." default:"staticblog.db" env:"STATICBLOG_DB"`
	Output   string `help:"Root directory of the generated site." default:"public" env:"STATICBLOG_OUTPUT"`
	Workers  int    `help:"Routes rendered in parallel during full regeneration." default:"4" env:"STATICBLOG_WORKERS"`
	Minify   bool   `help:"Minify generated HTML and XML." env:"STATICBLOG_MINIFY"`
	NoPrune  bool   `help:"Keep generated files whose content is gone." env:"STATICBLOG_NO_PRUNE"`

	Serve struct {
		Addr          string `help:"Listen address." default:":8080" env:"STATICBLOG_ADDR"`
		SessionSecret string `help:"Secret used to sign session cookies." env:"STATICBLOG_SESSION_SECRET" required:""`
		Unsafe        bool   `help:"Allow insecure cookies (plain HTTP)." env:"STATICBLOG_UNSAFE_COOKIES"`
		Regenerate    bool   `help:"Regenerate the whole site before serving." env:"STATICBLOG_REGENERATE_ON_START"`
	} `cmd:"" default:"withargs" help:"Serve the site and the admin API."`

	Regenerate struct{} `cmd:"" help:"Regenerate every static file and exit."`

	Setup struct {
		Username string `help:"Admin username." default:"admin" env:"STATICBLOG_ADMIN_USER"`
		Password string `help:"Admin password." env:"STATICBLOG_ADMIN_PASSWORD" required:""`
		Email    string `help:"Admin email address." env:"STATICBLOG_ADMIN_EMAIL"`
	} `cmd:"" help:"Create the database, default settings and admin user."`

	Import struct {
		Dir    string `arg:"" type:"existingdir" help:"Directory of markdown files with YAML front matter."`
		Author string `help:"Username the posts are attributed to." default:"admin"`
	} `cmd:"" help:"Import markdown posts."`

	Seed struct {
		Count  int    `help:"Number of posts to create." default:"100"`
		Author string `help:"Username the posts are attributed to." default:"admin"`
	} `cmd:"" help:"Fill the database with sample posts for load testing."`
}

// app wires the repositories, services and generator of one process.
type app struct {
	registry     *prometheus.Registry
	generator    *site.Generator
	postRepo     *repository.PostRepository
	categoryRepo *repository.CategoryRepository
	invalidator  *services.Invalidator
	users        *services.UserService
	posts        *services.PostService
	categories   *services.CategoryService
	settings     *services.SettingService
	imports      *services.ImportService
}

func newApp() (*app, error) {
	db, err := utils.InitDatabase(CLI.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := site.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	var rendererOpts []site.RendererOption
	if CLI.Minify {
		rendererOpts = append(rendererOpts, site.WithMinify())
	}
	renderer, err := site.NewRenderer(templatesFS, rendererOpts...)
	if err != nil {
		return nil, err
	}
	generator := site.NewGenerator(
		repository.NewContentStore(db),
		renderer,
		site.NewWriter(CLI.Output),
		site.WithWorkers(CLI.Workers),
		site.WithMetrics(metrics),
		site.WithPrune(!CLI.NoPrune),
	)

	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	invalidator := services.NewInvalidator(generator)

	return &app{
		registry:     registry,
		generator:    generator,
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		invalidator:  invalidator,
		users:        services.NewUserService(repository.NewUserRepository(db)),
		posts:        services.NewPostService(postRepo, categoryRepo, invalidator),
		categories:   services.NewCategoryService(categoryRepo, invalidator),
		settings:     services.NewSettingService(repository.NewSettingRepository(db), invalidator),
		imports:      services.NewImportService(postRepo, categoryRepo, invalidator),
	}, nil
}

func (a *app) router(sessionSecret string, unsafe bool) (*gin.Engine, error) {
	requestMetrics, err := handlers.NewRequestMetrics(a.registry)
	if err != nil {
		return nil, err
	}

	frontHandler := handlers.NewFrontHandler(site.NewFrontend(a.generator))
	authHandler := handlers.NewAuthHandler(a.users)
	adminHandler := handlers.NewAdminHandler(a.posts, a.categories, a.settings, a.invalidator)

	r := gin.Default()
	r.Use(requestMetrics.Handler())

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   !unsafe,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("staticblog_session", store))

	r.StaticFS("/static", http.FS(staticFS))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	admin := r.Group("/admin")
	admin.Use(handlers.AuthMiddleware(a.users), handlers.SettingsMiddleware(a.settings))
	{
		admin.GET("/me", authHandler.Me)
		admin.PUT("/password", authHandler.ChangePassword)

		admin.GET("/posts", adminHandler.ListPosts)
		admin.POST("/posts", adminHandler.CreatePost)
		admin.GET("/posts/:id", adminHandler.GetPost)
		admin.PUT("/posts/:id", adminHandler.UpdatePost)
		admin.DELETE("/posts/:id", adminHandler.DeletePost)

		admin.GET("/categories", adminHandler.ListCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.PUT("/categories/:id", adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSettings)

		admin.POST("/regenerate", adminHandler.Regenerate)
	}

	// Everything else is the public site.
	r.GET("/", frontHandler.Serve)
	r.HEAD("/", frontHandler.Serve)
	r.NoRoute(frontHandler.Serve)
	return r, nil
}

func runServe(ctx context.Context, a *app) error {
	if CLI.Serve.Regenerate {
		if _, err := a.generator.Regenerate(ctx); err != nil {
			log.Printf("Initial regeneration finished with errors: %v", err)
		}
	}
	r, err := a.router(CLI.Serve.SessionSecret, CLI.Serve.Unsafe)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: CLI.Serve.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s, writing pages to %s", CLI.Serve.Addr, a.generator.Writer().Root())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runRegenerate(ctx context.Context, a *app) error {
	report, err := a.generator.Regenerate(ctx)
	if report != nil {
		for _, res := range report.Routes {
			if res.Err != nil {
				log.Printf("  %s: %v", res.Route, res.Err)
			}
		}
	}
	return err
}

func runSetup(ctx context.Context, a *app) error {
	created, err := a.users.EnsureAdmin(ctx, CLI.Setup.Username, CLI.Setup.Password, CLI.Setup.Email)
	if err != nil {
		return err
	}
	if created {
		log.Printf("Created admin user %q", CLI.Setup.Username)
	} else {
		log.Printf("Admin user %q already exists", CLI.Setup.Username)
	}
	if CLI.Setup.Email != "" {
		if _, err := a.settings.UpdateSettings(ctx, map[string]string{constants.SettingAdminEmail: CLI.Setup.Email}); err != nil {
			return err
		}
	}
	_, err = a.generator.Regenerate(ctx)
	return err
}

func runImport(ctx context.Context, a *app) error {
	principal, err := a.users.PrincipalByName(ctx, CLI.Import.Author)
	if err != nil {
		return err
	}
	report, err := a.imports.ImportDir(ctx, CLI.Import.Dir, principal.UserID)
	if err != nil {
		return err
	}
	log.Printf("Imported %d posts, %d failed", len(report.Imported), len(report.Failed))
	if report.Outcome.Warning != "" {
		log.Println(report.Outcome.Warning)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}
	kctx := kong.Parse(&CLI,
		kong.Name("staticblog"),
		kong.Description("A blog that renders its content to static files."),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	switch kctx.Command() {
	case "serve":
		err = runServe(ctx, a)
	case "regenerate":
		err = runRegenerate(ctx, a)
	case "setup":
		err = runSetup(ctx, a)
	case "import <dir>":
		err = runImport(ctx, a)
	case "seed":
		err = runSeed(ctx, a)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil {
		log.Fatalf("%s failed: %v", kctx.Command(), err)
	}
}
