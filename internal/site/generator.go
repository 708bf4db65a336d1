package site

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/utils"

	"golang.org/x/sync/errgroup"
)

// ErrNoContent means a route names nothing that is currently published.
// It is a normal outcome, not a failure.
var ErrNoContent = errors.New("no published content for route")

// ContentStore is the read side of the database the generator needs.
type ContentStore interface {
	CountPublished(ctx context.Context) (int64, error)
	FindPublishedPage(ctx context.Context, limit, offset int) ([]models.Post, error)
	FindAllPublished(ctx context.Context) ([]models.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindCategoriesForPost(ctx context.Context, postID uint) ([]models.Category, error)
	FindAllCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindPublishedByCategory(ctx context.Context, categoryID uint) ([]models.Post, error)
	FindArchiveMonths(ctx context.Context) ([]models.ArchiveMonth, error)
	FindPublishedBetween(ctx context.Context, from, to time.Time) ([]models.Post, error)
	CountPublishedBetween(ctx context.Context, from, to time.Time) (int64, error)
	FindAdjacentPublished(ctx context.Context, at time.Time, older bool) (*models.Post, error)
	GetAllSettings(ctx context.Context) (map[string]string, error)
}

// RouteResult is the outcome of one route in a full regeneration.
type RouteResult struct {
	Route   Route
	Path    string
	Skipped bool
	Err     error
}

// Report summarises a full regeneration.
type Report struct {
	Routes   []RouteResult
	Removed  []string
	Duration time.Duration
}

func (r *Report) Written() int {
	n := 0
	for _, res := range r.Routes {
		if res.Err == nil && !res.Skipped {
			n++
		}
	}
	return n
}

// Err joins every route failure, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Routes {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Route, res.Err))
		}
	}
	return errors.Join(errs...)
}

type Generator struct {
	store    ContentStore
	renderer *Renderer
	writer   *Writer
	metrics  *Metrics
	workers  int
	prune    bool

	// regenMu serialises full regenerations.
	regenMu sync.Mutex
}

type GeneratorOption func(*Generator)

// WithWorkers bounds the number of routes rendered concurrently.
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

func WithMetrics(m *Metrics) GeneratorOption {
	return func(g *Generator) { g.metrics = m }
}

// WithPrune makes full regeneration delete generated files of routes that
// no longer have content.
func WithPrune(prune bool) GeneratorOption {
	return func(g *Generator) { g.prune = prune }
}

func NewGenerator(store ContentStore, renderer *Renderer, writer *Writer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		store:    store,
		renderer: renderer,
		writer:   writer,
		workers:  runtime.GOMAXPROCS(0),
		prune:    true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Writer() *Writer { return g.writer }

// Metrics may be nil.
func (g *Generator) Metrics() *Metrics { return g.metrics }

func (g *Generator) loadSite(ctx context.Context) (Site, error) {
	settings, err := g.store.GetAllSettings(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("load settings: %w", err)
	}
	categories, err := g.store.FindAllCategories(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("load categories: %w", err)
	}
	return Site{Settings: SettingsFromMap(settings), Categories: categories}, nil
}

// Routes enumerates every route implied by the published content. Category
// routes are listed for every category; those without published posts are
// skipped during generation.
func (g *Generator) Routes(ctx context.Context, site Site) ([]Route, error) {
	total, err := g.store.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("count published posts: %w", err)
	}
	pages := max(1, utils.TotalPages(total, site.Settings.PostsPerPage))
	routes := make([]Route, 0, pages+int(total)+len(site.Categories)+1)
	for n := 1; n <= pages; n++ {
		routes = append(routes, HomeRoute(n))
	}

	posts, err := g.store.FindAllPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	for _, p := range posts {
		routes = append(routes, PostRoute(p.Slug))
	}

	for _, c := range site.Categories {
		routes = append(routes, CategoryRoute(c.Slug))
	}

	months, err := g.store.FindArchiveMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive months: %w", err)
	}
	lastYear := 0
	for _, m := range months {
		if m.Year != lastYear {
			routes = append(routes, YearRoute(m.Year))
			lastYear = m.Year
		}
		routes = append(routes, MonthRoute(m.Year, m.Month))
	}

	return append(routes, FeedRoute()), nil
}

// Regenerate renders and writes every route. A failing route does not stop
// the others; the returned error joins all route failures. Stale files are
// removed only when every route succeeded.
func (g *Generator) Regenerate(ctx context.Context) (*Report, error) {
	g.regenMu.Lock()
	defer g.regenMu.Unlock()

	start := time.Now()
	report := &Report{}
	err := g.regenerate(ctx, report)
	report.Duration = time.Since(start)
	g.metrics.observeRegeneration(report.Duration.Seconds(), err != nil)

	if err != nil {
		log.Printf("Site regeneration failed after %s: %v", report.Duration, err)
		return report, err
	}
	log.Printf("Site regenerated: %d files written, %d routes skipped, %d stale files removed in %s",
		report.Written(), len(report.Routes)-report.Written(), len(report.Removed), report.Duration)
	return report, nil
}

func (g *Generator) regenerate(ctx context.Context, report *Report) error {
	site, err := g.loadSite(ctx)
	if err != nil {
		return err
	}
	routes, err := g.Routes(ctx, site)
	if err != nil {
		return err
	}

	report.Routes = make([]RouteResult, len(routes))
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i, route := range routes {
		i, route := i, route
		eg.Go(func() error {
			res := RouteResult{Route: route}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Path, res.Err = g.generate(ctx, site, route)
			}
			if errors.Is(res.Err, ErrNoContent) {
				res.Skipped, res.Err = true, nil
			}
			report.Routes[i] = res
			return nil
		})
	}
	eg.Wait()

	routeErr := report.Err()
	// A failed fetch cannot tell stale files from live ones.
	if g.prune && routeErr == nil {
		keep := make(map[string]bool, len(routes))
		for _, res := range report.Routes {
			if res.Skipped {
				continue
			}
			keep[res.Route.Path()] = true
			for _, alias := range res.Route.Aliases() {
				keep[alias] = true
			}
		}
		removed, err := g.writer.Reconcile(keep)
		report.Removed = removed
		g.metrics.observeStale(len(removed))
		if err != nil {
			return err
		}
	}
	return routeErr
}

// Generate renders and writes a single route. It returns ErrNoContent,
// wrapped, when the route names nothing published; no file is written then.
func (g *Generator) Generate(ctx context.Context, route Route) (string, error) {
	if err := route.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoContent, err)
	}
	site, err := g.loadSite(ctx)
	if err != nil {
		return "", err
	}
	return g.generate(ctx, site, route)
}

func (g *Generator) generate(ctx context.Context, site Site, route Route) (string, error) {
	data, err := g.fetch(ctx, site, route)
	if err != nil {
		g.observe(route, err)
		return "", err
	}
	doc, err := g.renderer.Render(route.Kind, data, site)
	if err != nil {
		g.observe(route, err)
		return "", err
	}
	path, err := g.writer.Write(route, doc)
	g.observe(route, err)
	return path, err
}

func (g *Generator) observe(route Route, err error) {
	switch {
	case err == nil:
		g.metrics.observeRoute(route.Kind, "written")
	case errors.Is(err, ErrNoContent):
		g.metrics.observeRoute(route.Kind, "skipped")
	default:
		g.metrics.observeRoute(route.Kind, "error")
	}
}

// RenderNotFound renders the not-found document. When the store cannot be
// read it still renders, with default settings and no category navigation.
func (g *Generator) RenderNotFound(ctx context.Context) ([]byte, error) {
	site, err := g.loadSite(ctx)
	if err != nil {
		log.Printf("Rendering 404 page with default settings: %v", err)
		site = Site{Settings: SettingsFromMap(nil)}
	}
	return g.renderer.Render(KindNotFound, nil, site)
}

// fetch loads exactly the data one route needs.
func (g *Generator) fetch(ctx context.Context, site Site, route Route) (any, error) {
	switch route.Kind {
	case KindHome:
		return g.fetchListing(ctx, site, route.Page)
	case KindPost:
		return g.fetchPost(ctx, route.Slug)
	case KindCategory:
		return g.fetchCategory(ctx, route.Slug)
	case KindMonth:
		return g.fetchMonth(ctx, route.Year, route.Month)
	case KindYear:
		return g.fetchYear(ctx, route.Year)
	case KindFeed:
		posts, err := g.store.FindPublishedPage(ctx, FeedSize, 0)
		if err != nil {
			return nil, fmt.Errorf("load feed posts: %w", err)
		}
		return &FeedPage{Posts: posts}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrInvalidRoute, route.Kind)
}

func (g *Generator) fetchListing(ctx context.Context, site Site, page int) (*ListingPage, error) {
	perPage := site.Settings.PostsPerPage
	total, err := g.store.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("count published posts: %w", err)
	}
	totalPages := utils.TotalPages(total, perPage)
	// The first page exists even for an empty site.
	if page > max(1, totalPages) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrNoContent, page, totalPages)
	}
	posts, err := g.store.FindPublishedPage(ctx, perPage, utils.PageOffset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	return &ListingPage{Posts: posts, Page: page, TotalPages: totalPages}, nil
}

func (g *Generator) fetchPost(ctx context.Context, slug string) (*PostPage, error) {
	post, err := g.store.FindPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load post %q: %w", slug, err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post %q", ErrNoContent, slug)
	}
	categories, err := g.store.FindCategoriesForPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("load categories of %q: %w", slug, err)
	}
	at := post.PublishedTime()
	prev, err := g.store.FindAdjacentPublished(ctx, at, true)
	if err != nil {
		return nil, fmt.Errorf("load post before %q: %w", slug, err)
	}
	next, err := g.store.FindAdjacentPublished(ctx, at, false)
	if err != nil {
		return nil, fmt.Errorf("load post after %q: %w", slug, err)
	}
	return &PostPage{Post: *post, Categories: categories, Prev: prev, Next: next}, nil
}

func (g *Generator) fetchCategory(ctx context.Context, slug string) (*CategoryPage, error) {
	category, err := g.store.FindCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load category %q: %w", slug, err)
	}
	if category == nil {
		return nil, fmt.Errorf("%w: category %q", ErrNoContent, slug)
	}
	posts, err := g.store.FindPublishedByCategory(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("load posts of category %q: %w", slug, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: category %q is empty", ErrNoContent, slug)
	}
	return &CategoryPage{Category: *category, Posts: posts}, nil
}

func (g *Generator) fetchMonth(ctx context.Context, year, month int) (*MonthArchivePage, error) {
	from, to := MonthBounds(year, month)
	posts, err := g.store.FindPublishedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load archive %04d-%02d: %w", year, month, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: archive %04d-%02d", ErrNoContent, year, month)
	}
	page := &MonthArchivePage{Year: year, Month: month, Posts: posts}
	if page.HasPrev, err = g.hasPosts(ctx, monthSpan(PrevMonth(year, month))); err != nil {
		return nil, err
	}
	if page.HasNext, err = g.hasPosts(ctx, monthSpan(NextMonth(year, month))); err != nil {
		return nil, err
	}
	return page, nil
}

func (g *Generator) fetchYear(ctx context.Context, year int) (*YearArchivePage, error) {
	from, to := YearBounds(year)
	posts, err := g.store.FindPublishedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load archive %04d: %w", year, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: archive %04d", ErrNoContent, year)
	}
	page := &YearArchivePage{Year: year, Posts: posts}
	if page.HasPrev, err = g.hasPosts(ctx, yearSpan(year-1)); err != nil {
		return nil, err
	}
	if page.HasNext, err = g.hasPosts(ctx, yearSpan(year+1)); err != nil {
		return nil, err
	}
	return page, nil
}

type span struct{ from, to time.Time }

func monthSpan(year, month int) span {
	from, to := MonthBounds(year, month)
	return span{from, to}
}

func yearSpan(year int) span {
	from, to := YearBounds(year)
	return span{from, to}
}

func (g *Generator) hasPosts(ctx context.Context, s span) (bool, error) {
	from, to := s.from, s.to
	n, err := g.store.CountPublishedBetween(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("count posts in [%s, %s): %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	return n > 0, nil
}
