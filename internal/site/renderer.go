package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"regexp"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/utils"

	"github.com/gin-contrib/multitemplate"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	mxml "github.com/tdewolff/minify/v2/xml"
)

const (
	htmlMediaType = "text/html"
	feedMediaType = "application/rss+xml"
)

// pageTemplates lists the files of each page kind; base.html comes first so
// it is the template that gets executed.
var pageTemplates = map[Kind][]string{
	KindHome:     {"base.html", "index.html", "_summary.html", "_pagination.html"},
	KindPost:     {"base.html", "post.html"},
	KindCategory: {"base.html", "category.html", "_summary.html"},
	KindMonth:    {"base.html", "archive_month.html", "_summary.html"},
	KindYear:     {"base.html", "archive_year.html", "_summary.html"},
	KindNotFound: {"base.html", "404.html"},
}

// Renderer turns page data into documents. It performs no I/O after construction.
type Renderer struct {
	templates multitemplate.Render
	minifier  *minify.M
}

type RendererOption func(*Renderer)

// WithMinify minifies every rendered document.
func WithMinify() RendererOption {
	return func(r *Renderer) {
		m := minify.New()
		m.Add(htmlMediaType, &mhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		m.AddRegexp(regexp.MustCompile(`[/+]xml$`), &mxml.Minifier{})
		r.minifier = m
	}
}

// NewRenderer parses the page templates found in templatesFS.
func NewRenderer(templatesFS fs.FS, opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{templates: multitemplate.New()}
	for kind, files := range pageTemplates {
		tpl, err := template.New(files[0]).Funcs(templateFuncs).ParseFS(templatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", kind, err)
		}
		r.templates.Add(string(kind), tpl)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

var templateFuncs = template.FuncMap{
	"pageURL":     func(n int) string { return HomeRoute(n).URL() },
	"categoryURL": func(slug string) string { return CategoryRoute(slug).URL() },
	"monthURL":    func(y, m int) string { return MonthRoute(y, m).URL() },
	"yearURL":     func(y int) string { return YearRoute(y).URL() },
	"monthName":   func(m int) string { return time.Month(m).String() },
	"formatDate":  func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
	"isoDate":     func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// view is the root object handed to every HTML template.
type view struct {
	Site        Site
	Title       string
	Description string
	Canonical   string
	Page        any
}

type summaryView struct {
	Title         string
	URL           string
	Excerpt       string
	Author        string
	FeaturedImage string
	PublishedAt   time.Time
}

type listingView struct {
	Posts      []summaryView
	Pagination *utils.Pagination
}

type linkView struct {
	Title string
	URL   string
}

type postView struct {
	summaryView
	Content    template.HTML
	Categories []models.Category
	Prev       *linkView
	Next       *linkView
}

type categoryView struct {
	Category models.Category
	Posts    []summaryView
}

type archiveLink struct {
	Label string
	URL   string
}

type monthView struct {
	Year  int
	Month int
	Posts []summaryView
	Prev  *archiveLink
	Next  *archiveLink
}

type monthGroupView struct {
	Month int
	URL   string
	Posts []summaryView
}

type yearView struct {
	Year   int
	Months []monthGroupView
	Prev   *archiveLink
	Next   *archiveLink
}

// Render produces the document for kind. data must be the matching page type
// (*ListingPage, *PostPage, *CategoryPage, *MonthArchivePage,
// *YearArchivePage, *FeedPage) or nil for KindNotFound.
func (r *Renderer) Render(kind Kind, data any, site Site) ([]byte, error) {
	if kind == KindFeed {
		page, ok := data.(*FeedPage)
		if !ok {
			return nil, fmt.Errorf("render feed: unexpected data %T", data)
		}
		out, err := renderFeed(page, site.Settings)
		if err != nil {
			return nil, err
		}
		return r.minify(feedMediaType, out)
	}

	v, err := r.buildView(kind, data, site)
	if err != nil {
		return nil, err
	}
	tpl, ok := r.templates[string(kind)]
	if !ok {
		return nil, fmt.Errorf("render %s: no template", kind)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return r.minify(htmlMediaType, buf.Bytes())
}

func (r *Renderer) minify(mediaType string, doc []byte) ([]byte, error) {
	if r.minifier == nil {
		return doc, nil
	}
	out, err := r.minifier.Bytes(mediaType, doc)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", mediaType, err)
	}
	return out, nil
}

func (r *Renderer) buildView(kind Kind, data any, site Site) (*view, error) {
	s := site.Settings
	v := &view{Site: site, Title: s.Title, Description: s.Description}

	switch kind {
	case KindHome:
		page, ok := data.(*ListingPage)
		if !ok {
			return nil, fmt.Errorf("render home: unexpected data %T", data)
		}
		if page.Page > 1 {
			v.Title = fmt.Sprintf("Page %d - %s", page.Page, s.Title)
		}
		v.Canonical = s.AbsoluteURL(HomeRoute(page.Page).URL())
		v.Page = listingView{
			Posts:      summaries(page.Posts, s),
			Pagination: utils.GeneratePagination(page.Page, page.TotalPages),
		}

	case KindPost:
		page, ok := data.(*PostPage)
		if !ok {
			return nil, fmt.Errorf("render post: unexpected data %T", data)
		}
		content, err := utils.RenderContent(page.Post.Content, page.Post.ContentFormat)
		if err != nil {
			return nil, fmt.Errorf("render post %s: %w", page.Post.Slug, err)
		}
		sv := summarize(page.Post, s)
		v.Title = page.Post.Title + " - " + s.Title
		v.Description = sv.Excerpt
		v.Canonical = s.AbsoluteURL(sv.URL)
		v.Page = postView{
			summaryView: sv,
			Content:     content,
			Categories:  page.Categories,
			Prev:        postLink(page.Prev),
			Next:        postLink(page.Next),
		}

	case KindCategory:
		page, ok := data.(*CategoryPage)
		if !ok {
			return nil, fmt.Errorf("render category: unexpected data %T", data)
		}
		v.Title = page.Category.Name + " - " + s.Title
		v.Description = "Posts in category: " + page.Category.Name
		if page.Category.Description != "" {
			v.Description = page.Category.Description
		}
		v.Canonical = s.AbsoluteURL(CategoryRoute(page.Category.Slug).URL())
		v.Page = categoryView{Category: page.Category, Posts: summaries(page.Posts, s)}

	case KindMonth:
		page, ok := data.(*MonthArchivePage)
		if !ok {
			return nil, fmt.Errorf("render month archive: unexpected data %T", data)
		}
		label := fmt.Sprintf("%s %d", time.Month(page.Month), page.Year)
		v.Title = label + " - " + s.Title
		v.Description = "Archive for " + label
		v.Canonical = s.AbsoluteURL(MonthRoute(page.Year, page.Month).URL())
		mv := monthView{Year: page.Year, Month: page.Month, Posts: summaries(page.Posts, s)}
		if page.HasPrev {
			y, m := PrevMonth(page.Year, page.Month)
			mv.Prev = &archiveLink{Label: fmt.Sprintf("%s %d", time.Month(m), y), URL: MonthRoute(y, m).URL()}
		}
		if page.HasNext {
			y, m := NextMonth(page.Year, page.Month)
			mv.Next = &archiveLink{Label: fmt.Sprintf("%s %d", time.Month(m), y), URL: MonthRoute(y, m).URL()}
		}
		v.Page = mv

	case KindYear:
		page, ok := data.(*YearArchivePage)
		if !ok {
			return nil, fmt.Errorf("render year archive: unexpected data %T", data)
		}
		v.Title = fmt.Sprintf("%d - %s", page.Year, s.Title)
		v.Description = fmt.Sprintf("Archive for %d", page.Year)
		v.Canonical = s.AbsoluteURL(YearRoute(page.Year).URL())
		yv := yearView{Year: page.Year}
		for _, g := range GroupByMonth(page.Posts) {
			yv.Months = append(yv.Months, monthGroupView{
				Month: g.Month,
				URL:   MonthRoute(page.Year, g.Month).URL(),
				Posts: summaries(g.Posts, s),
			})
		}
		if page.HasPrev {
			yv.Prev = &archiveLink{Label: fmt.Sprint(page.Year - 1), URL: YearRoute(page.Year - 1).URL()}
		}
		if page.HasNext {
			yv.Next = &archiveLink{Label: fmt.Sprint(page.Year + 1), URL: YearRoute(page.Year + 1).URL()}
		}
		v.Page = yv

	case KindNotFound:
		v.Title = "404 Not Found - " + s.Title

	default:
		return nil, fmt.Errorf("render: unknown page kind %q", kind)
	}
	return v, nil
}

func summarize(p models.Post, s SiteSettings) summaryView {
	excerpt := p.Excerpt
	if excerpt == "" {
		excerpt = utils.GenerateExcerpt(p.Content, p.ContentFormat, s.ExcerptLength)
	}
	return summaryView{
		Title:         p.Title,
		URL:           PostRoute(p.Slug).URL(),
		Excerpt:       excerpt,
		Author:        p.Author.Username,
		FeaturedImage: p.FeaturedImage,
		PublishedAt:   p.PublishedTime(),
	}
}

func summaries(posts []models.Post, s SiteSettings) []summaryView {
	out := make([]summaryView, len(posts))
	for i, p := range posts {
		out[i] = summarize(p, s)
	}
	return out
}

func postLink(p *models.Post) *linkView {
	if p == nil {
		return nil
	}
	return &linkView{Title: p.Title, URL: PostRoute(p.Slug).URL()}
}
