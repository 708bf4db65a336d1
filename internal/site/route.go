package site

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"staticblog/internal/utils"
)

// ErrInvalidRoute is returned for requests that cannot name any page.
var ErrInvalidRoute = errors.New("invalid route")

type Kind string

const (
	KindHome     Kind = "home"
	KindPost     Kind = "post"
	KindCategory Kind = "category"
	KindMonth    Kind = "month"
	KindYear     Kind = "year"
	KindFeed     Kind = "feed"
	// KindNotFound is a page kind only; no route has it.
	KindNotFound Kind = "not_found"
)

const (
	feedFile  = "feed.xml"
	indexFile = "index.html"
)

// Route names one public page.
type Route struct {
	Kind  Kind
	Page  int
	Slug  string
	Year  int
	Month int
}

func HomeRoute(page int) Route         { return Route{Kind: KindHome, Page: page} }
func PostRoute(slug string) Route      { return Route{Kind: KindPost, Slug: slug} }
func CategoryRoute(slug string) Route  { return Route{Kind: KindCategory, Slug: slug} }
func MonthRoute(year, month int) Route { return Route{Kind: KindMonth, Year: year, Month: month} }
func YearRoute(year int) Route         { return Route{Kind: KindYear, Year: year} }
func FeedRoute() Route                 { return Route{Kind: KindFeed} }

func (r Route) String() string {
	switch r.Kind {
	case KindHome:
		return fmt.Sprintf("home:%d", r.Page)
	case KindPost, KindCategory:
		return fmt.Sprintf("%s:%s", r.Kind, r.Slug)
	case KindMonth:
		return fmt.Sprintf("month:%04d-%02d", r.Year, r.Month)
	case KindYear:
		return fmt.Sprintf("year:%04d", r.Year)
	}
	return string(r.Kind)
}

// Validate rejects routes whose fields could not come from published content.
func (r Route) Validate() error {
	switch r.Kind {
	case KindHome:
		if r.Page < 1 {
			return fmt.Errorf("%w: page %d", ErrInvalidRoute, r.Page)
		}
	case KindPost, KindCategory:
		if !utils.IsCanonicalSlug(r.Slug) {
			return fmt.Errorf("%w: slug %q", ErrInvalidRoute, r.Slug)
		}
	case KindMonth:
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("%w: month %d", ErrInvalidRoute, r.Month)
		}
		fallthrough
	case KindYear:
		if r.Year < 1 || r.Year > 9999 {
			return fmt.Errorf("%w: year %d", ErrInvalidRoute, r.Year)
		}
	case KindFeed:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidRoute, r.Kind)
	}
	return nil
}

// Path is the canonical file of the route relative to the output root.
func (r Route) Path() string {
	switch r.Kind {
	case KindHome:
		if r.Page <= 1 {
			return "/" + indexFile
		}
		return fmt.Sprintf("/page/%d/%s", r.Page, indexFile)
	case KindPost:
		return "/" + r.Slug + "/" + indexFile
	case KindCategory:
		return "/category/" + r.Slug + "/" + indexFile
	case KindMonth:
		return fmt.Sprintf("/archive/%d/%02d/%s", r.Year, r.Month, indexFile)
	case KindYear:
		return fmt.Sprintf("/archive/%d/%s", r.Year, indexFile)
	case KindFeed:
		return "/" + feedFile
	}
	return ""
}

// Aliases are extra files that carry the same document as Path.
func (r Route) Aliases() []string {
	if r.Kind == KindHome && r.Page == 1 {
		return []string{"/page/1/" + indexFile}
	}
	return nil
}

// URL is the public link to the route.
func (r Route) URL() string {
	p := r.Path()
	return strings.TrimSuffix(p, indexFile)
}

// ParseRequest maps a request URL onto a route. The root path is resolved
// from query parameters, everything else from the path itself.
func ParseRequest(u *url.URL) (Route, error) {
	p := strings.Trim(u.Path, "/")
	if p == "" || p == indexFile {
		return ParseQuery(u.Query())
	}
	return ParsePath(u.Path)
}

// ParseQuery resolves ?post=, ?category=, ?year=[&month=] and ?page=.
// No recognised parameter means the first home page.
func ParseQuery(q url.Values) (Route, error) {
	var route Route
	switch {
	case q.Has("post"):
		route = PostRoute(q.Get("post"))
	case q.Has("category"):
		route = CategoryRoute(q.Get("category"))
	case q.Has("year"):
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			return Route{}, fmt.Errorf("%w: year %q", ErrInvalidRoute, q.Get("year"))
		}
		route = YearRoute(year)
		if q.Has("month") {
			month, err := strconv.Atoi(q.Get("month"))
			if err != nil {
				return Route{}, fmt.Errorf("%w: month %q", ErrInvalidRoute, q.Get("month"))
			}
			route = MonthRoute(year, month)
		}
	case q.Has("page"):
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			return Route{}, fmt.Errorf("%w: page %q", ErrInvalidRoute, q.Get("page"))
		}
		route = HomeRoute(max(1, page))
	default:
		route = HomeRoute(1)
	}
	return route, route.Validate()
}

// pathNumber parses a numeric path segment and accepts it only in the exact
// form Path writes, zero-padded to width, so every page has one URL.
func pathNumber(segment string, width int) (int, bool) {
	n, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return n, fmt.Sprintf("%0*d", width, n) == segment
}

// ParsePath resolves the public URL layout produced by Route.URL.
func ParsePath(p string) (Route, error) {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if n := len(segments); n > 0 && segments[n-1] == indexFile {
		segments = segments[:n-1]
	}

	var route Route
	switch {
	case len(segments) == 0:
		route = HomeRoute(1)
	case len(segments) == 1 && segments[0] == feedFile:
		route = FeedRoute()
	case len(segments) == 1:
		route = PostRoute(segments[0])
	case len(segments) == 2 && segments[0] == "page":
		page, ok := pathNumber(segments[1], 0)
		if !ok {
			return Route{}, fmt.Errorf("%w: %s", ErrInvalidRoute, p)
		}
		route = HomeRoute(page)
	case len(segments) == 2 && segments[0] == "category":
		route = CategoryRoute(segments[1])
	case len(segments) == 2 && segments[0] == "archive":
		year, ok := pathNumber(segments[1], 0)
		if !ok {
			return Route{}, fmt.Errorf("%w: %s", ErrInvalidRoute, p)
		}
		route = YearRoute(year)
	case len(segments) == 3 && segments[0] == "archive":
		year, yok := pathNumber(segments[1], 0)
		month, mok := pathNumber(segments[2], 2)
		if !yok || !mok {
			return Route{}, fmt.Errorf("%w: %s", ErrInvalidRoute, p)
		}
		route = MonthRoute(year, month)
	default:
		return Route{}, fmt.Errorf("%w: %s", ErrInvalidRoute, p)
	}
	return route, route.Validate()
}
