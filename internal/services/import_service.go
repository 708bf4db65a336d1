package services

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/repository"
	"staticblog/internal/utils"

	"gopkg.in/yaml.v3"
)

var frontMatterRegex = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n`)

// FrontMatter is the YAML header of an imported markdown file.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Slug        string   `yaml:"slug"`
	PublishDate any      `yaml:"publishDate"`
	Date        any      `yaml:"date"`
	Draft       bool     `yaml:"draft"`
	Excerpt     string   `yaml:"excerpt"`
	Image       string   `yaml:"image"`
	Categories  []string `yaml:"categories"`
}

// ImportReport lists what an import did.
type ImportReport struct {
	Imported []string
	Failed   map[string]error
	Outcome  Outcome
}

// ImportService creates posts from a directory of markdown files with YAML
// front matter. The site is regenerated once at the end, not per post.
type ImportService struct {
	posts       *PostService
	categories  *repository.CategoryRepository
	invalidator *Invalidator
}

func NewImportService(postRepo *repository.PostRepository, categoryRepo *repository.CategoryRepository, invalidator *Invalidator) *ImportService {
	return &ImportService{
		posts:       NewPostService(postRepo, categoryRepo, nil),
		categories:  categoryRepo,
		invalidator: invalidator,
	}
}

func (s *ImportService) ImportDir(ctx context.Context, dir string, authorID uint) (*ImportReport, error) {
	report := &ImportReport{Failed: make(map[string]error)}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if err := s.importFile(ctx, path, authorID); err != nil {
			log.Printf("Skipping %s: %v", path, err)
			report.Failed[path] = err
			return nil
		}
		report.Imported = append(report.Imported, path)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(report.Imported) > 0 {
		report.Outcome = s.invalidator.Notify(ctx, Change{Entity: EntityPost, Action: ActionCreate, IsPublished: true})
	}
	return report, nil
}

func (s *ImportService) importFile(ctx context.Context, path string, authorID uint) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	in, err := parseMarkdownPost(string(raw))
	if err != nil {
		return err
	}
	if in.Title == "" {
		in.Title = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	categories, err := s.categoryIDs(ctx, in.categoryNames)
	if err != nil {
		return err
	}
	in.CategoryIDs = categories
	_, _, err = s.posts.Create(ctx, authorID, in.PostInput)
	return err
}

// categoryIDs finds or creates a category per name.
func (s *ImportService) categoryIDs(ctx context.Context, names []string) ([]uint, error) {
	var ids []uint
	for _, name := range names {
		slug := utils.Slugify(name)
		if slug == "" {
			continue
		}
		c, err := s.categories.FindBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if c == nil {
			c = &models.Category{Name: strings.TrimSpace(name), Slug: slug}
			if err := s.categories.Create(ctx, c); err != nil {
				return nil, fmt.Errorf("create category %q: %w", name, err)
			}
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

type parsedPost struct {
	PostInput
	categoryNames []string
}

// parseMarkdownPost splits a markdown document into front matter and body.
func parseMarkdownPost(doc string) (*parsedPost, error) {
	matches := frontMatterRegex.FindStringSubmatch(doc)
	if len(matches) < 2 {
		return nil, fmt.Errorf("no front matter")
	}
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	p := &parsedPost{
		PostInput: PostInput{
			Title:         fm.Title,
			Slug:          fm.Slug,
			Content:       strings.TrimSpace(doc[len(matches[0]):]),
			ContentFormat: models.FormatMarkdown,
			Excerpt:       fm.Excerpt,
			Status:        models.StatusPublished,
			FeaturedImage: fm.Image,
		},
		categoryNames: fm.Categories,
	}
	if fm.Draft {
		p.Status = models.StatusDraft
	}
	date := fm.PublishDate
	if date == nil {
		date = fm.Date
	}
	switch v := date.(type) {
	case time.Time:
		p.PublishedAt = &v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				p.PublishedAt = &t
				break
			}
		}
	}
	return p, nil
}
