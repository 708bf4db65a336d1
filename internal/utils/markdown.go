package utils

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"

	"staticblog/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// Ellipsis is appended to every truncated excerpt.
const Ellipsis = "..."

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// authors may embed raw HTML in markdown posts
	goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
)

func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RenderContent turns stored post content into trusted HTML.
func RenderContent(content string, format models.ContentFormat) (template.HTML, error) {
	if format == models.FormatHTML {
		return template.HTML(content), nil
	}
	return RenderMarkdown(content)
}

// StripMarkup returns the text content of an HTML fragment with all runs of
// whitespace collapsed to single spaces.
func StripMarkup(fragment string) string {
	var sb strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			// io.EOF or malformed input; either way keep what was read
			return collapseSpace(sb.String())
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(string(name)) {
				skip++
			}
			sb.WriteByte(' ')
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case xhtml.SelfClosingTagToken:
			sb.WriteByte(' ')
		case xhtml.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name string) bool {
	return name == "script" || name == "style"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt truncates plain text to at most length runes without splitting a
// word. Text that already fits is returned unchanged (whitespace collapsed);
// otherwise the result ends at a word boundary followed by Ellipsis.
func Excerpt(text string, length int) string {
	text = collapseSpace(text)
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	if length < 0 {
		length = 0
	}

	cut := length
	if !unicode.IsSpace(runes[length]) {
		cut = 0
		for i := length - 1; i >= 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + Ellipsis
}

// GenerateExcerpt derives a plain-text excerpt from stored post content.
func GenerateExcerpt(content string, format models.ContentFormat, length int) string {
	rendered, err := RenderContent(content, format)
	if err != nil {
		return Excerpt(StripMarkup(content), length)
	}
	return Excerpt(StripMarkup(string(rendered)), length)
}
