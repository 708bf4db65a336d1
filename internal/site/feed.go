package site

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/utils"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
	Author      string  `xml:"author,omitempty"`
}

// renderFeed builds the RSS 2.0 document. lastBuildDate is the newest
// publish or update time among the items so identical content yields
// identical bytes.
func renderFeed(page *FeedPage, s SiteSettings) ([]byte, error) {
	var lastBuild time.Time
	items := make([]rssItem, 0, len(page.Posts))
	for _, p := range page.Posts {
		link := s.AbsoluteURL(PostRoute(p.Slug).URL())
		published := p.PublishedTime().UTC()
		if published.After(lastBuild) {
			lastBuild = published
		}
		if u := p.UpdatedAt.UTC(); u.After(lastBuild) {
			lastBuild = u
		}
		excerpt := utils.GenerateExcerpt(p.Content, p.ContentFormat, s.FeedExcerptBudget())
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: excerpt,
			PubDate:     published.Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Author:      feedAuthor(p, s),
		})
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       s.Title,
			Link:        s.AbsoluteURL("/"),
			Description: s.Description,
			Language:    s.Language,
			Items:       items,
		},
	}
	if !lastBuild.IsZero() {
		feed.Channel.LastBuildDate = lastBuild.Format(time.RFC1123Z)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// feedAuthor follows the RSS convention of "email (name)".
func feedAuthor(p models.Post, s SiteSettings) string {
	name, email := p.Author.Username, p.Author.Email
	if email == "" {
		email = s.AdminEmail
	}
	switch {
	case email != "" && name != "":
		return fmt.Sprintf("%s (%s)", email, name)
	case email != "":
		return email
	}
	return name
}
