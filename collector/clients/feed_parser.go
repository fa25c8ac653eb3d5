package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

const defaultFeedTimeout = 30 * time.Second

// FeedEntry is one story of a parsed feed.
type FeedEntry struct {
	Guid        string
	Link        string
	Title       string
	Description string
}

// FeedDocument is the part of a parsed RSS/Atom document the bot cares about.
type FeedDocument struct {
	Title       string
	Description string
	Entries     []FeedEntry
}

type FeedParser interface {
	ParseURL(ctx context.Context, url string) (*FeedDocument, error)
}

// GofeedParser fetches and parses RSS and Atom feeds with gofeed.
type GofeedParser struct {
	parser *gofeed.Parser
}

var _ FeedParser = (*GofeedParser)(nil)

func NewGofeedParser(userAgent string) *GofeedParser {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: defaultFeedTimeout}
	return &GofeedParser{parser: parser}
}

func (p *GofeedParser) ParseURL(ctx context.Context, url string) (*FeedDocument, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &HttpStatusError{StatusCode: httpErr.StatusCode, Body: httpErr.Status}
		}
		return nil, errors.Wrap(err, "fail to parse feed "+url)
	}
	return convertFeed(feed), nil
}

func convertFeed(feed *gofeed.Feed) *FeedDocument {
	doc := &FeedDocument{
		Title:       feed.Title,
		Description: feed.Description,
		Entries:     make([]FeedEntry, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, FeedEntry{
			Guid:        item.GUID,
			Link:        item.Link,
			Title:       item.Title,
			Description: item.Description,
		})
	}
	return doc
}
