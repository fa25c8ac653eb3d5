package collector

import (
	"context"

	"github.com/Luismorlan/goodnewsbot/collector/clients"
	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
)

const (
	maxFeedTitleLength       = 256
	maxFeedDescriptionLength = 1024
)

type RssFeedReader struct {
	parser clients.FeedParser
}

var _ FeedReader = (*RssFeedReader)(nil)

func NewFeedReader(parser clients.FeedParser) *RssFeedReader {
	return &RssFeedReader{parser: parser}
}

// Read yields one candidate per feed entry and copies the feed title and
// description onto source.
func (r *RssFeedReader) Read(ctx context.Context, source *model.FeedSource) ([]model.CandidateItem, error) {
	doc, err := r.parser.ParseURL(ctx, source.Url)
	if err != nil {
		return nil, &SourceReadError{Source: source.Url, Err: err}
	}

	source.Title = utils.TruncateRunes(doc.Title, maxFeedTitleLength)
	if doc.Description != "" {
		description := utils.TruncateRunes(doc.Description, maxFeedDescriptionLength)
		source.Description = &description
	} else {
		source.Description = nil
	}

	candidates := make([]model.CandidateItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		url := entry.Guid
		if url == "" {
			url = entry.Link
		}
		if url == "" {
			continue
		}
		candidates = append(candidates, model.CandidateItem{
			Origin:        model.OriginFeed,
			Url:           url,
			Title:         entry.Title,
			Description:   entry.Description,
			SourceID:      source.Id,
			SourceName:    source.Url,
			SupportsHttps: source.SupportsHttps,
		})
	}
	return candidates, nil
}
