package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
)

func newTestStore(t *testing.T) *ItemStore {
	db, _ := utils.CreateTempDB(t)
	return NewItemStore(db, 0)
}

func subredditCandidate(url string) model.CandidateItem {
	return model.CandidateItem{
		Origin:     model.OriginSubreddit,
		Url:        url,
		Title:      "A title",
		SourceName: "news",
		Permalink:  "/r/news/comments/abc/",
	}
}

func feedCandidate(url string, supportsHttps bool) model.CandidateItem {
	return model.CandidateItem{
		Origin:        model.OriginFeed,
		Url:           url,
		Title:         "Feed title",
		Description:   "Feed description",
		SourceName:    "https://example.com/rss",
		SupportsHttps: supportsHttps,
	}
}

func TestIngestNormalizesAndStores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	known := NewKnownUrlSet()

	res, err := s.Ingest(ctx, model.CandidateItem{
		Origin:        model.OriginFeed,
		Url:           "https://www.reuters.com/article/idUS1?feedType=RSS&feedName=top",
		Title:         "It’s good ✓",
		Description:   `Text.<div class="feedflare">junk`,
		SupportsHttps: true,
	}, known)
	require.NoError(t, err)
	assert.Equal(t, IngestCreated, res)
	assert.True(t, known.Contains("reuters.com/article/idUS1"))

	var item model.Item
	require.NoError(t, s.DB().First(&item).Error)
	assert.Equal(t, "reuters.com/article/idUS1", item.Url)
	assert.Equal(t, "https://reuters.com/article/idUS1", item.LinkUrl)
	assert.Equal(t, "It's good ", item.Title)
	assert.Equal(t, "Text.", item.DescriptionText())
	assert.Equal(t, model.OriginFeed, item.Origin)
	assert.False(t, item.IsClassified())
	assert.False(t, item.IsReposted())
}

func TestIngestLinkUrl(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	known := NewKnownUrlSet()

	_, err := s.Ingest(ctx, feedCandidate("https://www.example.com/plain", false), known)
	require.NoError(t, err)
	_, err = s.Ingest(ctx, subredditCandidate("https://www.example.com/raw?x=1"), known)
	require.NoError(t, err)

	var feedItem, subItem model.Item
	require.NoError(t, s.DB().Where("url = ?", "example.com/plain").First(&feedItem).Error)
	require.NoError(t, s.DB().Where("url = ?", "example.com/raw?x=1").First(&subItem).Error)
	assert.Equal(t, "http://example.com/plain", feedItem.LinkUrl)
	assert.Equal(t, "https://www.example.com/raw?x=1", subItem.LinkUrl)
	require.NotNil(t, subItem.TheirPostPermalink)
	assert.Equal(t, "/r/news/comments/abc/", *subItem.TheirPostPermalink)
}

func TestIngestSkipsKnownUrls(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Stored by an earlier run.
	earlier := NewKnownUrlSet()
	for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		_, err := s.Ingest(ctx, subredditCandidate(u), earlier)
		require.NoError(t, err)
	}

	known, err := s.KnownUrls(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, known.Len())

	candidates := []model.CandidateItem{}
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, subredditCandidate("https://www.example.com/"+string(rune('0'+i))))
	}
	assert.Equal(t, 2, s.IngestAll(ctx, candidates, known))

	var count int64
	require.NoError(t, s.DB().Model(&model.Item{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestIngestSameUrlTwiceInOneRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	known := NewKnownUrlSet()

	// Seen from a subreddit and a feed, different raw forms of one url.
	n := s.IngestAll(ctx, []model.CandidateItem{
		subredditCandidate("https://www.example.com/story"),
		feedCandidate("http://example.com/story", true),
	}, known)
	assert.Equal(t, 1, n)
}

func TestIngestDuplicateFromStorage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, subredditCandidate("https://example.com/story"), NewKnownUrlSet())
	require.NoError(t, err)

	// A stale snapshot, as if another run stored the item meanwhile.
	stale := NewKnownUrlSet()
	res, err := s.Ingest(ctx, subredditCandidate("https://example.com/story"), stale)
	require.NoError(t, err)
	assert.Equal(t, IngestDuplicate, res)
	assert.True(t, stale.Contains("example.com/story"))
}

func TestIngestRejectsTooLongValues(t *testing.T) {
	s := NewItemStore(newTestStore(t).DB(), 10)
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate model.CandidateItem
		field     string
		limit     int
	}{
		{"url", subredditCandidate("https://example.com/" + strings.Repeat("a", model.MaxUrlLength)), "url", model.MaxUrlLength},
		{"subreddit title", func() model.CandidateItem {
			c := subredditCandidate("https://example.com/t")
			c.Title = strings.Repeat("t", model.MaxSubredditTitleLength+1)
			return c
		}(), "title", model.MaxSubredditTitleLength},
		{"description", feedCandidate("https://example.com/d", true), "description", 10},
		{"permalink", func() model.CandidateItem {
			c := subredditCandidate("https://example.com/p")
			c.Permalink = strings.Repeat("p", model.MaxPermalinkLength+1)
			return c
		}(), "permalink", model.MaxPermalinkLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			known := NewKnownUrlSet()
			_, err := s.Ingest(ctx, tc.candidate, known)
			var tooLong *ValueTooLongError
			require.ErrorAs(t, err, &tooLong)
			assert.Equal(t, tc.field, tooLong.Field)
			assert.Equal(t, tc.limit, tooLong.Limit)
			assert.Equal(t, tc.candidate.SourceName, tooLong.Source)
			assert.Equal(t, 0, known.Len())
		})
	}

	var count int64
	require.NoError(t, s.DB().Model(&model.Item{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestFeedTitleLimitIsLonger(t *testing.T) {
	s := newTestStore(t)
	c := feedCandidate("https://example.com/long", true)
	c.Title = strings.Repeat("t", model.MaxSubredditTitleLength+50)

	res, err := s.Ingest(context.Background(), c, NewKnownUrlSet())
	require.NoError(t, err)
	assert.Equal(t, IngestCreated, res)
}

func TestIngestRejectsEmptyUrl(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ingest(context.Background(), subredditCandidate(" \n"), NewKnownUrlSet())
	assert.ErrorIs(t, err, ErrEmptyUrl)
}

func classification(label string, positive, negative, neutral, mixed float64) model.SentimentClassification {
	return model.NewSentimentClassification(model.ClassificationResult{
		RawLabel: label,
		Scores:   model.SentimentScores{Positive: positive, Negative: negative, Neutral: neutral, Mixed: mixed},
	}, time.Now())
}

func TestClassificationIsWrittenOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	known := NewKnownUrlSet()
	s.IngestAll(ctx, []model.CandidateItem{
		subredditCandidate("https://example.com/1"),
		subredditCandidate("https://example.com/2"),
	}, known)

	pending, err := s.PendingItems(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	item := pending[0]
	require.NoError(t, s.SaveClassification(ctx, item, classification("POSITIVE", 0.82, 0.08, 0.07, 0.03)))
	assert.True(t, item.IsClassified())

	err = s.SaveClassification(ctx, item, classification("NEGATIVE", 0.1, 0.8, 0.05, 0.05))
	assert.ErrorIs(t, err, ErrItemAlreadyClassified)

	var stored model.Item
	require.NoError(t, s.DB().Where("id = ?", item.Id).First(&stored).Error)
	require.NotNil(t, stored.SentimentLabel)
	assert.Equal(t, "POSITIVE", *stored.SentimentLabel)
	assert.InDelta(t, 0.82, stored.Scores().Positive, 1e-9)

	pending, err = s.PendingItems(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, item.Id, pending[0].Id)
}

func TestUnmappedLabelCountsAsClassified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.IngestAll(ctx, []model.CandidateItem{subredditCandidate("https://example.com/1")}, NewKnownUrlSet())

	pending, err := s.PendingItems(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveClassification(ctx, pending[0], classification("SARCASTIC", 0.25, 0.25, 0.25, 0.25)))

	pending, err = s.PendingItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRepostOutcomeIsWrittenOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.IngestAll(ctx, []model.CandidateItem{subredditCandidate("https://example.com/1")}, NewKnownUrlSet())
	pending, err := s.PendingItems(ctx)
	require.NoError(t, err)
	item := pending[0]

	channel, permalink, title := "JustGoodNews", "/r/JustGoodNews/comments/x/", "A title"
	outcome := model.RepostOutcome{PostedToChannel: &channel, OurPostPermalink: &permalink, TitleAsPosted: &title}
	require.NoError(t, s.SaveRepostOutcome(ctx, item, outcome))
	assert.True(t, item.IsReposted())

	other := "/r/JustGoodNews/comments/y/"
	err = s.SaveRepostOutcome(ctx, item, model.RepostOutcome{PostedToChannel: &channel, OurPostPermalink: &other})
	assert.ErrorIs(t, err, ErrOutcomeAlreadyRecorded)

	var stored model.Item
	require.NoError(t, s.DB().Where("id = ?", item.Id).First(&stored).Error)
	require.NotNil(t, stored.OurPostPermalink)
	assert.Equal(t, permalink, *stored.OurPostPermalink)
	assert.NotNil(t, stored.RepostedAt)
}

func TestAuxiliaryAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.IngestAll(ctx, []model.CandidateItem{feedCandidate("https://example.com/1", true)}, NewKnownUrlSet())
	pending, err := s.PendingItems(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveAuxiliaryAnalysis(ctx, pending[0], model.AnalysisPartTitle, classification("NEUTRAL", 0.1, 0.1, 0.7, 0.1)))

	var analyses []model.AuxiliaryAnalysis
	require.NoError(t, s.DB().Find(&analyses).Error)
	require.Len(t, analyses, 1)
	assert.Equal(t, pending[0].Id, analyses[0].ItemID)
	assert.Equal(t, model.AnalysisPartTitle, analyses[0].Part)

	// Auxiliary analysis does not classify the item itself.
	pending, err = s.PendingItems(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
