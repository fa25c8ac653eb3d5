package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

type IngestResult int

const (
	IngestCreated IngestResult = iota
	IngestDuplicate
)

func (r IngestResult) String() string {
	if r == IngestCreated {
		return "created"
	}
	return "duplicate"
}

var (
	ErrEmptyUrl               = errors.New("candidate has an empty url")
	ErrItemAlreadyClassified  = errors.New("item is already classified")
	ErrOutcomeAlreadyRecorded = errors.New("item already has a repost outcome")
)

// ValueTooLongError rejects a candidate whose normalized field does not fit
// its column. The candidate is dropped for good.
type ValueTooLongError struct {
	Field  string
	Source string
	Value  string
	Limit  int
}

func (e *ValueTooLongError) Error() string {
	return fmt.Sprintf("%s from %s is %d chars long, limit is %d: %q",
		e.Field, e.Source, utils.RuneLength(e.Value), e.Limit, e.Value)
}

// ItemStore persists items and their classification and repost outcome. All
// writes are single statements, each committed on its own.
type ItemStore struct {
	db                   *gorm.DB
	maxDescriptionLength int
}

func NewItemStore(db *gorm.DB, maxDescriptionLength int) *ItemStore {
	if maxDescriptionLength <= 0 {
		maxDescriptionLength = model.DefaultMaxDescriptionLength
	}
	return &ItemStore{db: db, maxDescriptionLength: maxDescriptionLength}
}

func (s *ItemStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates every table the bot uses.
func Migrate(db *gorm.DB) error {
	return utils.DatabaseSetupAndMigration(db)
}

// KnownUrls snapshots every stored url, across subreddit and feed items.
func (s *ItemStore) KnownUrls(ctx context.Context) (*KnownUrlSet, error) {
	var urls []string
	if err := s.db.WithContext(ctx).Model(&model.Item{}).Pluck("url", &urls).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load known urls")
	}
	return NewKnownUrlSet(urls...), nil
}

// Ingest normalizes and validates candidate, then stores it as a pending
// item unless its url is already known.
func (s *ItemStore) Ingest(ctx context.Context, candidate model.CandidateItem, known *KnownUrlSet) (IngestResult, error) {
	item, err := s.buildItem(candidate)
	if err != nil {
		return IngestDuplicate, err
	}

	if known.Contains(item.Url) {
		return IngestDuplicate, nil
	}

	err = s.db.WithContext(ctx).Create(item).Error
	if err != nil {
		if !s.isDuplicateUrl(ctx, err, item.Url) {
			return IngestDuplicate, errors.Wrap(err, "fail to store item "+item.Url)
		}
		// Another run stored the same url after our snapshot was taken.
		Logger.Log.Warnf("url %s was stored concurrently, skipping", item.Url)
		known.Add(item.Url)
		return IngestDuplicate, nil
	}

	known.Add(item.Url)
	return IngestCreated, nil
}

// IngestAll ingests the yield of one source and returns how many new items
// were stored. Rejected candidates are logged and skipped.
func (s *ItemStore) IngestAll(ctx context.Context, candidates []model.CandidateItem, known *KnownUrlSet) int {
	created := 0
	for _, candidate := range candidates {
		res, err := s.Ingest(ctx, candidate, known)
		if err != nil {
			var tooLong *ValueTooLongError
			if errors.As(err, &tooLong) {
				Logger.Log.Warnf("rejected candidate: %s", tooLong.Error())
			} else {
				Logger.Log.Errorf("fail to ingest candidate %s from %s: %v", candidate.Url, candidate.SourceName, err)
			}
			continue
		}
		if res == IngestCreated {
			created++
		}
	}
	return created
}

func (s *ItemStore) buildItem(candidate model.CandidateItem) (*model.Item, error) {
	url := utils.CleanUrl(candidate.Url)
	title := utils.CleanTitle(candidate.Title)
	description := utils.CleanDescription(candidate.Description)

	if url == "" {
		return nil, ErrEmptyUrl
	}

	titleLimit := model.MaxSubredditTitleLength
	if candidate.Origin == model.OriginFeed {
		titleLimit = model.MaxFeedTitleLength
	}
	checks := []struct {
		field string
		value string
		limit int
	}{
		{"url", url, model.MaxUrlLength},
		{"title", title, titleLimit},
		{"description", description, s.maxDescriptionLength},
		{"permalink", candidate.Permalink, model.MaxPermalinkLength},
	}
	for _, c := range checks {
		if utils.RuneLength(c.value) > c.limit {
			return nil, &ValueTooLongError{Field: c.field, Source: candidate.SourceName, Value: c.value, Limit: c.limit}
		}
	}

	item := &model.Item{
		Id:     uuid.New().String(),
		Origin: candidate.Origin,
		Url:    url,
		Title:  title,
	}
	if description != "" {
		item.Description = &description
	}

	sourceID := candidate.SourceID
	switch candidate.Origin {
	case model.OriginSubreddit:
		item.LinkUrl = strings.TrimSpace(candidate.Url)
		if sourceID != "" {
			item.SubredditSourceID = &sourceID
		}
		if candidate.Permalink != "" {
			permalink := candidate.Permalink
			item.TheirPostPermalink = &permalink
		}
	case model.OriginFeed:
		scheme := "http://"
		if candidate.SupportsHttps {
			scheme = "https://"
		}
		item.LinkUrl = scheme + url
		if sourceID != "" {
			item.FeedSourceID = &sourceID
		}
	default:
		return nil, errors.Errorf("candidate %s has unknown origin %q", url, candidate.Origin)
	}

	if utils.RuneLength(item.LinkUrl) > model.MaxUrlLength {
		return nil, &ValueTooLongError{Field: "link url", Source: candidate.SourceName, Value: item.LinkUrl, Limit: model.MaxUrlLength}
	}
	return item, nil
}

// isDuplicateUrl tells whether a failed insert collided with the url index.
// Drivers that don't translate constraint errors are covered by a lookup.
func (s *ItemStore) isDuplicateUrl(ctx context.Context, err error, url string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var count int64
	if lookupErr := s.db.WithContext(ctx).Model(&model.Item{}).Where("url = ?", url).Count(&count).Error; lookupErr != nil {
		return false
	}
	return count > 0
}

// PendingItems are all items without a sentiment label, oldest first.
func (s *ItemStore) PendingItems(ctx context.Context) ([]*model.Item, error) {
	var items []*model.Item
	err := s.db.WithContext(ctx).
		Preload("SubredditSource").
		Preload("FeedSource").
		Where("sentiment_label IS NULL").
		Order("created_at, id").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load pending items")
	}
	return items, nil
}

// SaveClassification writes the classification of a pending item. It never
// overwrites an existing one.
func (s *ItemStore) SaveClassification(ctx context.Context, item *model.Item, classification model.SentimentClassification) error {
	res := s.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND sentiment_label IS NULL", item.Id).
		Updates(map[string]interface{}{
			"sentiment_label":     classification.SentimentLabel,
			"quantified_positive": classification.QuantifiedPositive,
			"quantified_negative": classification.QuantifiedNegative,
			"quantified_neutral":  classification.QuantifiedNeutral,
			"quantified_mixed":    classification.QuantifiedMixed,
			"classified_at":       classification.ClassifiedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to save classification of item "+item.Id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrItemAlreadyClassified, item.Id)
	}
	item.SentimentClassification = classification
	return nil
}

func (s *ItemStore) SaveAuxiliaryAnalysis(ctx context.Context, item *model.Item, part model.AnalysisPart, classification model.SentimentClassification) error {
	analysis := model.AuxiliaryAnalysis{
		Id:                      uuid.New().String(),
		ItemID:                  item.Id,
		Part:                    part,
		SentimentClassification: classification,
	}
	return errors.Wrapf(s.db.WithContext(ctx).Create(&analysis).Error,
		"fail to save %s analysis of item %s", part, item.Id)
}

// SaveRepostOutcome records where item was reposted. An item is recorded as
// reposted at most once.
func (s *ItemStore) SaveRepostOutcome(ctx context.Context, item *model.Item, outcome model.RepostOutcome) error {
	if outcome.RepostedAt == nil {
		now := time.Now()
		outcome.RepostedAt = &now
	}
	res := s.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND our_post_permalink IS NULL", item.Id).
		Updates(map[string]interface{}{
			"posted_to_channel":  outcome.PostedToChannel,
			"our_post_permalink": outcome.OurPostPermalink,
			"title_as_posted":    outcome.TitleAsPosted,
			"reposted_at":        outcome.RepostedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to save repost outcome of item "+item.Id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrOutcomeAlreadyRecorded, item.Id)
	}
	item.RepostOutcome = outcome
	return nil
}

func (s *ItemStore) ActiveSubredditSources(ctx context.Context) ([]model.SubredditSource, error) {
	var sources []model.SubredditSource
	err := s.db.WithContext(ctx).Where("disabled = ?", false).Order("name").Find(&sources).Error
	return sources, errors.Wrap(err, "fail to load subreddit sources")
}

func (s *ItemStore) ActiveFeedSources(ctx context.Context) ([]*model.FeedSource, error) {
	var sources []*model.FeedSource
	err := s.db.WithContext(ctx).Where("disabled = ?", false).Order("url").Find(&sources).Error
	return sources, errors.Wrap(err, "fail to load feed sources")
}

// RepostCategories returns every category with its target channel loaded.
func (s *ItemStore) RepostCategories(ctx context.Context) ([]model.RepostCategory, error) {
	var categories []model.RepostCategory
	err := s.db.WithContext(ctx).Preload("TargetChannel").Order("label").Find(&categories).Error
	return categories, errors.Wrap(err, "fail to load repost categories")
}

// UpdateFeedMetadata persists the title and description read from the feed.
func (s *ItemStore) UpdateFeedMetadata(ctx context.Context, source *model.FeedSource) error {
	err := s.db.WithContext(ctx).
		Model(&model.FeedSource{}).
		Where("id = ?", source.Id).
		Updates(map[string]interface{}{
			"title":       source.Title,
			"description": source.Description,
		}).Error
	return errors.Wrap(err, "fail to update metadata of feed "+source.Url)
}
