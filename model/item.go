package model

import (
	"time"
)

const (
	MaxSubredditTitleLength = 300
	MaxFeedTitleLength      = 512
	MaxUrlLength            = 2000
	MaxPermalinkLength      = 128
	MaxPostedTitleLength    = 300
	MaxSentimentLabelLength = 32
	// Default for descriptions, overridable from app settings.
	DefaultMaxDescriptionLength = 4096
)

type ItemOrigin string

const (
	OriginSubreddit ItemOrigin = "subreddit"
	OriginFeed      ItemOrigin = "feed"
)

/*

RepostOutcome is embedded in Item and set at most once, after a successful
submission to a target channel.

PostedToChannel: the channel (subreddit) name the item was submitted to
OurPostPermalink: permalink of our submission
TitleAsPosted: the title actually submitted, may be shortened to fit the
300 char link post title limit
*/
type RepostOutcome struct {
	PostedToChannel  *string `gorm:"size:32"`
	OurPostPermalink *string `gorm:"size:128"`
	TitleAsPosted    *string `gorm:"size:300"`
	RepostedAt       *time.Time
}

func (o RepostOutcome) IsReposted() bool {
	return o.OurPostPermalink != nil
}

/*

Item is a deduplicated story seen from a subreddit or a feed.

Id: primary key
Origin: which kind of source produced the item, selects the variant fields
Url: normalized url, the deduplication key, unique across all origins
LinkUrl: url submitted when reposting
Title, Description: normalized text

Subreddit variant:
  SubredditSourceID, SubredditSource: where it was seen
  TheirPostPermalink: permalink of the original reddit submission
Feed variant:
  FeedSourceID, FeedSource: where it was seen
*/
type Item struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Origin      ItemOrigin `gorm:"size:16;not null;index"`
	Url         string     `gorm:"size:2000;uniqueIndex;not null"`
	LinkUrl     string     `gorm:"size:2000;not null"`
	Title       string     `gorm:"size:512;not null"`
	Description *string

	SubredditSourceID  *string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	SubredditSource    *SubredditSource
	TheirPostPermalink *string `gorm:"size:128"`

	FeedSourceID *string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	FeedSource   *FeedSource

	SentimentClassification
	RepostOutcome
}

func (i Item) IsSubredditItem() bool {
	return i.Origin == OriginSubreddit
}

func (i Item) IsFeedItem() bool {
	return i.Origin == OriginFeed
}

// DescriptionText returns the description or "".
func (i Item) DescriptionText() string {
	if i.Description == nil {
		return ""
	}
	return *i.Description
}

// SourceName is a human readable reference to where the item came from.
func (i Item) SourceName() string {
	switch {
	case i.SubredditSource != nil:
		return i.SubredditSource.Name
	case i.FeedSource != nil:
		return i.FeedSource.Url
	}
	return string(i.Origin)
}

/*

CandidateItem is a raw item produced by a source reader, before it is
normalized, validated and deduplicated. It is never persisted directly.
*/
type CandidateItem struct {
	Origin      ItemOrigin
	Url         string
	Title       string
	Description string

	// Id and display name of the source that produced the item.
	SourceID   string
	SourceName string

	// Subreddit only.
	Permalink string
	// Feed only.
	SupportsHttps bool
}
