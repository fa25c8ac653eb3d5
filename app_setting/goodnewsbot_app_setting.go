package app_setting

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
)

const (
	DefaultPublishIntervalMs = 1000
	DefaultLanguageCode      = "en"
	DefaultUserAgent         = "goodnewsbot/1.0"
)

// This is the app setting for a pipeline run.
type GoodNewsBotAppSetting struct {
	// Minimum delay between two consecutive submissions in one run. Reddit
	// allows 60 requests per minute.
	PUBLISH_INTERVAL_MS int64 `yaml:"PUBLISH_INTERVAL_MS"`
	// Longer descriptions are rejected at ingestion.
	MAX_DESCRIPTION_LENGTH int `yaml:"MAX_DESCRIPTION_LENGTH"`
	// Language hint sent to the sentiment service.
	LANGUAGE_CODE string `yaml:"LANGUAGE_CODE"`
	// User agent sent to reddit, reddit rejects generic ones.
	USER_AGENT string `yaml:"USER_AGENT"`
	// Classify and decide but never submit anything.
	DRY_RUN bool `yaml:"DRY_RUN"`

	// Sources, channels and categories written by `goodnewsbot seed`.
	REFERENCE_DATA ReferenceData `yaml:"REFERENCE_DATA"`
}

type ReferenceData struct {
	SUBREDDIT_SOURCES []SubredditSourceSetting `yaml:"SUBREDDIT_SOURCES"`
	FEED_SOURCES      []FeedSourceSetting      `yaml:"FEED_SOURCES"`
	TARGET_CHANNELS   []string                 `yaml:"TARGET_CHANNELS"`
	REPOST_CATEGORIES []RepostCategorySetting  `yaml:"REPOST_CATEGORIES"`
}

type SubredditSourceSetting struct {
	NAME       string `yaml:"NAME"`
	POST_LIMIT int    `yaml:"POST_LIMIT"`
	DISABLED   bool   `yaml:"DISABLED"`
}

type FeedSourceSetting struct {
	URL            string `yaml:"URL"`
	DISABLED       bool   `yaml:"DISABLED"`
	SUPPORTS_HTTPS *bool  `yaml:"SUPPORTS_HTTPS"`
}

type RepostCategorySetting struct {
	LABEL  string  `yaml:"LABEL"`
	CUTOFF float64 `yaml:"CUTOFF"`
	// Empty means never repost this label.
	TARGET_CHANNEL string `yaml:"TARGET_CHANNEL"`
}

// DefaultAppSetting is used when no settings file is given.
func DefaultAppSetting() GoodNewsBotAppSetting {
	return GoodNewsBotAppSetting{
		PUBLISH_INTERVAL_MS:    DefaultPublishIntervalMs,
		MAX_DESCRIPTION_LENGTH: model.DefaultMaxDescriptionLength,
		LANGUAGE_CODE:          DefaultLanguageCode,
		USER_AGENT:             DefaultUserAgent,
	}
}

func ParseAppSetting(path string) (GoodNewsBotAppSetting, error) {
	c := DefaultAppSetting()
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "fail to read app setting "+path)
	}
	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrap(err, "fail to parse app setting "+path)
	}
	if err = c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (s GoodNewsBotAppSetting) Validate() error {
	if s.PUBLISH_INTERVAL_MS < 0 {
		return errors.New("PUBLISH_INTERVAL_MS must not be negative")
	}
	if s.MAX_DESCRIPTION_LENGTH <= 0 {
		return errors.New("MAX_DESCRIPTION_LENGTH must be positive")
	}
	seen := []string{}
	for _, sub := range s.REFERENCE_DATA.SUBREDDIT_SOURCES {
		if sub.POST_LIMIT < 0 {
			return errors.Errorf("subreddit %s has negative POST_LIMIT", sub.NAME)
		}
		if utils.ContainsString(seen, sub.NAME) {
			return errors.Errorf("subreddit %s is listed twice", sub.NAME)
		}
		seen = append(seen, sub.NAME)
	}
	for _, c := range s.REFERENCE_DATA.REPOST_CATEGORIES {
		if _, err := model.ParseSentimentLabel(c.LABEL); err != nil {
			return errors.Wrap(err, "invalid repost category")
		}
		if c.CUTOFF <= 0 || c.CUTOFF >= 1 {
			return errors.Errorf("repost category %s cutoff %g is outside (0, 1)", c.LABEL, c.CUTOFF)
		}
	}
	return nil
}

func (s GoodNewsBotAppSetting) PublishInterval() time.Duration {
	return time.Duration(s.PUBLISH_INTERVAL_MS) * time.Millisecond
}
