package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Luismorlan/goodnewsbot/app_setting"
	"github.com/Luismorlan/goodnewsbot/model"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

// SeedReferenceData upserts sources, target channels and repost categories.
// Running it twice with the same data changes nothing. Rows missing from data
// are left alone.
func (s *ItemStore) SeedReferenceData(ctx context.Context, data app_setting.ReferenceData) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		channels := map[string]*model.TargetChannel{}
		for _, name := range data.TARGET_CHANNELS {
			ch, err := upsertTargetChannel(tx, name)
			if err != nil {
				return err
			}
			channels[name] = ch
		}

		for _, sub := range data.SUBREDDIT_SOURCES {
			if err := upsertSubredditSource(tx, sub); err != nil {
				return err
			}
		}

		for _, feed := range data.FEED_SOURCES {
			if err := upsertFeedSource(tx, feed); err != nil {
				return err
			}
		}

		for _, category := range data.REPOST_CATEGORIES {
			var channelId *string
			if category.TARGET_CHANNEL != "" {
				ch, ok := channels[category.TARGET_CHANNEL]
				if !ok {
					var err error
					if ch, err = upsertTargetChannel(tx, category.TARGET_CHANNEL); err != nil {
						return err
					}
					channels[category.TARGET_CHANNEL] = ch
				}
				channelId = &ch.Id
			}
			if err := upsertRepostCategory(tx, category, channelId); err != nil {
				return err
			}
		}

		Logger.Log.Infof("seeded %d subreddits, %d feeds, %d channels and %d repost categories",
			len(data.SUBREDDIT_SOURCES), len(data.FEED_SOURCES), len(channels), len(data.REPOST_CATEGORIES))
		return nil
	})
}

func upsertTargetChannel(tx *gorm.DB, name string) (*model.TargetChannel, error) {
	var ch model.TargetChannel
	res := tx.Where("name = ?", name).Limit(1).Find(&ch)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "fail to look up target channel "+name)
	}
	if res.RowsAffected != 0 {
		return &ch, nil
	}
	ch = model.TargetChannel{Id: uuid.New().String(), Name: name}
	if err := tx.Create(&ch).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create target channel "+name)
	}
	return &ch, nil
}

func upsertSubredditSource(tx *gorm.DB, setting app_setting.SubredditSourceSetting) error {
	var source model.SubredditSource
	res := tx.Where("name = ?", setting.NAME).Limit(1).Find(&source)
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to look up subreddit source "+setting.NAME)
	}
	if res.RowsAffected == 0 {
		source = model.SubredditSource{Id: uuid.New().String(), Name: setting.NAME}
	}
	source.PostLimit = setting.POST_LIMIT
	source.Disabled = setting.DISABLED
	return errors.Wrap(tx.Save(&source).Error, "fail to save subreddit source "+setting.NAME)
}

func upsertFeedSource(tx *gorm.DB, setting app_setting.FeedSourceSetting) error {
	var source model.FeedSource
	res := tx.Where("url = ?", setting.URL).Limit(1).Find(&source)
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to look up feed source "+setting.URL)
	}
	if res.RowsAffected == 0 {
		source = model.FeedSource{Id: uuid.New().String(), Url: setting.URL}
		if err := tx.Create(&source).Error; err != nil {
			return errors.Wrap(err, "fail to create feed source "+setting.URL)
		}
	}
	// A map update, a struct would let the column default swallow false.
	err := tx.Model(&source).Updates(map[string]interface{}{
		"disabled":       setting.DISABLED,
		"supports_https": setting.SUPPORTS_HTTPS == nil || *setting.SUPPORTS_HTTPS,
	}).Error
	return errors.Wrap(err, "fail to save feed source "+setting.URL)
}

func upsertRepostCategory(tx *gorm.DB, setting app_setting.RepostCategorySetting, channelId *string) error {
	var category model.RepostCategory
	res := tx.Where("label = ?", setting.LABEL).Limit(1).Find(&category)
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to look up repost category "+setting.LABEL)
	}
	if res.RowsAffected == 0 {
		category = model.RepostCategory{Id: uuid.New().String(), Label: setting.LABEL}
	}
	category.Cutoff = setting.CUTOFF
	category.TargetChannelID = channelId
	// Save would otherwise also write a stale preloaded association.
	category.TargetChannel = nil
	return errors.Wrap(tx.Save(&category).Error, "fail to save repost category "+setting.LABEL)
}
