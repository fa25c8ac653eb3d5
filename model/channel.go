package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

/*

TargetChannel is a subreddit the bot is allowed to submit to

Id: primary key
Name: the subreddit name, unique
*/
type TargetChannel struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string `gorm:"size:32;uniqueIndex;not null"`
}

func (c TargetChannel) String() string {
	return c.Name
}

/*

RepostCategory maps a sentiment label to the confidence cutoff above which
the item is reposted, and to the channel it is reposted to.

Label: one of the SentimentLabel values, unique
Cutoff: score must be strictly greater than this value, in (0, 1)
TargetChannelID / TargetChannel: nil means the label never triggers a repost
*/
type RepostCategory struct {
	Id              string `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Label           string  `gorm:"size:10;uniqueIndex;not null"`
	Cutoff          float64 `gorm:"not null"`
	TargetChannelID *string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	TargetChannel   *TargetChannel
}

func (c RepostCategory) String() string {
	return fmt.Sprintf("%s (>%g)", c.Label, c.Cutoff)
}

func (c *RepostCategory) BeforeSave(tx *gorm.DB) error {
	if c.Cutoff <= 0 || c.Cutoff >= 1 {
		return fmt.Errorf("repost category %s cutoff %g is outside (0, 1)", c.Label, c.Cutoff)
	}
	if !SentimentLabel(c.Label).IsValid() {
		return errors.New("repost category has unknown label " + c.Label)
	}
	return nil
}

// ChannelName returns the configured target channel, or "" when there is none.
func (c RepostCategory) ChannelName() string {
	if c.TargetChannel == nil {
		return ""
	}
	return c.TargetChannel.Name
}
