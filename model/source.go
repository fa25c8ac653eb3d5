package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

/*

SubredditSource is a subreddit polled for link posts

Id: primary key, use to identify a source
CreatedAt: time when entity is created
UpdatedAt: time when entity is updated

Name: subreddit name without the "r/" prefix
PostLimit: how many posts to request from each of the "rising" and "hot" listings
Disabled: disabled sources are skipped by every run
*/
type SubredditSource struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:32;not null"`
	PostLimit int    `gorm:"not null"`
	Disabled  bool   `gorm:"not null;default:false"`
}

func (s SubredditSource) String() string {
	res := fmt.Sprintf("%s (%d posts)", s.Name, s.PostLimit)
	if s.Disabled {
		res += " [DISABLED]"
	}
	return res
}

func (s *SubredditSource) BeforeSave(tx *gorm.DB) error {
	if s.PostLimit < 0 {
		return errors.New("subreddit source post limit must not be negative")
	}
	return nil
}

/*

FeedSource is an RSS/Atom feed polled for stories

Id: primary key, use to identify a source
Url: location of the feed document
Disabled: disabled sources are skipped by every run
SupportsHttps: whether story links from this feed can be submitted as https
Title, Description: copied from the feed document on each successful read,
never edited by hand
*/
type FeedSource struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Url           string `gorm:"not null"`
	Disabled      bool   `gorm:"not null;default:false"`
	SupportsHttps bool   `gorm:"not null;default:true"`
	Title         string `gorm:"size:256"`
	Description   *string `gorm:"size:1024"`
}

func (s FeedSource) String() string {
	res := s.Url
	if s.Disabled {
		res += " [DISABLED]"
	}
	return res
}
