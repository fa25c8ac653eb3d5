package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Luismorlan/goodnewsbot/classifier"
	"github.com/Luismorlan/goodnewsbot/collector/clients"
	"github.com/Luismorlan/goodnewsbot/model"
	"github.com/Luismorlan/goodnewsbot/utils"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

const xpostReplyFormat = "Cross-posted from r/%s: https://reddit.com%s"

var (
	ErrAlreadyReposted  = errors.New("item is already reposted")
	ErrNothingToPublish = errors.New("decision is not a repost")
)

// XpostContext links a repost back to the subreddit post it was found in.
type XpostContext struct {
	Subreddit string
	Permalink string
}

// XpostContextFor returns the back reference of a subreddit item, nil for
// feed items or when the permalink is unknown.
func XpostContextFor(item *model.Item) *XpostContext {
	if !item.IsSubredditItem() || item.TheirPostPermalink == nil || item.SubredditSource == nil {
		return nil
	}
	return &XpostContext{Subreddit: item.SubredditSource.Name, Permalink: *item.TheirPostPermalink}
}

type RedditPublisher struct {
	api clients.RedditAPI
	now func() time.Time
}

func NewRedditPublisher(api clients.RedditAPI) *RedditPublisher {
	return &RedditPublisher{api: api, now: time.Now}
}

// TitleToPost is the title an item is submitted with.
func TitleToPost(item *model.Item) string {
	title := item.Title
	if item.IsFeedItem() {
		title = classifier.PrimaryText(item)
	}
	return utils.TruncateRunes(title, model.MaxPostedTitleLength)
}

// Publish submits item to the channel of decision. Once the submission
// exists the outcome is returned even if flair or reply fail, so the item is
// never submitted twice.
func (p *RedditPublisher) Publish(ctx context.Context, item *model.Item, decision Decision, xpost *XpostContext) (model.RepostOutcome, error) {
	if item.IsReposted() {
		return model.RepostOutcome{}, errors.Wrap(ErrAlreadyReposted, item.Id)
	}
	if decision.Action != ActionRepost || decision.Channel == "" {
		return model.RepostOutcome{}, errors.Wrap(ErrNothingToPublish, item.Id)
	}

	title := TitleToPost(item)
	submission, err := p.api.Submit(ctx, decision.Channel, title, item.LinkUrl)
	if err != nil {
		return model.RepostOutcome{}, errors.Wrapf(err, "fail to publish %s", item.Url)
	}

	if err := p.api.SetFlair(ctx, submission, decision.Annotation()); err != nil {
		Logger.Log.Errorf("fail to flair repost %s: %v", submission.Permalink, err)
	}
	if xpost != nil {
		reply := fmt.Sprintf(xpostReplyFormat, xpost.Subreddit, xpost.Permalink)
		if err := p.api.Reply(ctx, submission, reply); err != nil {
			Logger.Log.Errorf("fail to reply on repost %s: %v", submission.Permalink, err)
		}
	}

	channel := decision.Channel
	permalink := utils.TruncateRunes(submission.Permalink, model.MaxPermalinkLength)
	at := p.now()
	return model.RepostOutcome{
		PostedToChannel:  &channel,
		OurPostPermalink: &permalink,
		TitleAsPosted:    &title,
		RepostedAt:       &at,
	}, nil
}
