package collector

import (
	"context"

	"github.com/Luismorlan/goodnewsbot/collector/clients"
	"github.com/Luismorlan/goodnewsbot/model"
	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

// RedditSubredditReader reads the "rising" and "hot" listings of a subreddit
// and keeps the link posts.
type RedditSubredditReader struct {
	api clients.RedditAPI
}

var _ SubredditReader = (*RedditSubredditReader)(nil)

func NewSubredditReader(api clients.RedditAPI) *RedditSubredditReader {
	return &RedditSubredditReader{api: api}
}

func (r *RedditSubredditReader) Read(ctx context.Context, source model.SubredditSource) ([]model.CandidateItem, error) {
	rising, err := r.api.ListRising(ctx, source.Name, source.PostLimit)
	if err != nil {
		return nil, &SourceReadError{Source: "r/" + source.Name, Err: err}
	}
	hot, err := r.api.ListHot(ctx, source.Name, source.PostLimit)
	if err != nil {
		return nil, &SourceReadError{Source: "r/" + source.Name, Err: err}
	}

	seen := make(map[string]bool, len(rising)+len(hot))
	candidates := []model.CandidateItem{}
	selfPosts := 0
	for _, post := range append(rising, hot...) {
		if seen[post.Fullname] {
			continue
		}
		seen[post.Fullname] = true
		if post.IsSelf {
			selfPosts++
			continue
		}
		candidates = append(candidates, model.CandidateItem{
			Origin:     model.OriginSubreddit,
			Url:        post.Url,
			Title:      post.Title,
			SourceID:   source.Id,
			SourceName: source.Name,
			Permalink:  post.Permalink,
		})
	}

	Logger.Log.Debugf("read %d link posts from r/%s, skipped %d self posts", len(candidates), source.Name, selfPosts)
	return candidates, nil
}
