package collector

import (
	"context"

	"github.com/Luismorlan/goodnewsbot/collector/clients"
)

type fakeRedditAPI struct {
	hot    []clients.RedditPost
	rising []clients.RedditPost
	err    error

	listed []string
}

var _ clients.RedditAPI = (*fakeRedditAPI)(nil)

func (f *fakeRedditAPI) ListHot(ctx context.Context, subreddit string, limit int) ([]clients.RedditPost, error) {
	f.listed = append(f.listed, "hot")
	return limitPosts(f.hot, limit), f.err
}

func (f *fakeRedditAPI) ListRising(ctx context.Context, subreddit string, limit int) ([]clients.RedditPost, error) {
	f.listed = append(f.listed, "rising")
	return limitPosts(f.rising, limit), f.err
}

func (f *fakeRedditAPI) Submit(ctx context.Context, subreddit string, title string, link string) (clients.RedditSubmission, error) {
	return clients.RedditSubmission{}, nil
}

func (f *fakeRedditAPI) SetFlair(ctx context.Context, submission clients.RedditSubmission, text string) error {
	return nil
}

func (f *fakeRedditAPI) Reply(ctx context.Context, submission clients.RedditSubmission, text string) error {
	return nil
}

func limitPosts(posts []clients.RedditPost, limit int) []clients.RedditPost {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

type fakeFeedParser struct {
	doc *clients.FeedDocument
	err error
}

func (f *fakeFeedParser) ParseURL(ctx context.Context, url string) (*clients.FeedDocument, error) {
	return f.doc, f.err
}
