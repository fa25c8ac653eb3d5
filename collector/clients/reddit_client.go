package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	RedditOAuthBaseUrl = "https://oauth.reddit.com"
	RedditTokenUrl     = "https://www.reddit.com/api/v1/access_token"
	RedditWebBaseUrl   = "https://www.reddit.com"

	listingHot    = "hot"
	listingRising = "rising"
)

// RedditPost is a link or self post read from a listing.
type RedditPost struct {
	// Fullname is reddit's own identity of a post, e.g. "t3_abc123".
	Fullname  string
	Url       string
	Title     string
	IsSelf    bool
	Permalink string
}

// RedditSubmission is a handle on a post we submitted.
type RedditSubmission struct {
	Fullname  string
	Subreddit string
	Permalink string
}

// RedditAPI is the part of the reddit API the bot reads from and writes to.
type RedditAPI interface {
	ListHot(ctx context.Context, subreddit string, limit int) ([]RedditPost, error)
	ListRising(ctx context.Context, subreddit string, limit int) ([]RedditPost, error)
	Submit(ctx context.Context, subreddit string, title string, link string) (RedditSubmission, error)
	SetFlair(ctx context.Context, submission RedditSubmission, text string) error
	Reply(ctx context.Context, submission RedditSubmission, text string) error
}

type RedditCredentials struct {
	ClientId     string
	ClientSecret string
	Username     string
	Password     string
}

// RedditClient talks to the reddit OAuth API as a script app.
type RedditClient struct {
	baseUrl string
	http    *HttpClient
}

var _ RedditAPI = (*RedditClient)(nil)

// NewRedditClient authenticates with the password grant of a script app. The
// token is renewed with the same credentials whenever it expires.
func NewRedditClient(ctx context.Context, creds RedditCredentials, userAgent string) *RedditClient {
	conf := &oauth2.Config{
		ClientID:     creds.ClientId,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  RedditTokenUrl,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	// The token endpoint also insists on a descriptive user agent.
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: &userAgentTransport{userAgent: userAgent, base: http.DefaultTransport},
	})
	source := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
		ctx:      tokenCtx,
		conf:     conf,
		username: creds.Username,
		password: creds.Password,
	})
	return NewRedditClientWithHttpClient(RedditOAuthBaseUrl, oauth2.NewClient(ctx, source), userAgent)
}

// NewRedditClientWithHttpClient uses an already authenticated http client,
// tests point baseUrl at an httptest server.
func NewRedditClientWithHttpClient(baseUrl string, client *http.Client, userAgent string) *RedditClient {
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	return &RedditClient{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		http:    NewHttpClient(client, header),
	}
}

type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string

	mu sync.Mutex
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, errors.Wrap(err, "fail to obtain reddit access token")
	}
	return token, nil
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Name      string `json:"name"`
				Url       string `json:"url"`
				Title     string `json:"title"`
				IsSelf    bool   `json:"is_self"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditJsonResponse struct {
	Json struct {
		Errors [][]interface{} `json:"errors"`
		Data   struct {
			Id   string `json:"id"`
			Name string `json:"name"`
			Url  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

func (r *RedditClient) ListHot(ctx context.Context, subreddit string, limit int) ([]RedditPost, error) {
	return r.list(ctx, subreddit, listingHot, limit)
}

func (r *RedditClient) ListRising(ctx context.Context, subreddit string, limit int) ([]RedditPost, error) {
	return r.list(ctx, subreddit, listingRising, limit)
}

func (r *RedditClient) list(ctx context.Context, subreddit string, listing string, limit int) ([]RedditPost, error) {
	if limit <= 0 {
		return []RedditPost{}, nil
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")

	res, err := r.http.Get(ctx, r.baseUrl+"/r/"+url.PathEscape(subreddit)+"/"+listing, params)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to list %s posts of r/%s", listing, subreddit)
	}
	defer res.Body.Close()

	var decoded redditListing
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrapf(err, "fail to decode %s listing of r/%s", listing, subreddit)
	}

	posts := make([]RedditPost, 0, len(decoded.Data.Children))
	for _, child := range decoded.Data.Children {
		posts = append(posts, RedditPost{
			Fullname:  child.Data.Name,
			Url:       child.Data.Url,
			Title:     child.Data.Title,
			IsSelf:    child.Data.IsSelf,
			Permalink: child.Data.Permalink,
		})
	}
	return posts, nil
}

func (r *RedditClient) Submit(ctx context.Context, subreddit string, title string, link string) (RedditSubmission, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "link")
	form.Set("sr", subreddit)
	form.Set("title", title)
	form.Set("url", link)
	form.Set("resubmit", "true")

	decoded, err := r.postJson(ctx, "/api/submit", form)
	if err != nil {
		return RedditSubmission{}, errors.Wrapf(err, "fail to submit to r/%s", subreddit)
	}
	return RedditSubmission{
		Fullname:  decoded.Json.Data.Name,
		Subreddit: subreddit,
		Permalink: strings.TrimPrefix(decoded.Json.Data.Url, RedditWebBaseUrl),
	}, nil
}

// SetFlair needs moderator rights on the submission's subreddit.
func (r *RedditClient) SetFlair(ctx context.Context, submission RedditSubmission, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("link", submission.Fullname)
	form.Set("text", text)

	_, err := r.postJson(ctx, "/r/"+url.PathEscape(submission.Subreddit)+"/api/flair", form)
	return errors.Wrapf(err, "fail to set flair on %s", submission.Fullname)
}

func (r *RedditClient) Reply(ctx context.Context, submission RedditSubmission, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", submission.Fullname)
	form.Set("text", text)

	_, err := r.postJson(ctx, "/api/comment", form)
	return errors.Wrapf(err, "fail to reply to %s", submission.Fullname)
}

func (r *RedditClient) postJson(ctx context.Context, path string, form url.Values) (*redditJsonResponse, error) {
	res, err := r.http.PostForm(ctx, r.baseUrl+path, form)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	decoded := &redditJsonResponse{}
	if err := json.NewDecoder(res.Body).Decode(decoded); err != nil {
		return nil, errors.Wrap(err, "fail to decode reddit response")
	}
	if len(decoded.Json.Errors) > 0 {
		return nil, errors.Errorf("reddit rejected request: %v", decoded.Json.Errors)
	}
	return decoded, nil
}
