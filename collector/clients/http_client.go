package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	Logger "github.com/Luismorlan/goodnewsbot/utils/log"
)

// maxLoggedBodyBytes bounds how much of an error response ends up in logs.
const maxLoggedBodyBytes = 1024

type HttpClient struct {
	header http.Header

	client *http.Client
}

func NewHttpClient(client *http.Client, header http.Header) *HttpClient {
	if client == nil {
		client = &http.Client{}
	}
	if header == nil {
		header = http.Header{}
	}
	return &HttpClient{header: header, client: client}
}

// HttpStatusError is returned for any non 2XX response.
type HttpStatusError struct {
	StatusCode int
	Body       string
}

func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("non-2xx http code: %d, body: %s", e.StatusCode, e.Body)
}

func (c *HttpClient) Get(ctx context.Context, uri string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		uri = uri + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fail to build request for "+uri)
	}
	return c.do(req)
}

func (c *HttpClient) PostForm(ctx context.Context, uri string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "fail to build request for "+uri)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *HttpClient) do(req *http.Request) (*http.Response, error) {
	for k, v := range c.header {
		req.Header[k] = v
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed: "+req.URL.String())
	}

	if IsNon200HttpResponse(res) {
		defer res.Body.Close()
		body := ReadBodyForLog(res)
		Logger.Log.Errorf("non-200 http code: %d from %s, response body is: %s", res.StatusCode, req.URL.String(), body)
		return nil, &HttpStatusError{StatusCode: res.StatusCode, Body: body}
	}

	return res, nil
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode < 200 || res.StatusCode >= 300
}

func ReadBodyForLog(res *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(res.Body, maxLoggedBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
