package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const feedPath = "data"

// FeedClient 拉取外部 pumpfun 数据，原样透传给前端
type FeedClient struct {
	baseURL string
	client  *http.Client
}

func NewFeedClient(baseURL string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchFeed 返回上游 json 解析后的数据
func (c *FeedClient) FetchFeed(ctx context.Context) (interface{}, error) {
	respBytes, err := c.get(ctx, fmt.Sprintf("%s/%s", c.baseURL, feedPath))
	if err != nil {
		return nil, err
	}

	var data interface{}
	if err = json.Unmarshal(respBytes, &data); err != nil {
		return nil, errors.Wrap(err, "decode feed response")
	}

	return data, nil
}

func (c *FeedClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new feed request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("http status code %d, err msg is %v", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
