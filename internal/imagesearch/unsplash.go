// Package imagesearch wraps the Unsplash photo search API: paginated
// search, rate limiting between calls, retried downloads.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"slidecraft/pkg/httputil"
)

const (
	defaultBaseURL = "https://api.unsplash.com"
	defaultTimeout = 10 * time.Second
	// maxPerPage is the search API's per_page ceiling.
	maxPerPage = 30
	maxCount   = 50
)

type Config struct {
	AccessKey string
	// RateInterval spaces out search API calls. Zero disables limiting.
	RateInterval time.Duration
	Retry        httputil.RetryConfig
}

type Client struct {
	accessKey  string
	httpClient *httputil.RetryClient
	limiter    *rate.Limiter
	baseURL    string
}

// Photo is one search hit with enough metadata to download and credit it.
type Photo struct {
	ID           string
	URL          string
	Description  string
	Photographer string
	Width        int
	Height       int
}

type searchResponse struct {
	TotalPages int          `json:"total_pages"`
	Results    []searchItem `json:"results"`
}

type searchItem struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	AltDescription string     `json:"alt_description"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	URLs           searchURLs `json:"urls"`
	User           searchUser `json:"user"`
}

type searchURLs struct {
	Regular string `json:"regular"`
}

type searchUser struct {
	Name string `json:"name"`
}

func NewClient(cfg Config) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 2)
	}

	return &Client{
		accessKey:  cfg.AccessKey,
		httpClient: httputil.NewRetryClient(&http.Client{Timeout: defaultTimeout}, cfg.Retry),
		limiter:    limiter,
		baseURL:    defaultBaseURL,
	}
}

// Search returns up to count photos for the query, paginating as needed.
// Fewer results than requested is not an error.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Photo, error) {
	if count < 1 || count > maxCount {
		return nil, fmt.Errorf("count %d outside [1, %d]", count, maxCount)
	}

	perPage := min(maxPerPage, count)
	var photos []Photo

	for page := 1; len(photos) < count; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.searchPage(ctx, query, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(resp.Results) == 0 {
			break
		}

		for _, item := range resp.Results {
			photos = append(photos, Photo{
				ID:           item.ID,
				URL:          item.URLs.Regular,
				Description:  firstNonEmpty(item.Description, item.AltDescription),
				Photographer: item.User.Name,
				Width:        item.Width,
				Height:       item.Height,
			})
		}

		if page >= resp.TotalPages {
			break
		}
	}

	if len(photos) > count {
		photos = photos[:count]
	}
	return photos, nil
}

func (c *Client) searchPage(ctx context.Context, query string, page, perPage int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("per_page", fmt.Sprintf("%d", perPage))

	reqURL := fmt.Sprintf("%s/search/photos?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search api error %s: %s", resp.Status, string(body))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &searchResp, nil
}

// Download fetches the raw bytes of a photo, rejecting non-image
// responses.
func (c *Client) Download(ctx context.Context, photoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download error: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// Attribution renders the credit line for a photo.
func (p Photo) Attribution() string {
	if p.Photographer == "" {
		return "Photo from Unsplash"
	}
	return fmt.Sprintf("Photo by %s on Unsplash", p.Photographer)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
