// Package fetcher provides the HTTP page fetcher shared by the harvest and
// enrich stages.
package fetcher

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultUserAgent mirrors a desktop browser; the directory serves a
// degraded page to obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 2 << 20

// Options configures the fetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// Page is a fetched HTML document. FinalURL is the URL after redirects,
// which callers use to detect landing on a generic listings or home page.
type Page struct {
	Body       string
	FinalURL   string
	StatusCode int
}

// Client fetches pages with a fixed User-Agent and per-request timeout.
type Client struct {
	http      *http.Client
	userAgent string
}

// New creates a fetcher. Zero option fields get defaults (10s timeout,
// browser User-Agent).
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: opts.Timeout,
			},
		},
		userAgent: opts.UserAgent,
	}
}

// FetchPage GETs url and returns the decoded body. Transport failures are
// errors; HTTP-level failures are reported via StatusCode so callers can
// apply their own skip policy.
func (c *Client) FetchPage(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: create request %s", url)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read body %s", url)
	}

	body := decodeBody(raw, resp.Header.Get("Content-Type"))

	return &Page{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

// decodeBody converts the body to UTF-8 using the Content-Type charset.
// Unknown or missing charsets fall back to the bytes as-is.
func decodeBody(raw []byte, contentType string) string {
	if contentType == "" {
		return string(raw)
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(raw)
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" {
		return string(raw)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
