// Package smarty is a minimal client for the Smarty US Street Address API,
// covering only the fields the verification stage consumes: the RDI
// (residential delivery indicator) and DPV CMRA (commercial mail receiving
// agency) classification of a single address.
package smarty

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the production US Street Address endpoint.
const DefaultBaseURL = "https://us-street.api.smarty.com/street-address"

// Classification values reported when the API answers but carries no
// usable candidate or field.
const (
	Invalid = "Invalid" // no candidate: the address could not be verified
	Unknown = "Unknown" // candidate present but the field was absent
)

// Lookup is one address to verify. Secondary is included only when set.
type Lookup struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Secondary string
}

// Result holds the two classification flags for a verified address.
type Result struct {
	RDI  string
	CMRA string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; for tests
}

// Client calls the US Street Address API with fixed auth credentials.
type Client struct {
	baseURL   string
	authID    string
	authToken string
	http      *http.Client
}

// New creates a Client.
func New(creds Credentials, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:   opts.BaseURL,
		authID:    creds.AuthID,
		authToken: creds.AuthToken,
		http:      httpClient,
	}
}

// candidate is the subset of the API response the pipeline consumes.
type candidate struct {
	Metadata struct {
		RDI string `json:"rdi"`
	} `json:"metadata"`
	Analysis struct {
		DpvCmra string `json:"dpv_cmra"`
	} `json:"analysis"`
}

// Verify validates one address, requesting a single strict-match candidate.
// An empty candidate list means the address is unverifiable and yields
// Invalid/Invalid; transport and HTTP failures are returned as errors for
// the caller's sentinel policy.
func (c *Client) Verify(ctx context.Context, lookup Lookup) (Result, error) {
	params := url.Values{
		"auth-id":    {c.authID},
		"auth-token": {c.authToken},
		"street":     {lookup.Street},
		"city":       {lookup.City},
		"state":      {lookup.State},
		"zipcode":    {lookup.ZipCode},
		"candidates": {"1"},
		"match":      {"strict"},
	}
	if lookup.Secondary != "" {
		params.Set("secondary", lookup.Secondary)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, eris.Wrap(err, "smarty: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, eris.Wrap(err, "smarty: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, eris.Errorf("smarty: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, eris.Wrap(err, "smarty: read body")
	}

	var candidates []candidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		return Result{}, eris.Wrap(err, "smarty: parse response")
	}

	if len(candidates) == 0 {
		return Result{RDI: Invalid, CMRA: Invalid}, nil
	}

	res := Result{RDI: candidates[0].Metadata.RDI, CMRA: candidates[0].Analysis.DpvCmra}
	if res.RDI == "" {
		res.RDI = Unknown
	}
	if res.CMRA == "" {
		res.CMRA = Unknown
	}
	return res, nil
}
