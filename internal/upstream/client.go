package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

// ActivityDateLayout is the timestamp format used by the activity feed. Feed
// timestamps carry no zone and are interpreted as UTC.
const ActivityDateLayout = "02-Jan-2006 15:04"

// Client fetches rosters and activity feeds. It implements both
// roster.RosterSource and roster.ActivitySource.
type Client struct {
	httpClient  *http.Client
	rosterURL   string
	activityURL string
	userAgent   string
	timeout     time.Duration
	feedLoc     *time.Location
}

var (
	_ roster.RosterSource   = (*Client)(nil)
	_ roster.ActivitySource = (*Client)(nil)
)

// NewClient builds a client from the upstream configuration. A nil
// httpClient uses a fresh http.Client.
func NewClient(httpClient *http.Client, cfg config.UpstreamConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	loc, err := cfg.FeedLocation()
	if err != nil {
		loc = time.UTC
	}
	return &Client{
		feedLoc:     loc,
		httpClient:  httpClient,
		rosterURL:   cfg.RosterURL,
		activityURL: cfg.ActivityURL,
		userAgent:   ua,
		timeout:     timeout,
	}
}

// Members returns the normalized member names of group in listing order.
// The listing is ISO-8859-1 encoded CSV.
func (c *Client) Members(ctx context.Context, group string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, c.rosterURL, url.Values{"clanName": {group}})
	if err != nil {
		return nil, err
	}

	var names []string
	err = c.doRequest(req, func(body io.Reader) error {
		var perr error
		names, perr = roster.ParseRosterCSV(charmap.ISO8859_1.NewDecoder().Reader(body))
		return perr
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

type activityFeed struct {
	Error      string `json:"error"`
	Activities []struct {
		Date    string `json:"date"`
		Text    string `json:"text"`
		Details string `json:"details"`
	} `json:"activities"`
}

// RecentActivity returns up to count of the member's newest activities,
// newest first as reported by the feed.
func (c *Client) RecentActivity(ctx context.Context, name string, count int) ([]roster.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, c.activityURL, url.Values{
		"user":       {name},
		"activities": {strconv.Itoa(count)},
	})
	if err != nil {
		return nil, err
	}

	var feed activityFeed
	err = c.doRequest(req, func(body io.Reader) error {
		if derr := json.NewDecoder(body).Decode(&feed); derr != nil {
			return errors.UpstreamError("failed to decode activity feed").
				WithCause(derr).
				WithContext("member", name).
				Build()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if feed.Error != "" {
		return nil, errors.UpstreamError(fmt.Sprintf("activity feed error: %s", feed.Error)).
			WithContext("member", name).
			WithContext("feed_error", feed.Error).
			Build()
	}

	out := make([]roster.Activity, 0, len(feed.Activities))
	for _, a := range feed.Activities {
		ts, perr := time.ParseInLocation(ActivityDateLayout, strings.TrimSpace(a.Date), c.feedLoc)
		if perr != nil {
			return nil, errors.UpstreamError("unparsable activity date").
				WithCause(perr).
				WithContext("member", name).
				WithContext("date", a.Date).
				Build()
		}
		out = append(out, roster.Activity{Date: ts.UTC(), Text: a.Text, Details: a.Details})
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, base string, query url.Values) (*http.Request, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.ConfigError("failed to parse upstream URL").
			WithCause(err).
			WithContext("url", base).
			Build()
	}
	q := u.Query()
	for k, vs := range query {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("url", u.String()).
			Build()
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// doRequest executes req and hands a successful body to decode.
func (c *Client) doRequest(req *http.Request, decode func(io.Reader) error) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError("failed to execute upstream request").
			WithCause(err).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		category := errors.CategoryUpstream
		if resp.StatusCode == http.StatusNotFound {
			category = errors.CategoryNotFound
		}
		return errors.NewError(category, fmt.Sprintf("upstream error: %s", resp.Status)).
			Retryable().
			WithContext("status", resp.Status).
			WithContext("code", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("response", bodyStr).
			Build()
	}

	return decode(resp.Body)
}
