package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stonksfeed/tickerscan/scraper/ratelimit"
	Logger "github.com/stonksfeed/tickerscan/utils/log"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenUrl   = "https://www.reddit.com/api/v1/access_token"
	apiBaseUrl = "https://oauth.reddit.com"

	// reddit asks listing consumers to page at most 100 at a time.
	maxListingLimit = 100
	// Comments fetched per morechildren call.
	moreChildrenPageSize = 100
)

// Client is an OAuth-authenticated reddit read API client. Every request is
// admitted through the rate limiter first, and provider over-quota rejections
// are absorbed with the limiter's backoff schedule before surfacing a
// terminal error.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	userAgent  string
	baseUrl    string

	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClientFromEnv builds a client from REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET
// and REDDIT_USER_AGENT. Missing credentials are a startup configuration
// error: scraping without them can produce no usable output.
func NewClientFromEnv(limiter *ratelimit.Limiter) (*Client, error) {
	clientId := os.Getenv("REDDIT_CLIENT_ID")
	clientSecret := os.Getenv("REDDIT_CLIENT_SECRET")
	userAgent := os.Getenv("REDDIT_USER_AGENT")
	if clientId == "" || clientSecret == "" {
		return nil, errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET must be set")
	}
	if userAgent == "" {
		return nil, errors.New("REDDIT_USER_AGENT must be set, reddit rejects default user agents")
	}

	conf := &clientcredentials.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		TokenURL:     tokenUrl,
	}
	return NewClient(conf.Client(context.Background()), limiter, userAgent), nil
}

func NewClient(httpClient *http.Client, limiter *ratelimit.Limiter, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		userAgent:  userAgent,
		baseUrl:    apiBaseUrl,
		sleep:      sleepWithContext,
	}
}

// ListNewSubmissions returns the most recent submissions in a subreddit,
// newest first.
func (c *Client) ListNewSubmissions(ctx context.Context, subreddit string, limit int) ([]Submission, error) {
	if limit <= 0 || limit > maxListingLimit {
		limit = maxListingLimit
	}
	uri := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", c.baseUrl, url.PathEscape(subreddit), limit)

	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseListing(body)
}

// SearchSubmissionsByDate returns submissions created on the given calendar
// day (UTC), for backfill discovery where historical threads are no longer in
// the /new listing.
func (c *Client) SearchSubmissionsByDate(ctx context.Context, subreddit string, day time.Time) ([]Submission, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 1)
	query := fmt.Sprintf("timestamp:%d..%d", start.Unix(), end.Unix())
	uri := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=1&sort=new&syntax=cloudsearch&limit=%d&raw_json=1",
		c.baseUrl, url.PathEscape(subreddit), url.QueryEscape(query), maxListingLimit)

	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseListing(body)
}

// FetchThread fetches a submission with its reply tree. expandLimit bounds
// how many "more children" stubs are unfolded; 0 means unlimited expansion,
// which is allowed but discouraged for very large threads.
func (c *Client) FetchThread(ctx context.Context, subreddit string, threadId string, expandLimit int) (*Thread, error) {
	uri := fmt.Sprintf("%s/r/%s/comments/%s.json?limit=500&raw_json=1",
		c.baseUrl, url.PathEscape(subreddit), url.PathEscape(threadId))

	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	thread, err := ParseCommentTree(body)
	body.Close()
	if err != nil {
		return nil, err
	}

	return c.expandMoreChildren(ctx, thread, threadId, expandLimit)
}

// expandMoreChildren unfolds the thread's "more" stubs breadth-first until
// none are left or the expansion budget is spent.
func (c *Client) expandMoreChildren(ctx context.Context, thread *Thread, threadId string, expandLimit int) (*Thread, error) {
	expansions := 0
	for len(thread.UnexpandedIds) > 0 {
		if expandLimit > 0 && expansions >= expandLimit {
			Logger.Log.WithField("thread_id", threadId).
				Infof("expansion budget spent, leaving %d comment stubs unexpanded", len(thread.UnexpandedIds))
			break
		}

		pending := thread.UnexpandedIds
		page := pending
		if len(page) > moreChildrenPageSize {
			page = page[:moreChildrenPageSize]
		}
		thread.UnexpandedIds = pending[len(page):]

		uri := fmt.Sprintf("%s/api/morechildren.json?api_type=json&link_id=%s_%s&children=%s&raw_json=1",
			c.baseUrl, kindLink, url.PathEscape(threadId), url.QueryEscape(strings.Join(page, ",")))
		body, err := c.get(ctx, uri)
		if err != nil {
			return nil, err
		}
		comments, more, err := ParseMoreChildren(body)
		body.Close()
		if err != nil {
			return nil, err
		}

		thread.Comments = append(thread.Comments, comments...)
		thread.UnexpandedIds = append(thread.UnexpandedIds, more...)
		expansions++
	}
	return thread, nil
}

// get issues one rate-limited GET, retrying provider over-quota rejections
// per the limiter's backoff schedule. After the schedule is exhausted the
// caller receives ratelimit.ErrRetriesExhausted and should abandon the
// current thread for this run.
func (c *Client) get(ctx context.Context, uri string) (io.ReadCloser, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, uri)
		if err == nil {
			return body, nil
		}

		providerErr := &ratelimit.ProviderError{}
		if !errors.As(err, &providerErr) {
			return nil, err
		}

		wait, retry := c.limiter.OnRateLimited(providerErr.Message, attempt)
		if !retry {
			return nil, errors.Wrap(ratelimit.ErrRetriesExhausted, providerErr.Message)
		}
		Logger.Log.Warnf("provider rate limited (attempt %d), backing off %s: %s", attempt, wait, providerErr.Message)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) doOnce(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fail to build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}

	if res.StatusCode == http.StatusTooManyRequests {
		message := readBodyForError(res)
		return nil, &ratelimit.ProviderError{StatusCode: res.StatusCode, Message: message}
	}
	if res.StatusCode >= 300 {
		message := readBodyForError(res)
		Logger.Log.Errorf("non-200 http code: %d, body: %s", res.StatusCode, message)
		// reddit occasionally reports quota errors with a 200-family error
		// payload; the RATELIMIT marker is authoritative either way.
		if strings.Contains(message, "RATELIMIT") {
			return nil, &ratelimit.ProviderError{StatusCode: res.StatusCode, Message: message}
		}
		return nil, errors.Errorf("non-200 http code: %d", res.StatusCode)
	}
	return res.Body, nil
}

func readBodyForError(res *http.Response) string {
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return ""
	}
	return string(body)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
