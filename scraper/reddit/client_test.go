package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stonksfeed/tickerscan/scraper/ratelimit"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.Client(), ratelimit.NewLimiter(1000), "tickerscan-test/0.1")
	client.baseUrl = server.URL
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return client, server
}

func TestListNewSubmissions(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/wallstreetbets/new.json", r.URL.Path)
		require.Equal(t, "tickerscan-test/0.1", r.Header.Get("User-Agent"))
		w.Write([]byte(listingJson))
	}))

	submissions, err := client.ListNewSubmissions(context.Background(), "wallstreetbets", 50)
	require.NoError(t, err)
	require.Len(t, submissions, 2)
}

func TestFetchThreadExpandsMoreChildren(t *testing.T) {
	calls := []string{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/r/wallstreetbets/comments/abc123.json":
			w.Write([]byte(commentTreeJson))
		case "/api/morechildren.json":
			w.Write([]byte(moreChildrenJson))
		default:
			t.Fatal("unexpected path: ", r.URL.Path)
		}
	}))

	// Budget of 1 expansion: the initial stubs are expanded once, the "c6"
	// stub returned by that expansion stays unexpanded.
	thread, err := client.FetchThread(context.Background(), "wallstreetbets", "abc123", 1)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	require.Len(t, thread.Comments, 3)
	require.Equal(t, []string{"c6"}, thread.UnexpandedIds)
}

func TestGetRetriesOnProviderRateLimit(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("you are doing that too much. try again in 1 minute."))
			return
		}
		w.Write([]byte(listingJson))
	}))

	submissions, err := client.ListNewSubmissions(context.Background(), "wallstreetbets", 10)
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Len(t, submissions, 2)
}

func TestGetSurfacesTerminalErrorAfterRetriesExhausted(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("RATELIMIT"))
	}))

	_, err := client.ListNewSubmissions(context.Background(), "wallstreetbets", 10)
	require.Error(t, err)
	require.True(t, errors.Is(err, ratelimit.ErrRetriesExhausted))
	// 3 retried attempts plus the final one that exhausts the schedule.
	require.Equal(t, 4, attempts)
}

func TestNewClientFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	t.Setenv("REDDIT_USER_AGENT", "")

	_, err := NewClientFromEnv(ratelimit.NewLimiter(90))
	require.Error(t, err)
}
