package scraper

import (
	"context"
	"time"

	"github.com/stonksfeed/tickerscan/scraper/reddit"
)

// ContentSource is the upstream read API the orchestrator scrapes. Satisfied
// by *reddit.Client; tests substitute a fake.
type ContentSource interface {
	ListNewSubmissions(ctx context.Context, subreddit string, limit int) ([]reddit.Submission, error)
	SearchSubmissionsByDate(ctx context.Context, subreddit string, day time.Time) ([]reddit.Submission, error)
	FetchThread(ctx context.Context, subreddit string, threadId string, expandLimit int) (*reddit.Thread, error)
}
