package ratelimit

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// MaxAttempts is how many times a provider-rejected request is retried before
// the caller should abandon it for this run.
const MaxAttempts = 3

// ErrRetriesExhausted signals that a request was rejected by the provider
// MaxAttempts times. The orchestrator abandons the affected thread for the
// current run; it is never treated as a fatal process error.
var ErrRetriesExhausted = errors.New("provider rate limit retries exhausted")

var backoffLadder = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

const maxJitter = 5 * time.Second

// reddit style hint, e.g. "you are doing that too much. try again in 7 minutes."
var retryHintRe = regexp.MustCompile(`(?i)in (\d+) (minutes?|seconds?)`)

// ProviderError is a provider-issued over-quota rejection, carrying the raw
// message so a retry hint can be extracted from it.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rate limited (status %d): %s", e.StatusCode, e.Message)
}

// OnRateLimited computes how long to wait before retrying a rejected request.
// attempt is 1-indexed. The second return value is false once retrying should
// stop.
//
// A provider-supplied "try again in N minutes" hint takes precedence; absent
// a hint the fixed ladder 30s/60s/120s applies. Either way 0-5s of jitter is
// added so parallel deployments do not retry in lockstep.
func (l *Limiter) OnRateLimited(providerMessage string, attempt int) (time.Duration, bool) {
	if attempt > MaxAttempts {
		return 0, false
	}

	wait, ok := parseRetryHint(providerMessage)
	if !ok {
		idx := attempt - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(backoffLadder) {
			idx = len(backoffLadder) - 1
		}
		wait = backoffLadder[idx]
	}
	return wait + time.Duration(rand.Int63n(int64(maxJitter))), true
}

func parseRetryHint(message string) (time.Duration, bool) {
	m := retryHintRe.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	unit := time.Minute
	if m[2][0] == 's' || m[2][0] == 'S' {
		unit = time.Second
	}
	return time.Duration(n) * unit, true
}
