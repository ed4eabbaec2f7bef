package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/stonksfeed/tickerscan/app_config"
	"github.com/stonksfeed/tickerscan/model"
	"github.com/stonksfeed/tickerscan/scraper/reddit"
)

// Date-ish fragments inside thread titles, e.g. "August 24, 2026",
// "2026-08-24", "08/24/2026". The fragment, not the whole title, is handed to
// dateparse.
var titleDateRe = regexp.MustCompile(
	`([A-Z][a-z]+ \d{1,2},? \d{4})|(\d{4}-\d{2}-\d{2})|(\d{1,2}/\d{1,2}/\d{4})`)

// ClassifyThread buckets a submission title using the per-subreddit keyword
// lists. Weekend keywords win over the plain discussion keywords so "Weekend
// Discussion" threads are not misfiled as daily.
func ClassifyThread(title string, cfg *app_config.SubredditConfig) string {
	lower := strings.ToLower(title)
	if matchesAnyKeyword(lower, cfg.WEEKEND_KEYWORDS) {
		return model.ThreadTypeWeekend
	}
	if matchesAnyKeyword(lower, cfg.DISCUSSION_KEYWORDS) {
		return model.ThreadTypeDaily
	}
	return model.ThreadTypeRegular
}

func matchesAnyKeyword(lowerTitle string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowerTitle, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// TitleDate extracts the calendar date named in a thread title, when there is
// one. Recurring discussion threads carry their date in the title, which is a
// stronger backfill signal than the submission timestamp (a "Daily Discussion
// Thread for August 24" is occasionally posted late on the 23rd).
func TitleDate(title string) (time.Time, bool) {
	fragment := titleDateRe.FindString(title)
	if fragment == "" {
		return time.Time{}, false
	}
	parsed, err := dateparse.ParseAny(fragment)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// MatchesDay reports whether the submission belongs to the given calendar day
// (UTC), preferring the title date over the creation timestamp.
func MatchesDay(submission *reddit.Submission, day time.Time) bool {
	day = day.UTC().Truncate(24 * time.Hour)
	if titleDay, ok := TitleDate(submission.Title); ok {
		return titleDay.UTC().Truncate(24 * time.Hour).Equal(day)
	}
	return submission.CreatedUtc.UTC().Truncate(24 * time.Hour).Equal(day)
}
