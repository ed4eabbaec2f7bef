package model

import (
	"time"
)

// Thread classification, decided by title keyword matching at discovery time.
const (
	ThreadTypeDaily   = "daily_discussion"
	ThreadTypeWeekend = "weekend_discussion"
	ThreadTypeRegular = "regular"
)

/*

RedditThread is the per-thread scrape progress checkpoint

ThreadId: primary key, reddit's submission id (e.g. "t3_abc123" without prefix)
Title: submission title at discovery time
Subreddit: forum the thread belongs to
ThreadType: one of the ThreadType* constants
TotalCount: provider-reported total comment count at last fetch
ScrapedCount: number of articles persisted so far, monotonically non-decreasing
LastScrapedAt: timestamp of the last successful batch commit
IsComplete: set when a historical thread has been fully extracted; completed
		threads are skipped by backfill
PostedAt: thread creation time on the provider side

Created on first discovery, updated after every committed batch, never deleted.
The orchestrator is the only writer.
*/

type RedditThread struct {
	ThreadId      string `gorm:"primaryKey"`
	CreatedAt     time.Time
	Title         string
	Subreddit     string `gorm:"index"`
	ThreadType    string
	TotalCount    int
	ScrapedCount  int
	LastScrapedAt time.Time
	IsComplete    bool
	PostedAt      time.Time
}
