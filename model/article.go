package model

import (
	"time"
)

// Article kind, i.e. whether the scraped unit is the submission itself or a
// nested comment.
const (
	ArticleKindPost    = "post"
	ArticleKindComment = "comment"
)

/*

Article is a piece of discussion content the scraper fetched

RedditId: primary key, reddit's globally unique comment/post id. This is the
		sole idempotency key: an insert conflicting on it is silently skipped.
ThreadId: the RedditThread this article belongs to, "belongs-to" relation
Kind: post or comment, see ArticleKind* constants
Title: submission title, empty for comments
Body: plain text content
Author: reddit username
Score: provider vote score at scrape time
ReplyCount: number of direct replies at scrape time
Permalink: absolute url to the content, used by the linker's fetch fallback
PostedAt: creation time on the provider side, drives the low-water mark

SentimentScore: written later by the sentiment job, never by this core

TickerLinks: links produced for this article, committed in the same batch

Articles are insert-only from this core's point of view.
*/

type Article struct {
	RedditId       string `gorm:"primaryKey"`
	CreatedAt      time.Time
	ThreadId       string       `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Thread         RedditThread `gorm:"foreignKey:ThreadId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Kind           string
	Title          string
	Body           string
	Author         string
	Score          int
	ReplyCount     int
	Permalink      string
	PostedAt       time.Time `gorm:"index"`
	SentimentScore *float64
	TickerLinks    []TickerLink `gorm:"foreignKey:ArticleId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
