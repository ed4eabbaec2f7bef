package model

import (
	"time"
)

/*

TickerLink connects an Article to a Ticker the linker accepted

ArticleId + Symbol: composite primary key
Confidence: linker score in [0,1]; always at or above the acceptance threshold
		that applied at write time (0.55 for single-letter symbols, 0.50 otherwise)
MatchedTerms: alias/keyword terms that fired during analysis
Reasoning: human readable explanation, for auditing only, never scored

Links are written in the same transaction as their Article and never updated
in place.
*/

type TickerLink struct {
	ArticleId    string `gorm:"primaryKey"`
	Symbol       string `gorm:"primaryKey"`
	CreatedAt    time.Time
	Confidence   float64
	MatchedTerms StringList `gorm:"type:text"`
	Reasoning    string
}
