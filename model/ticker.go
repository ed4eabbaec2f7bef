package model

import (
	"time"
)

/*

Ticker is the read-only reference data for entity linking

Example: V (Visa Inc), AAPL (Apple Inc)

Symbol: primary key, the exchange ticker symbol
Name: canonical company name
Aliases: alternate textual forms that can refer to this ticker, including the
		bare symbol and company name variants ("Visa", "Visa Inc")
PositiveKeywords: company specific terms whose nearby presence raises match confidence
NegativeKeywords: terms that indicate the mention is NOT about the company
		(e.g. "visa application", "travel" for symbol V)
IndustryKeywords: generic business-discussion signals (earnings, shares, ...)
IsActive: inactive tickers are skipped by the linker

Rows are seeded and maintained outside this core; the scraper never writes
this table.
*/

type Ticker struct {
	Symbol           string `gorm:"primaryKey"`
	CreatedAt        time.Time
	Name             string
	Aliases          StringList `gorm:"type:text"`
	PositiveKeywords StringList `gorm:"type:text"`
	NegativeKeywords StringList `gorm:"type:text"`
	IndustryKeywords StringList `gorm:"type:text"`
	IsActive         bool       `gorm:"default:true"`
}

// IsSingleLetter reports whether the bare symbol is one character, which makes
// it disproportionately prone to false positives.
func (t *Ticker) IsSingleLetter() bool {
	return len(t.Symbol) == 1
}
