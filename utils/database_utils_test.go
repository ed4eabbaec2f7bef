package utils

import (
	"testing"

	"github.com/stonksfeed/tickerscan/model"
	"github.com/stretchr/testify/assert"
)

func TestCreateTempDBIsMigratedAndIsolated(t *testing.T) {
	db := CreateTempDB(t)
	other := CreateTempDB(t)

	assert.Nil(t, db.Create(&model.Ticker{Symbol: "AAPL", Name: "Apple Inc", IsActive: true}).Error)

	var count int64
	assert.Nil(t, db.Model(&model.Ticker{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The second DB must not see rows written to the first.
	assert.Nil(t, other.Model(&model.Ticker{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSeedTickersSkipsExistingSymbols(t *testing.T) {
	db := CreateTempDB(t)

	assert.Nil(t, SeedTickers(db, []model.Ticker{
		{Symbol: "V", Name: "Visa Inc", IsActive: true},
		{Symbol: "AAPL", Name: "Apple Inc", IsActive: true},
	}))
	// Re-seeding with a changed name must not overwrite reference data.
	assert.Nil(t, SeedTickers(db, []model.Ticker{
		{Symbol: "V", Name: "Something Else", IsActive: false},
	}))

	var ticker model.Ticker
	assert.Nil(t, db.Where("symbol = ?", "V").First(&ticker).Error)
	assert.Equal(t, "Visa Inc", ticker.Name)
	assert.True(t, ticker.IsActive)

	var count int64
	assert.Nil(t, db.Model(&model.Ticker{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMigrationCoversAllTables(t *testing.T) {
	db := CreateTempDB(t)

	assert.Nil(t, db.Create(&model.RedditThread{ThreadId: "abc", Subreddit: "wallstreetbets"}).Error)
	assert.Nil(t, db.Create(&model.Article{RedditId: "c1", ThreadId: "abc", Kind: model.ArticleKindComment}).Error)
	assert.Nil(t, db.Create(&model.TickerLink{ArticleId: "c1", Symbol: "AAPL", Confidence: 0.6}).Error)
}
