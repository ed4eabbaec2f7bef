package linker

import (
	"testing"

	"github.com/stonksfeed/tickerscan/model"
	"github.com/stretchr/testify/require"
)

func visaTicker() model.Ticker {
	return model.Ticker{
		Symbol:           "V",
		Name:             "Visa Inc",
		IsActive:         true,
		Aliases:          model.StringList{"V", "Visa", "Visa Inc"},
		PositiveKeywords: model.StringList{"earnings", "payment network", "credit card"},
		NegativeKeywords: model.StringList{"visa application", "travel", "immigration", "passport"},
		IndustryKeywords: model.StringList{"stock", "shares", "revenue", "calls", "puts"},
	}
}

func appleTicker() model.Ticker {
	return model.Ticker{
		Symbol:           "AAPL",
		Name:             "Apple Inc",
		IsActive:         true,
		Aliases:          model.StringList{"AAPL", "Apple"},
		PositiveKeywords: model.StringList{"iphone", "earnings", "tim cook"},
		NegativeKeywords: model.StringList{"fruit", "pie", "orchard"},
		IndustryKeywords: model.StringList{"stock", "shares", "revenue"},
	}
}

func TestScorePositiveFinancialContext(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := visaTicker()

	score, matched, reasoning := a.Score(
		"Visa Inc beats earnings expectations, V stock surges 5%", &ticker)

	require.GreaterOrEqual(t, score, SingleLetterThreshold)
	require.Contains(t, matched, "Visa Inc")
	require.Contains(t, matched, "earnings")
	require.Contains(t, matched, "stock")
	require.NotEmpty(t, reasoning)
}

func TestScoreNegativeContext(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := visaTicker()

	score, matched, _ := a.Score("Apply for a visa before traveling", &ticker)

	require.Less(t, score, SingleLetterThreshold)
	// The alias did occur, it is the context that rejected it.
	require.Contains(t, matched, "Visa")
	require.Contains(t, matched, "travel")
}

func TestScoreNegativeVetoOverridesPositives(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := visaTicker()

	// Plenty of positive signal, but two distinct negative keywords fire.
	score, _, reasoning := a.Score(
		"Visa earnings and stock look great, but my visa application for travel got denied", &ticker)

	require.Equal(t, 0.0, score)
	require.Contains(t, reasoning, "vetoed")
}

func TestScoreBareSymbolIsCaseSensitive(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := model.Ticker{
		Symbol:   "V",
		IsActive: true,
		Aliases:  model.StringList{"V"},
	}

	score, _, _ := a.Score("i v much doubt this matters", &ticker)
	require.Equal(t, 0.0, score)
}

func TestScoreBareSymbolNeedsWordBoundary(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := model.Ticker{
		Symbol:   "V",
		IsActive: true,
		Aliases:  model.StringList{"V"},
	}

	score, _, _ := a.Score("Very interesting market today", &ticker)
	require.Equal(t, 0.0, score)

	score, matched, _ := a.Score("V looks strong", &ticker)
	require.Greater(t, score, 0.0)
	require.Contains(t, matched, "V")
}

func TestScoreNoAliasOccurrence(t *testing.T) {
	a := NewContextAnalyzer()
	ticker := appleTicker()

	score, matched, reasoning := a.Score("Tesla deliveries hit a record", &ticker)
	require.Equal(t, 0.0, score)
	require.Empty(t, matched)
	require.Equal(t, "no alias occurrence", reasoning)
}

func TestAcceptanceThreshold(t *testing.T) {
	visa := visaTicker()
	apple := appleTicker()
	require.Equal(t, SingleLetterThreshold, AcceptanceThreshold(&visa))
	require.Equal(t, DefaultThreshold, AcceptanceThreshold(&apple))
}

func TestFindOccurrences(t *testing.T) {
	t.Run("case insensitive alias", func(t *testing.T) {
		positions := findOccurrences("apple and APPLE and apples", "apple", false)
		// "apples" fails the word boundary.
		require.Len(t, positions, 2)
	})
	t.Run("case sensitive symbol", func(t *testing.T) {
		positions := findOccurrences("GME to the moon, gme!", "GME", true)
		require.Len(t, positions, 1)
		require.Equal(t, 0, positions[0])
	})
}
