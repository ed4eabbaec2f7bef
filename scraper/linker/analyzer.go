package linker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/stonksfeed/tickerscan/model"
)

// Scoring weights are centralized here so they can be tuned and tested
// without touching the matching control flow.
const (
	// Every alias occurrence starts from this value.
	baseScore = 0.30
	// Bonus per distinct company-specific keyword found near an occurrence.
	positiveKeywordBonus = 0.20
	// Bonus per distinct generic business-discussion keyword nearby.
	industryKeywordBonus = 0.10
	// Penalty per distinct negative-context keyword nearby.
	negativeKeywordPenalty = 0.40
	// Two or more distinct negative keywords veto the match outright.
	negativeVetoCount = 2
	// Matching more than one distinct alias form is itself a signal.
	multiAliasBonus = 0.10

	// Characters inspected on each side of an alias occurrence.
	contextWindowSize = 100

	// Acceptance thresholds applied by the linker.
	DefaultThreshold      = 0.50
	SingleLetterThreshold = 0.55
)

// ContextAnalyzer scores whether a textual mention of a ticker alias is
// actually about that company, using the per-ticker keyword sets.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer {
	return &ContextAnalyzer{}
}

// Score locates alias occurrences in text and evaluates their surrounding
// context. It returns a score in [0,1], the alias/keyword terms that fired,
// and a short explanation used for auditing only.
func (a *ContextAnalyzer) Score(text string, ticker *model.Ticker) (float64, []string, string) {
	if text == "" {
		return 0, nil, "empty text"
	}

	matchedAliases := []string{}
	windows := []string{}
	for _, alias := range ticker.Aliases {
		if alias == "" {
			continue
		}
		occurrences := findOccurrences(text, alias, isBareSymbol(alias, ticker.Symbol))
		if len(occurrences) == 0 {
			continue
		}
		matchedAliases = append(matchedAliases, alias)
		for _, pos := range occurrences {
			windows = append(windows, contextWindow(text, pos, len(alias)))
		}
	}
	if len(matchedAliases) == 0 {
		return 0, nil, "no alias occurrence"
	}

	positives := keywordsNear(windows, ticker.PositiveKeywords)
	industries := keywordsNear(windows, ticker.IndustryKeywords)
	negatives := keywordsNear(windows, ticker.NegativeKeywords)

	matched := append([]string{}, matchedAliases...)
	matched = append(matched, positives...)
	matched = append(matched, industries...)
	matched = append(matched, negatives...)

	if len(negatives) >= negativeVetoCount {
		reasoning := fmt.Sprintf("vetoed by negative context %v", negatives)
		return 0, matched, reasoning
	}

	score := baseScore
	score += positiveKeywordBonus * float64(len(positives))
	score += industryKeywordBonus * float64(len(industries))
	score -= negativeKeywordPenalty * float64(len(negatives))
	if len(matchedAliases) > 1 {
		score += multiAliasBonus
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	reasoning := fmt.Sprintf(
		"aliases %v, positive %v, industry %v, negative %v",
		matchedAliases, positives, industries, negatives)
	return score, matched, reasoning
}

// AcceptanceThreshold returns the minimum confidence required before a link
// for this ticker may be persisted. Single-letter symbols collide with common
// words, so their bar is higher.
func AcceptanceThreshold(ticker *model.Ticker) float64 {
	if ticker.IsSingleLetter() {
		return SingleLetterThreshold
	}
	return DefaultThreshold
}

// isBareSymbol reports whether the alias should be matched case-sensitively.
// Bare ticker symbols (the symbol itself, or any all-uppercase single token)
// must keep their casing, otherwise symbols like "A" or "ALL" would match
// ordinary words.
func isBareSymbol(alias string, symbol string) bool {
	if alias == symbol {
		return true
	}
	return !strings.Contains(alias, " ") && alias == strings.ToUpper(alias)
}

// findOccurrences returns the byte offsets of word-bounded occurrences of
// alias in text.
func findOccurrences(text string, alias string, caseSensitive bool) []int {
	hay, needle := text, alias
	if !caseSensitive {
		hay = strings.ToLower(text)
		needle = strings.ToLower(alias)
	}

	positions := []int{}
	offset := 0
	for {
		idx := strings.Index(hay[offset:], needle)
		if idx < 0 {
			break
		}
		pos := offset + idx
		if isWordBoundary(hay, pos, len(needle)) {
			positions = append(positions, pos)
		}
		offset = pos + len(needle)
	}
	return positions
}

func isWordBoundary(text string, pos int, length int) bool {
	if pos > 0 && isWordChar(rune(text[pos-1])) {
		return false
	}
	end := pos + length
	if end < len(text) && isWordChar(rune(text[end])) {
		return false
	}
	return true
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// contextWindow slices out the text surrounding an occurrence.
func contextWindow(text string, pos int, length int) string {
	start := pos - contextWindowSize
	if start < 0 {
		start = 0
	}
	end := pos + length + contextWindowSize
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// keywordsNear returns the distinct keywords appearing (case-insensitively)
// in any of the context windows. Substring matching is intentional so that
// "travel" also fires on "traveling".
func keywordsNear(windows []string, keywords []string) []string {
	found := []string{}
	seen := map[string]bool{}
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		lower := strings.ToLower(kw)
		for _, w := range windows {
			if strings.Contains(strings.ToLower(w), lower) {
				found = append(found, kw)
				seen[kw] = true
				break
			}
		}
	}
	return found
}
