package linker

import (
	"strings"
	"sync"

	"github.com/stonksfeed/tickerscan/model"
	Logger "github.com/stonksfeed/tickerscan/utils/log"
)

// Bodies shorter than this are considered not worth analyzing on their own
// and trigger the permalink fetch fallback.
const minBodyLength = 20

// DefaultLinkerWorkerCount bounds the per-batch linking pool. Linking has no
// shared mutable state beyond the read-only ticker set, so correctness does
// not depend on this value.
const DefaultLinkerWorkerCount = 5

// Candidate is one (ticker, confidence) decision the analyzer produced for an
// article, before thresholding.
type Candidate struct {
	Symbol       string
	Confidence   float64
	MatchedTerms []string
	Reasoning    string
}

// TickerLinker resolves article text into accepted TickerLink rows using the
// ContextAnalyzer over a read-only ticker reference set.
type TickerLinker struct {
	tickers  []model.Ticker
	analyzer *ContextAnalyzer
	fetcher  ContentFetcher
}

// NewTickerLinker constructs a linker over the given reference set. fetcher
// may be nil, in which case short-bodied articles are analyzed from their
// title alone.
func NewTickerLinker(tickers []model.Ticker, fetcher ContentFetcher) *TickerLinker {
	active := []model.Ticker{}
	for _, t := range tickers {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return &TickerLinker{
		tickers:  active,
		analyzer: NewContextAnalyzer(),
		fetcher:  fetcher,
	}
}

// Link produces the persisted-shape links for one article: candidates meeting
// their acceptance threshold, each carrying matched terms and reasoning. It
// may fetch the article's permalink when the stored body is too short;
// fetch failure silently degrades to whatever text is already present.
func (l *TickerLinker) Link(article *model.Article) []model.TickerLink {
	text := l.analyzableText(article)

	links := []model.TickerLink{}
	for _, candidate := range l.analyze(text) {
		links = append(links, model.TickerLink{
			ArticleId:    article.RedditId,
			Symbol:       candidate.Symbol,
			Confidence:   candidate.Confidence,
			MatchedTerms: candidate.MatchedTerms,
			Reasoning:    candidate.Reasoning,
		})
	}
	return links
}

// Analyze is the side-effect-free variant of Link: no permalink fetch, no
// persistence shape, returns every above-threshold candidate for the text the
// article already carries.
func (l *TickerLinker) Analyze(article *model.Article) []Candidate {
	return l.analyze(joinTitleAndBody(article))
}

func (l *TickerLinker) analyze(text string) []Candidate {
	candidates := []Candidate{}
	for i := range l.tickers {
		ticker := &l.tickers[i]
		score, matched, reasoning := l.analyzer.Score(text, ticker)
		if score < AcceptanceThreshold(ticker) {
			continue
		}
		candidates = append(candidates, Candidate{
			Symbol:       ticker.Symbol,
			Confidence:   score,
			MatchedTerms: matched,
			Reasoning:    reasoning,
		})
	}
	return candidates
}

// analyzableText returns the article text to analyze, fetching the permalink
// body when the stored text is empty or very short. Fetched content only ever
// adds signal on top of the stored text, never replaces it.
func (l *TickerLinker) analyzableText(article *model.Article) string {
	text := joinTitleAndBody(article)
	if len(strings.TrimSpace(article.Body)) >= minBodyLength || l.fetcher == nil || article.Permalink == "" {
		return text
	}

	fetched, err := l.fetcher.Fetch(article.Permalink)
	if err != nil {
		Logger.Log.WithField("article_id", article.RedditId).
			Info("content fetch fallback failed, degrading to title-only analysis: ", err)
		return text
	}
	return strings.TrimSpace(text + "\n" + fetched)
}

func joinTitleAndBody(article *model.Article) string {
	if article.Title == "" {
		return article.Body
	}
	return article.Title + "\n" + article.Body
}

// LinkBatch links a batch of articles over a bounded worker pool and returns
// the links grouped per article index. Output order matches the input order
// even though linking completes out of order.
func (l *TickerLinker) LinkBatch(articles []*model.Article, workers int) [][]model.TickerLink {
	if workers <= 0 {
		workers = DefaultLinkerWorkerCount
	}

	results := make([][]model.TickerLink, len(articles))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = l.Link(articles[i])
			}
		}()
	}
	for i := range articles {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
