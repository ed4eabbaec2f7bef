package linker

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	Logger "github.com/stonksfeed/tickerscan/utils/log"
)

const (
	fetchTimeout = 10 * time.Second
	// Fetched pages are size-capped; discussion permalinks are text and never
	// legitimately this large.
	maxFetchBytes = 2 << 20
)

// ContentFetcher pulls the body text behind a permalink. It is an optional
// capability: a nil fetcher degrades the linker to title-only analysis.
type ContentFetcher interface {
	Fetch(url string) (string, error)
}

// HttpContentFetcher fetches a permalink and strips page boilerplate down to
// readable text.
type HttpContentFetcher struct {
	client *http.Client
}

func NewHttpContentFetcher() *HttpContentFetcher {
	return &HttpContentFetcher{client: &http.Client{Timeout: fetchTimeout}}
}

func (f *HttpContentFetcher) Fetch(url string) (string, error) {
	res, err := f.client.Get(url)
	if err != nil {
		return "", errors.Wrap(err, "fail to fetch permalink content")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		Logger.Log.Errorf("non-200 http code fetching content: %d", res.StatusCode)
		return "", errors.Errorf("non-200 http code: %d", res.StatusCode)
	}

	limited := io.LimitReader(res.Body, maxFetchBytes)
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return "", errors.Wrap(err, "fail to parse fetched content")
	}
	return extractReadableText(doc), nil
}

// extractReadableText drops navigation/ad boilerplate by structural
// heuristics and returns the remaining text. Prefers a dedicated content
// container when the page has one.
func extractReadableText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, form, iframe").Remove()

	for _, selector := range []string{"article", "main", "[role=main]"} {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return normalizeWhitespace(sel.Text())
		}
	}
	return normalizeWhitespace(doc.Find("body").Text())
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
