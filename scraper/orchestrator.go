package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stonksfeed/tickerscan/app_config"
	"github.com/stonksfeed/tickerscan/model"
	"github.com/stonksfeed/tickerscan/scraper/linker"
	"github.com/stonksfeed/tickerscan/scraper/reddit"
	"github.com/stonksfeed/tickerscan/scraper/seencache"
	Logger "github.com/stonksfeed/tickerscan/utils/log"
	"gorm.io/gorm"
)

const (
	DefaultBatchSize = 200

	redditBaseUrl = "https://www.reddit.com"
)

// Orchestrator drives a scrape run: discovers discussion threads, extracts
// new content through the rate-limited source, links each item to tickers and
// persists results in checkpointed batches. Threads are processed
// sequentially within one invocation; the checkpoint-then-commit sequence
// assumes a single writer per thread.
type Orchestrator struct {
	db     *gorm.DB
	source ContentSource
	linker *linker.TickerLinker
	cache  *seencache.SeenCache
	config app_config.ScraperAppConfig

	batchSize   int
	workerCount int
	// -1 means "no override", use the per-thread-type config budget.
	expandOverride int
}

// NewOrchestrator wires the orchestrator. cache may be nil (dedup then runs
// purely off the database).
func NewOrchestrator(db *gorm.DB, source ContentSource, tickerLinker *linker.TickerLinker, cache *seencache.SeenCache, config app_config.ScraperAppConfig) *Orchestrator {
	batchSize := config.BATCH_SIZE
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workerCount := config.LINKER_WORKER_COUNT
	if workerCount <= 0 {
		workerCount = linker.DefaultLinkerWorkerCount
	}
	return &Orchestrator{
		db:             db,
		source:         source,
		linker:         tickerLinker,
		cache:          cache,
		config:         config,
		batchSize:      batchSize,
		workerCount:    workerCount,
		expandOverride: -1,
	}
}

// SetExpandLimitOverride forces a comment tree expansion budget for all
// threads, overriding the per-thread-type config. 0 means unlimited.
func (o *Orchestrator) SetExpandLimitOverride(limit int) {
	o.expandOverride = limit
}

// RunIncremental scans the recent submissions of every enabled subreddit and
// extracts content newer than each thread's low-water mark. Intended for
// frequent invocation; running it twice against an unchanged upstream
// persists nothing on the second run.
func (o *Orchestrator) RunIncremental(ctx context.Context) (*RunStats, error) {
	stats := NewRunStats("incremental")
	log := Logger.Log.WithField("run_id", stats.RunId)

	for i := range o.config.SUBREDDITS {
		cfg := &o.config.SUBREDDITS[i]
		if !cfg.ENABLED {
			continue
		}

		submissions, err := o.source.ListNewSubmissions(ctx, cfg.NAME, cfg.MAX_POSTS_PER_RUN)
		if err != nil {
			log.WithField("subreddit", cfg.NAME).Error("fail to list recent submissions, skipping forum: ", err)
			continue
		}

		for j := range submissions {
			o.processThread(ctx, cfg, &submissions[j], stats, false)
		}
	}

	stats.Finish()
	log.WithFields(stats.LogFields()).Info("incremental run finished")
	return stats, nil
}

// RunBackfill loads an explicit [start, end] date range day by day. Days
// whose discussion thread is already marked complete are skipped without any
// fetch, so an interrupted backfill resumes cheaply.
func (o *Orchestrator) RunBackfill(ctx context.Context, start time.Time, end time.Time) (*RunStats, error) {
	stats := NewRunStats("backfill")
	log := Logger.Log.WithField("run_id", stats.RunId)

	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for i := range o.config.SUBREDDITS {
			cfg := &o.config.SUBREDDITS[i]
			if !cfg.ENABLED {
				continue
			}
			dayLog := log.WithFields(logrus.Fields{"subreddit": cfg.NAME, "day": day.Format("2006-01-02")})

			done, err := dayHasCompletedThread(o.db, cfg.NAME, day)
			if err != nil {
				dayLog.Error("fail to check day completion, skipping day: ", err)
				continue
			}
			if done {
				dayLog.Info("day already complete, skipping")
				continue
			}

			submissions, err := o.source.SearchSubmissionsByDate(ctx, cfg.NAME, day)
			if err != nil {
				dayLog.Error("fail to search submissions, skipping day: ", err)
				continue
			}

			for j := range submissions {
				sub := &submissions[j]
				if ClassifyThread(sub.Title, cfg) == model.ThreadTypeRegular {
					continue
				}
				if !MatchesDay(sub, day) {
					continue
				}
				o.processThread(ctx, cfg, sub, stats, true)
			}
		}
	}

	stats.Finish()
	log.WithFields(stats.LogFields()).Info("backfill run finished")
	return stats, nil
}

// Status returns all thread progress rows, newest first. Read-only.
func (o *Orchestrator) Status() ([]model.RedditThread, error) {
	threads := []model.RedditThread{}
	err := o.db.Order("posted_at desc").Find(&threads).Error
	return threads, err
}

// processThread extracts one thread, isolating failures: any error is logged
// and counted as a skip, never aborting the run for other threads.
func (o *Orchestrator) processThread(ctx context.Context, cfg *app_config.SubredditConfig, sub *reddit.Submission, stats *RunStats, backfill bool) {
	stats.ThreadsAttempted++
	if err := o.scrapeThread(ctx, cfg, sub, stats, backfill); err != nil {
		stats.ThreadsSkipped++
		Logger.Log.WithFields(logrus.Fields{
			"run_id":    stats.RunId,
			"thread_id": sub.Id,
			"subreddit": cfg.NAME,
		}).Error("thread extraction failed, abandoned for this run: ", err)
		return
	}
	stats.ThreadsSucceeded++
}

func (o *Orchestrator) scrapeThread(ctx context.Context, cfg *app_config.SubredditConfig, sub *reddit.Submission, stats *RunStats, backfill bool) error {
	threadType := ClassifyThread(sub.Title, cfg)

	thread, err := ensureThread(o.db, &model.RedditThread{
		ThreadId:   sub.Id,
		Title:      sub.Title,
		Subreddit:  sub.Subreddit,
		ThreadType: threadType,
		TotalCount: sub.NumComments,
		PostedAt:   sub.CreatedUtc,
	})
	if err != nil {
		return err
	}
	if backfill && thread.IsComplete {
		return nil
	}

	// Incremental runs prefer the timestamp low-water mark whenever any item
	// is stored; it is one MAX() query regardless of thread size. Backfill
	// cannot assume ordering and always uses strict id dedup.
	var mark time.Time
	hasMark := false
	if !backfill {
		mark, hasMark, err = lowWaterMark(o.db, thread.ThreadId)
		if err != nil {
			return err
		}
	}

	fetched, err := o.source.FetchThread(ctx, cfg.NAME, sub.Id, o.expandLimitFor(cfg, threadType))
	if err != nil {
		return err
	}

	items := articlesFromThread(fetched)
	stats.ItemsSeen += len(items)

	var fresh []model.Article
	if hasMark {
		fresh = filterByTimestamp(items, mark)
	} else {
		fresh, err = o.filterByStoredIds(thread.ThreadId, items)
		if err != nil {
			return err
		}
	}
	stats.ItemsNew += len(fresh)

	if err := o.persistInBatches(thread, fresh, stats); err != nil {
		return err
	}

	// A historical thread with nothing left unexpanded is fully extracted.
	if backfill && len(fetched.UnexpandedIds) == 0 {
		if err := markThreadComplete(o.db, thread.ThreadId); err != nil {
			return err
		}
	}
	return nil
}

// persistInBatches links and commits fresh articles in fixed-size batches,
// checkpointing thread progress with each commit.
func (o *Orchestrator) persistInBatches(thread *model.RedditThread, fresh []model.Article, stats *RunStats) error {
	for offset := 0; offset < len(fresh); offset += o.batchSize {
		chunkEnd := offset + o.batchSize
		if chunkEnd > len(fresh) {
			chunkEnd = len(fresh)
		}
		chunk := fresh[offset:chunkEnd]

		pointers := make([]*model.Article, len(chunk))
		for i := range chunk {
			pointers[i] = &chunk[i]
		}
		links := o.linker.LinkBatch(pointers, o.workerCount)

		persisted, linksCreated, err := commitBatch(o.db, thread, chunk, links)
		if err != nil {
			return err
		}
		stats.ItemsPersisted += persisted
		stats.LinksCreated += linksCreated
		stats.BatchesCommitted++

		if o.cache != nil {
			ids := make([]string, len(chunk))
			for i := range chunk {
				ids[i] = chunk[i].RedditId
			}
			if err := o.cache.MarkSeen(thread.ThreadId, ids); err != nil {
				// Cache is an accelerator only, a write failure costs future
				// queries, not correctness.
				Logger.Log.Warn("fail to update seen cache: ", err)
			}
		}
	}
	return nil
}

// filterByStoredIds is the always-correct dedup path: drop every candidate
// whose id is already stored for the thread. The optional redis cache answers
// for known-stored ids first; only unknown ids hit the database.
func (o *Orchestrator) filterByStoredIds(threadId string, items []model.Article) ([]model.Article, error) {
	candidateIds := make([]string, len(items))
	for i := range items {
		candidateIds[i] = items[i].RedditId
	}

	cachedSeen := map[string]bool{}
	checkIds := candidateIds
	if o.cache != nil {
		seen, unknown, err := o.cache.FilterSeen(threadId, candidateIds)
		if err != nil {
			Logger.Log.Warn("seen cache lookup failed, falling back to database: ", err)
		} else {
			for _, id := range seen {
				cachedSeen[id] = true
			}
			checkIds = unknown
		}
	}

	stored, err := storedArticleIds(o.db, threadId, checkIds)
	if err != nil {
		return nil, err
	}

	fresh := []model.Article{}
	for i := range items {
		id := items[i].RedditId
		if cachedSeen[id] || stored[id] {
			continue
		}
		fresh = append(fresh, items[i])
	}
	return fresh, nil
}

func filterByTimestamp(items []model.Article, mark time.Time) []model.Article {
	fresh := []model.Article{}
	for i := range items {
		if items[i].PostedAt.After(mark) {
			fresh = append(fresh, items[i])
		}
	}
	return fresh
}

// expandLimitFor picks the comment tree expansion budget: CLI override first,
// then the per-thread-type config. Discussion threads get the deeper budget
// because they are the product's payload.
func (o *Orchestrator) expandLimitFor(cfg *app_config.SubredditConfig, threadType string) int {
	if o.expandOverride >= 0 {
		return o.expandOverride
	}
	if threadType == model.ThreadTypeDaily || threadType == model.ThreadTypeWeekend {
		return cfg.DISCUSSION_COMMENT_LIMIT
	}
	return cfg.REGULAR_COMMENT_LIMIT
}

// articlesFromThread flattens a fetched thread into article rows: the
// submission itself plus every comment.
func articlesFromThread(thread *reddit.Thread) []model.Article {
	sub := thread.Submission
	articles := []model.Article{{
		RedditId:   sub.Id,
		ThreadId:   sub.Id,
		Kind:       model.ArticleKindPost,
		Title:      sub.Title,
		Body:       sub.SelfText,
		Author:     sub.Author,
		Score:      sub.Score,
		ReplyCount: sub.NumComments,
		Permalink:  sub.Permalink,
		PostedAt:   sub.CreatedUtc,
	}}

	for _, c := range thread.Comments {
		permalink := c.Permalink
		if strings.HasPrefix(permalink, "/") {
			permalink = redditBaseUrl + permalink
		}
		articles = append(articles, model.Article{
			RedditId:   c.Id,
			ThreadId:   sub.Id,
			Kind:       model.ArticleKindComment,
			Body:       c.Body,
			Author:     c.Author,
			Score:      c.Score,
			ReplyCount: c.ReplyCount,
			Permalink:  permalink,
			PostedAt:   c.CreatedUtc,
		})
	}
	return articles
}
