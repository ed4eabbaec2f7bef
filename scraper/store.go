package scraper

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/stonksfeed/tickerscan/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lowWaterMark returns the maximum creation timestamp among already-stored
// articles of a thread, the cheap filter for "new" content. ok is false when
// the thread has no stored articles yet.
func lowWaterMark(db *gorm.DB, threadId string) (mark time.Time, ok bool, err error) {
	var max sql.NullTime
	err = db.Model(&model.Article{}).
		Where("thread_id = ?", threadId).
		Select("MAX(posted_at)").
		Scan(&max).Error
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "fail to compute low-water mark")
	}
	return max.Time, max.Valid, nil
}

// storedArticleIds returns which of the candidate ids already exist for the
// thread. This is the always-correct (but costlier) dedup path.
func storedArticleIds(db *gorm.DB, threadId string, candidateIds []string) (map[string]bool, error) {
	stored := map[string]bool{}
	if len(candidateIds) == 0 {
		return stored, nil
	}

	ids := []string{}
	err := db.Model(&model.Article{}).
		Where("thread_id = ? AND reddit_id IN ?", threadId, candidateIds).
		Pluck("reddit_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to query stored article ids")
	}
	for _, id := range ids {
		stored[id] = true
	}
	return stored, nil
}

// ensureThread creates the progress row on first discovery, or refreshes the
// provider-reported fields on later runs. Scrape progress fields are only
// ever advanced by commitBatch.
func ensureThread(db *gorm.DB, thread *model.RedditThread) (*model.RedditThread, error) {
	var existing model.RedditThread
	err := db.Where("thread_id = ?", thread.ThreadId).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(thread).Error; err != nil {
			return nil, errors.Wrap(err, "fail to create thread progress row")
		}
		return thread, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to load thread progress row")
	}

	err = db.Model(&existing).Updates(map[string]interface{}{
		"title":       thread.Title,
		"thread_type": thread.ThreadType,
		"total_count": thread.TotalCount,
	}).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to refresh thread progress row")
	}
	return &existing, nil
}

// commitBatch persists one batch of articles with their links and advances
// the thread checkpoint, all in a single transaction. An article whose id
// already exists (a race against a concurrent run, or an imperfect dedup
// filter) is skipped per-item, never failing the batch; its links are skipped
// with it.
func commitBatch(db *gorm.DB, thread *model.RedditThread, articles []model.Article, links [][]model.TickerLink) (persisted int, linksCreated int, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range articles {
			res := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&articles[i])
			if res.Error != nil {
				return errors.Wrap(res.Error, "fail to insert article")
			}
			if res.RowsAffected == 0 {
				// Already stored, expected under retry races.
				continue
			}
			persisted++

			for j := range links[i] {
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links[i][j])
				if res.Error != nil {
					return errors.Wrap(res.Error, "fail to insert ticker link")
				}
				linksCreated += int(res.RowsAffected)
			}
		}

		// Checkpoint in the same transaction: a crash between batches loses
		// at most one uncommitted batch and never desyncs progress from data.
		return errors.Wrap(tx.Model(&model.RedditThread{}).
			Where("thread_id = ?", thread.ThreadId).
			Updates(map[string]interface{}{
				"scraped_count":   thread.ScrapedCount + persisted,
				"last_scraped_at": time.Now(),
				"total_count":     thread.TotalCount,
			}).Error, "fail to checkpoint thread progress")
	})
	if err != nil {
		return 0, 0, err
	}
	thread.ScrapedCount += persisted
	thread.LastScrapedAt = time.Now()
	return persisted, linksCreated, nil
}

// markThreadComplete flags a fully extracted historical thread so backfill
// can skip its day on resume.
func markThreadComplete(db *gorm.DB, threadId string) error {
	return errors.Wrap(db.Model(&model.RedditThread{}).
		Where("thread_id = ?", threadId).
		Update("is_complete", true).Error, "fail to mark thread complete")
}

// dayHasCompletedThread reports whether the subreddit already has a completed
// discussion thread for the given day, in which case backfill skips the whole
// day without issuing any fetch.
func dayHasCompletedThread(db *gorm.DB, subreddit string, day time.Time) (bool, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 1)

	var count int64
	err := db.Model(&model.RedditThread{}).
		Where("subreddit = ? AND is_complete = ? AND posted_at >= ? AND posted_at < ?",
			subreddit, true, start, end).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to check day completion")
	}
	return count > 0, nil
}
