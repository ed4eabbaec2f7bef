package scraper

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunStats aggregates what one orchestrator invocation did. Partial success
// is the normal outcome of incremental mode, so a completed run always logs
// these counts even when some threads failed.
type RunStats struct {
	RunId string
	Mode  string

	ThreadsAttempted int
	ThreadsSucceeded int
	ThreadsSkipped   int

	ItemsSeen      int
	ItemsNew       int
	ItemsPersisted int

	LinksCreated     int
	BatchesCommitted int

	StartTime time.Time
	EndTime   time.Time
}

func NewRunStats(mode string) *RunStats {
	return &RunStats{
		RunId:     uuid.New().String(),
		Mode:      mode,
		StartTime: time.Now(),
	}
}

func (s *RunStats) Finish() {
	s.EndTime = time.Now()
}

func (s *RunStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

func (s *RunStats) LogFields() logrus.Fields {
	return logrus.Fields{
		"run_id":            s.RunId,
		"mode":              s.Mode,
		"threads_attempted": s.ThreadsAttempted,
		"threads_succeeded": s.ThreadsSucceeded,
		"threads_skipped":   s.ThreadsSkipped,
		"items_seen":        s.ItemsSeen,
		"items_new":         s.ItemsNew,
		"items_persisted":   s.ItemsPersisted,
		"links_created":     s.LinksCreated,
		"batches_committed": s.BatchesCommitted,
		"duration":          s.Duration().String(),
	}
}
