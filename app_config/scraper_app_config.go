package app_config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

// Per-subreddit scrape settings. Passed into the orchestrator at construction
// and never re-read mid run.
type SubredditConfig struct {
	NAME    string `yaml:"NAME"`
	ENABLED bool   `yaml:"ENABLED"`
	// Case-insensitive title keywords that mark a submission as a recurring
	// discussion thread.
	DISCUSSION_KEYWORDS []string `yaml:"DISCUSSION_KEYWORDS"`
	// Keywords that further classify a discussion thread as the weekend
	// variant.
	WEEKEND_KEYWORDS []string `yaml:"WEEKEND_KEYWORDS"`
	// Number of recent submissions scanned during thread discovery.
	MAX_POSTS_PER_RUN int `yaml:"MAX_POSTS_PER_RUN"`
	// Comment tree expansion budget ("more children" unfolds) per thread type.
	// 0 means unlimited, which is allowed but costly on very large threads.
	DISCUSSION_COMMENT_LIMIT int `yaml:"DISCUSSION_COMMENT_LIMIT"`
	REGULAR_COMMENT_LIMIT    int `yaml:"REGULAR_COMMENT_LIMIT"`
}

// This is the scraper config for one ingestion deployment.
type ScraperAppConfig struct {
	// Client side request budget, kept below the provider's stated 100/minute.
	REQUESTS_PER_MINUTE int `yaml:"REQUESTS_PER_MINUTE"`
	// Number of (article, links) pairs committed per transaction.
	BATCH_SIZE int `yaml:"BATCH_SIZE"`
	// Bounded worker pool size for per-batch entity linking.
	LINKER_WORKER_COUNT int `yaml:"LINKER_WORKER_COUNT"`
	// Cron spec for the -loop daemon mode.
	INCREMENTAL_SCHEDULE string            `yaml:"INCREMENTAL_SCHEDULE"`
	SUBREDDITS           []SubredditConfig `yaml:"SUBREDDITS"`
}

func ParseScraperAppConfig(path string) ScraperAppConfig {
	c := ScraperAppConfig{}
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}

// EnabledSubreddits filters out disabled forums.
func (c *ScraperAppConfig) EnabledSubreddits() []SubredditConfig {
	enabled := []SubredditConfig{}
	for _, s := range c.SUBREDDITS {
		if s.ENABLED {
			enabled = append(enabled, s)
		}
	}
	return enabled
}
