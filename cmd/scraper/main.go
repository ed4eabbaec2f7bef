package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stonksfeed/tickerscan/app_config"
	"github.com/stonksfeed/tickerscan/model"
	"github.com/stonksfeed/tickerscan/scraper"
	"github.com/stonksfeed/tickerscan/scraper/linker"
	"github.com/stonksfeed/tickerscan/scraper/ratelimit"
	"github.com/stonksfeed/tickerscan/scraper/reddit"
	"github.com/stonksfeed/tickerscan/scraper/seencache"
	"github.com/stonksfeed/tickerscan/utils"
	"github.com/stonksfeed/tickerscan/utils/dotenv"
	Logger "github.com/stonksfeed/tickerscan/utils/log"
)

const dayFormat = "2006-01-02"

var (
	Mode          *string
	AppConfigPath *string
	StartDate     *string
	EndDate       *string
	Subreddit     *string
	ExpandLimit   *int
	Loop          *bool

	// Configuration to customize binary startup.
	AppConfig app_config.ScraperAppConfig
)

// init() will always be called on before the execution of main function.
func init() {
	Mode = flag.String("mode", "incremental", "one of 'incremental', 'backfill', 'status'")
	AppConfigPath = flag.String("app_config_path", "config/scraper_app_config.yaml", "path to scraper app config")
	StartDate = flag.String("start", "", "backfill range start date, YYYY-MM-DD (inclusive)")
	EndDate = flag.String("end", "", "backfill range end date, YYYY-MM-DD (inclusive), defaults to start")
	Subreddit = flag.String("subreddit", "", "restrict the run to a single configured subreddit")
	ExpandLimit = flag.Int("expand_limit", -1, "override the comment tree expansion budget for all threads, 0 means unlimited, -1 keeps the per-thread-type config")
	Loop = flag.Bool("loop", false, "run incremental mode on the configured cron schedule instead of once")

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

// newOrchestrator wires every ingestion dependency, failing fast on any
// configuration error so a misconfigured deployment never half-runs.
func newOrchestrator() *scraper.Orchestrator {
	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect database : ", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Logger.Log.Fatal("fail to migrate database : ", err)
	}

	tickers := []model.Ticker{}
	if err := db.Where("is_active = ?", true).Find(&tickers).Error; err != nil {
		Logger.Log.Fatal("fail to load reference tickers : ", err)
	}
	if len(tickers) == 0 {
		Logger.Log.Fatal("no active reference tickers in database, nothing to link against")
	}

	limiter := ratelimit.NewLimiter(AppConfig.REQUESTS_PER_MINUTE)
	client, err := reddit.NewClientFromEnv(limiter)
	if err != nil {
		Logger.Log.Fatal("fail to initialize reddit client : ", err)
	}

	cache, err := seencache.NewFromEnv()
	if err != nil {
		// The cache only accelerates dedup, a run without it is still correct.
		Logger.Log.Warn("fail to connect seen cache, continuing without it : ", err)
		cache = nil
	}

	tickerLinker := linker.NewTickerLinker(tickers, linker.NewHttpContentFetcher())
	orchestrator := scraper.NewOrchestrator(db, client, tickerLinker, cache, AppConfig)
	if *ExpandLimit >= 0 {
		orchestrator.SetExpandLimitOverride(*ExpandLimit)
	}
	return orchestrator
}

func parseBackfillRange() (time.Time, time.Time) {
	if *StartDate == "" {
		Logger.Log.Fatal("backfill mode requires -start")
	}
	start, err := time.Parse(dayFormat, *StartDate)
	if err != nil {
		Logger.Log.Fatal("invalid -start date : ", err)
	}
	end := start
	if *EndDate != "" {
		end, err = time.Parse(dayFormat, *EndDate)
		if err != nil {
			Logger.Log.Fatal("invalid -end date : ", err)
		}
	}
	if end.Before(start) {
		Logger.Log.Fatal("backfill -end is before -start")
	}
	return start, end
}

// restrictToSubreddit disables every configured subreddit except the requested
// one. Asking for an unconfigured subreddit is a configuration error.
func restrictToSubreddit(config *app_config.ScraperAppConfig, name string) {
	found := false
	for i := range config.SUBREDDITS {
		if config.SUBREDDITS[i].NAME == name {
			found = true
			continue
		}
		config.SUBREDDITS[i].ENABLED = false
	}
	if !found {
		Logger.Log.Fatal("subreddit not present in app config : ", name)
	}
}

func runIncrementalLoop(orchestrator *scraper.Orchestrator) {
	schedule := AppConfig.INCREMENTAL_SCHEDULE
	if schedule == "" {
		schedule = "@every 15m"
	}

	// Single-flight: a slow run must never overlap the next tick.
	running := make(chan struct{}, 1)
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		select {
		case running <- struct{}{}:
		default:
			Logger.Log.Warn("previous incremental run still in flight, skipping tick")
			return
		}
		defer func() { <-running }()

		if _, err := orchestrator.RunIncremental(context.Background()); err != nil {
			Logger.Log.Error("incremental run failed : ", err)
		}
	})
	if err != nil {
		Logger.Log.Fatal("invalid incremental schedule : ", err)
	}

	Logger.Log.Info("scraper loop starts up, schedule: ", schedule)
	c.Run()
}

func printStatus(threads []model.RedditThread) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "THREAD\tSUBREDDIT\tTYPE\tSCRAPED\tTOTAL\tCOMPLETE\tLAST SCRAPED\tTITLE")
	scraped, total, complete := 0, 0, 0
	for i := range threads {
		t := &threads[i]
		lastScraped := "-"
		if !t.LastScrapedAt.IsZero() {
			lastScraped = t.LastScrapedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%s\t%s\n",
			t.ThreadId, t.Subreddit, t.ThreadType, t.ScrapedCount, t.TotalCount, t.IsComplete, lastScraped, t.Title)
		scraped += t.ScrapedCount
		total += t.TotalCount
		if t.IsComplete {
			complete++
		}
	}
	w.Flush()
	fmt.Printf("\n%d threads (%d complete), %d/%d items scraped\n", len(threads), complete, scraped, total)
}

func main() {
	flag.Parse()
	Logger.InitLogger()

	AppConfig = app_config.ParseScraperAppConfig(*AppConfigPath)
	if *Subreddit != "" {
		restrictToSubreddit(&AppConfig, *Subreddit)
	}
	if len(AppConfig.EnabledSubreddits()) == 0 {
		Logger.Log.Fatal("no enabled subreddits in app config")
	}

	orchestrator := newOrchestrator()

	switch *Mode {
	case "incremental":
		if *Loop {
			runIncrementalLoop(orchestrator)
			return
		}
		if _, err := orchestrator.RunIncremental(context.Background()); err != nil {
			Logger.Log.Fatal("incremental run failed : ", err)
		}
	case "backfill":
		start, end := parseBackfillRange()
		if _, err := orchestrator.RunBackfill(context.Background(), start, end); err != nil {
			Logger.Log.Fatal("backfill run failed : ", err)
		}
	case "status":
		threads, err := orchestrator.Status()
		if err != nil {
			Logger.Log.Fatal("fail to read thread status : ", err)
		}
		printStatus(threads)
	default:
		Logger.Log.Fatal("unknown mode : ", *Mode)
	}
}
