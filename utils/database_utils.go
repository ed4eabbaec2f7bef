// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"testing"

	"github.com/stonksfeed/tickerscan/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
	return getDB(dsn)
}

func getDB(connectionString string) (db *gorm.DB, err error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// CreateTempDB creates an isolated in-memory sqlite DB for testing, migrated
// to the current schema. Each call gets a private database, so tests never
// share state. Connections are cleaned up with the test.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache memory DB keeps the schema alive across the pooled
	// connections gorm opens.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", RandomAlphabetString(8))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal("fail to open temp sqlite DB: ", err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatal("fail to migrate temp DB: ", err)
	}
	t.Cleanup(func() {
		// Proactively clean up the DB connections instead of deferring to GC.
		conn, _ := db.DB()
		conn.Close()
	})
	return db
}

// DatabaseSetupAndMigration migrates all tables owned or read by the
// ingestion core.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Ticker{},
		&model.RedditThread{},
		&model.Article{},
		&model.TickerLink{},
	)
}

// SeedTickers inserts reference tickers, skipping symbols that already exist.
// Production reference data is operator-managed; this is for tests and dev
// bootstrapping only.
func SeedTickers(db *gorm.DB, tickers []model.Ticker) error {
	for i := range tickers {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tickers[i])
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}
