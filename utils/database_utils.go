// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Luismorlan/goodnewsbot/model"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

func isTempDB(dbName string) bool {
	return strings.HasPrefix(dbName, TestDBPrefix)
}

func randomTestDBName() string {
	return TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
}

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	return GetCustomizedConnection(os.Getenv("DB_NAME"))
}

// GetCustomizedConnection connect to any postgres db on the configured host
func GetCustomizedConnection(dbName string) (*gorm.DB, error) {
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), dbName, os.Getenv("DB_PORT"), sslMode)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, errors.Wrap(err, "fail to connect to postgres db "+dbName)
	}
	return db, nil
}

// Create a temp in-memory DB for testing, note that this function should only
// be called in a testing environment with test state manager testing.T.
// The database is migrated and is dropped together with its last connection
// when the test finishes.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	dbName := randomTestDBName()
	if !isTempDB(dbName) {
		t.Fatalf("refuse to use non-testing db name %s", dbName)
	}

	db, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), gormConfig())
	if err != nil {
		t.Fatalf("fail to create temp DB with name %s: %v", dbName, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("cannot get the SQL DB of %s: %v", dbName, err)
	}
	// One connection keeps the in-memory database alive and serializes writes.
	sqlDB.SetMaxOpenConns(1)

	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatalf("fail to migrate temp DB %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, dbName
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique index violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	}
}

// DatabaseSetupAndMigration creates or updates every table the bot uses.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.SubredditSource{},
		&model.FeedSource{},
		&model.TargetChannel{},
		&model.RepostCategory{},
		&model.Item{},
		&model.AuxiliaryAnalysis{},
	)
	return errors.Wrap(err, "fail to migrate database")
}
