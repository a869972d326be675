package rdb

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSQLitePath is used when a sqlite URL carries no path.
const DefaultSQLitePath = "./greenroom.db"

// OpenFromURL opens a database from a store URL. The scheme picks the driver
// and everything after the first colon is the DSN.
//
//	sqlite:./greenroom.db
//	sqlite::memory:
//	sqlite3:<dsn> (alias)
func OpenFromURL(dbURL string) (*gorm.DB, error) {
	scheme, dsn, ok := strings.Cut(dbURL, ":")
	if !ok {
		return nil, fmt.Errorf("store url %q has no scheme", dbURL)
	}
	switch scheme {
	case "sqlite", "sqlite3":
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		// The journal logs through its own spans; gorm's logger only
		// duplicates them.
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// AutoMigrate creates or updates the journal tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&DeploymentRecord{})
}
