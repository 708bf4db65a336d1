package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"staticblog/internal/constants"
	"staticblog/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSettings are seeded on first start and never overwrite existing values.
var DefaultSettings = map[string]string{
	constants.SettingSiteTitle:       "My Blog",
	constants.SettingSiteDescription: "A statically generated blog",
	constants.SettingSiteURL:         "http://localhost:8080",
	constants.SettingSiteLanguage:    "en-us",
	constants.SettingAdminEmail:      "",
	constants.SettingPostsPerPage:    "10",
	constants.SettingExcerptLength:   "150",
}

// gormLogger reports slow queries and errors. Missing rows are an expected
// answer for lookups by slug or key, not a failure.
func gormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func InitDatabase(dbPath string) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = "blog.db"
	}
	memory := strings.Contains(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")

	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}

	db, err := gorm.Open(sqlite.Open(dbPath+sep+pragmas), &gorm.Config{
		Logger: gormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
	})
	if err != nil {
		return nil, err
	}

	if memory {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// auto migrate
	err = db.AutoMigrate(&models.User{}, &models.Category{}, &models.Post{}, &models.Setting{})
	if err != nil {
		return nil, err
	}

	if err := seedSettings(db); err != nil {
		return nil, err
	}
	if err := seedUncategorized(db); err != nil {
		return nil, err
	}

	return db, nil
}

// seedSettings populates the database with default settings if they don't exist.
func seedSettings(db *gorm.DB) error {
	for key, value := range DefaultSettings {
		setting := models.Setting{Key: key, Value: value}
		if err := db.Where(models.Setting{Key: key}).FirstOrCreate(&setting).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

func seedUncategorized(db *gorm.DB) error {
	var category models.Category
	err := db.Where("slug = ?", constants.UncategorizedSlug).First(&category).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&models.Category{
		Name: constants.UncategorizedName,
		Slug: constants.UncategorizedSlug,
	}).Error
}
