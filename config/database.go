package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDatabase connects to MySQL using configuration values and performs
// automatic migrations for the given models. TranslateError is enabled so
// unique-key violations surface as gorm.ErrDuplicatedKey.
func InitDatabase(modelDefs ...interface{}) *gorm.DB {
	if db != nil {
		return db
	}

	cfg := Get()
	var dsn string
	if cfg.DatabaseURI != "" {
		dsn = cfg.DatabaseURI
	} else {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
	}

	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var err error
	db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gLogger,
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// Ping at boot so network/auth problems surface before the first query.
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	for _, model := range modelDefs {
		if err := db.AutoMigrate(model); err != nil {
			log.Printf("auto migration failed for %T: %v", model, err)
		}
	}

	return db
}

// toGormLogLevel maps the application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
