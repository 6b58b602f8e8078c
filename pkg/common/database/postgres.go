package database

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(uri string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(uri), &gorm.Config{TranslateError: true})
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
