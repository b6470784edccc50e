package db

import (
	"fmt"
	"log"

	"tg_invite_bridge/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(dsn string) *gorm.DB {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.InviteRequest{}, &models.CredentialIndexEntry{}, &models.OrphanJoinRecord{}); err != nil {
		return err
	}

	// 未入群的请求：排查积压时按创建时间扫
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_pending_created_at
	  ON %s (created_at)
	  WHERE joined = FALSE;
	`, models.InviteRequestTable, models.InviteRequestTable)).Error; err != nil {
		return err
	}

	return nil
}
