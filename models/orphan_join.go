package models

import "time"

// OrphanJoinRecord 记录无法匹配到任何邀请的入群通知（只追加，仅用于排查）
type OrphanJoinRecord struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Fingerprint     string    `gorm:"size:64;index;not null" json:"fingerprint"`
	Credential      string    `gorm:"type:text" json:"credential"`
	ChannelID       string    `gorm:"size:64" json:"channelId"`
	JoinedBySubject string    `gorm:"size:64" json:"joinedBySubject"`
	Status          string    `gorm:"size:32" json:"status"`
	UpdateID        int64     `json:"updateId"`
	ReceivedAt      time.Time `gorm:"index;not null" json:"receivedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (OrphanJoinRecord) TableName() string { return "tg_orphan_joins" }
