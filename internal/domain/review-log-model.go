package domain

import "time"

// ReviewLog records one admin decision. It is not a version history.
type ReviewLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Entity     EntityType `gorm:"type:varchar(40);not null;index:idx_review_logs_entity" json:"entity"`
	EntityID   string     `gorm:"type:varchar(64);not null;index:idx_review_logs_entity" json:"entity_id"`
	ChangeType ChangeType `gorm:"type:varchar(20);not null" json:"change_type"`
	Decision   Decision   `gorm:"type:varchar(20);not null" json:"decision"`
	AdminID    string     `gorm:"type:varchar(64);not null;index" json:"admin_id"`
	ProposerID string     `gorm:"type:varchar(64)" json:"proposer_id"`
	DecidedAt  time.Time  `gorm:"autoCreateTime" json:"decided_at"`
}
