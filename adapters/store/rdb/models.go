package rdb

import "time"

// RunRecord is the RDB persistence model for one deployment run.
// Table name: runs
type RunRecord struct {
	ID         string    `gorm:"primaryKey;type:text;not null"`
	Operation  string    `gorm:"type:text;not null"`
	Source     string    `gorm:"type:text"`
	State      string    `gorm:"type:text;not null"`
	Error      string    `gorm:"type:text"`
	Digest     string    `gorm:"type:text"`
	Documents  string    `gorm:"type:text"` // JSON encoded []string of document identities
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt time.Time `gorm:"not null"`
}

func (RunRecord) TableName() string { return "runs" }
