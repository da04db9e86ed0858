package models

import "time"

// Snapshot is one persisted whole-object snapshot (identity store or attendance ledger).
type Snapshot struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Payload   []byte    `gorm:"type:longblob" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}
