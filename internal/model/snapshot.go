package model

import (
	"time"
)

// StatisticsSnapshot is an append-only observation of a video's counters.
// Likes and Comments are nil when the platform hides them.
type StatisticsSnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID    string    `gorm:"size:32;not null;index:idx_video_snapshot" json:"videoId"`
	SnapshotAt time.Time `gorm:"not null;index:idx_video_snapshot" json:"snapshotAt"`
	Views      int64     `json:"views"`
	Likes      *int64    `json:"likes"`
	Comments   *int64    `json:"comments"`

	Video *Video `gorm:"foreignKey:VideoID;references:VideoID" json:"-"`
}

// TableName returns the table name for StatisticsSnapshot
func (StatisticsSnapshot) TableName() string {
	return "video_stats"
}
