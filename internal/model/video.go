package model

import (
	"time"
)

// Video represents a video with its descriptive metadata
type Video struct {
	VideoID         string    `gorm:"primaryKey;size:32" json:"videoId"`
	ChannelID       string    `gorm:"size:64;not null;index" json:"channelId"`
	Title           string    `gorm:"type:text;not null" json:"title"`
	Description     *string   `gorm:"type:text" json:"description"`
	PublishedAt     time.Time `gorm:"index" json:"publishedAt"`
	DurationSeconds int       `gorm:"default:0" json:"durationSeconds"`
	Tags            *string   `gorm:"type:text" json:"tags"`
	Category        *string   `gorm:"size:16" json:"category"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Channel *Channel `gorm:"foreignKey:ChannelID;references:ChannelID" json:"-"`
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}
