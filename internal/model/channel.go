package model

import (
	"time"
)

// Channel represents a tracked channel, keyed by its canonical channel ID
type Channel struct {
	ChannelID       string    `gorm:"primaryKey;size:64" json:"channelId"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	URL             string    `gorm:"size:255;not null" json:"url"`
	SubscriberCount *int64    `json:"subscriberCount"`
	TotalViews      int64     `json:"totalViews"`
	VideoCount      int64     `json:"videoCount"`
	PublishedAt     time.Time `json:"publishedAt"` // creation on the platform
	FetchedAt       time.Time `gorm:"index" json:"fetchedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channels"
}
