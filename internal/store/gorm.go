package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/user/yt-ingest/internal/config"
	"github.com/user/yt-ingest/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore implements Store on top of gorm; the driver is picked from config
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the configured database and migrates the schema
func NewGormStore(cfg *config.DBConfig) (*GormStore, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool; sqlite has a single writer
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Auto migrate tables, parents first
	if err := db.AutoMigrate(&model.Channel{}, &model.Video{}, &model.StatisticsSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func openDialector(cfg *config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// InTx runs fn in a transaction scoped to a single entity upsert
func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// GetChannel retrieves a channel by its ID
func (s *GormStore) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	var channel model.Channel
	result := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&channel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel: %w", result.Error)
	}
	return &channel, nil
}

// SaveChannel inserts the channel or replaces the stored row with the same ID
func (s *GormStore) SaveChannel(ctx context.Context, channel *model.Channel) error {
	if err := s.db.WithContext(ctx).Save(channel).Error; err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by its ID
func (s *GormStore) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	var video model.Video
	result := s.db.WithContext(ctx).Where("video_id = ?", videoID).First(&video)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video: %w", result.Error)
	}
	return &video, nil
}

// SaveVideo inserts the video or replaces the stored row with the same ID
func (s *GormStore) SaveVideo(ctx context.Context, video *model.Video) error {
	if err := s.db.WithContext(ctx).Save(video).Error; err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}
	return nil
}

// AddSnapshot appends a statistics snapshot
func (s *GormStore) AddSnapshot(ctx context.Context, snapshot *model.StatisticsSnapshot) error {
	snapshot.ID = 0
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to add snapshot: %w", err)
	}
	return nil
}

// ListVideos retrieves a channel's videos ordered by published_at DESC
func (s *GormStore) ListVideos(ctx context.Context, channelID string, limit int) ([]*model.Video, error) {
	var videos []*model.Video
	result := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("published_at DESC").
		Limit(limit).
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos: %w", result.Error)
	}
	return videos, nil
}

// ListSnapshots retrieves a video's snapshots, newest first
func (s *GormStore) ListSnapshots(ctx context.Context, videoID string, limit int) ([]*model.StatisticsSnapshot, error) {
	var snapshots []*model.StatisticsSnapshot
	result := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("snapshot_at DESC, id DESC").
		Limit(limit).
		Find(&snapshots)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", result.Error)
	}
	return snapshots, nil
}

// CountVideos returns the total count of videos
func (s *GormStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.Video{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", result.Error)
	}
	return count, nil
}

// CountSnapshots returns the number of snapshots recorded for a video
func (s *GormStore) CountSnapshots(ctx context.Context, videoID string) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.StatisticsSnapshot{}).Where("video_id = ?", videoID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", result.Error)
	}
	return count, nil
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}
