package store

import "gorm.io/gorm"

// DB exposes the underlying gorm.DB to package tests
func (s *GormStore) DB() *gorm.DB {
	return s.db
}
