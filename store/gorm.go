package store

import "gorm.io/gorm"

// Gorm is the postgres-backed Persistence Gateway.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}
