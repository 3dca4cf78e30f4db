package repository

import (
	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/models"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

// Create appends an activity entry
func (r *GormActivityRepository) Create(activity *models.Activity) error {
	return r.db.Create(activity).Error
}

// ListByOrganization returns the newest entries for an organization,
// most recent first
func (r *GormActivityRepository) ListByOrganization(organizationID uint64, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.
		Where("organization_id = ?", organizationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("User").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
