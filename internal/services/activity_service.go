package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/repository"
)

// ActivityService reads the per-organization audit feed. Writing happens
// inside the mutation paths of TaskService; there is no standalone write API.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	orgRepo      repository.OrganizationRepository
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repository.ActivityRepository, orgRepo repository.OrganizationRepository) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		orgRepo:      orgRepo,
	}
}

// List returns an organization's newest activity entries, most recent first.
// The limit is clamped to the feed bound.
func (s *ActivityService) List(organizationID, userID uint64, limit int) ([]models.Activity, error) {
	_, err := s.orgRepo.FindMember(organizationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}

	if limit <= 0 || limit > constants.ActivityFeedLimit {
		limit = constants.ActivityFeedLimit
	}

	activities, err := s.activityRepo.ListByOrganization(organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}
