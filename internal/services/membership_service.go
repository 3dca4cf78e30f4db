package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/repository"
)

var ErrOrganizationNotFound = errors.New("organization not found")

// MembershipService is the read-only view onto the membership tables owned by
// the external membership service. It scopes visibility and feeds the
// auto-assigner; it never writes.
type MembershipService struct {
	orgRepo repository.OrganizationRepository
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(orgRepo repository.OrganizationRepository) *MembershipService {
	return &MembershipService{orgRepo: orgRepo}
}

// GetOrganization returns an organization by id.
func (s *MembershipService) GetOrganization(organizationID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(organizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// IsMember reports whether the user belongs to the organization.
func (s *MembershipService) IsMember(organizationID, userID uint64) (bool, error) {
	_, err := s.orgRepo.FindMember(organizationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return true, nil
}

// Members returns the organization's member set in stable order.
func (s *MembershipService) Members(organizationID uint64) ([]models.OrganizationMember, error) {
	members, err := s.orgRepo.ListMembers(organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListOrganizationsForUser returns the organizations the user belongs to.
func (s *MembershipService) ListOrganizationsForUser(userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}
	return memberships, nil
}
