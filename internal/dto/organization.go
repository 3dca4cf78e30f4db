package dto

import (
	"time"

	"github.com/taskflowhq/board-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// MemberDTO represents an organization member in API responses
type MemberDTO struct {
	User     UserDTO   `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:   org.ID,
		Name: org.Name,
	}
}

// ToMemberDTOs converts organization members to MemberDTOs
func ToMemberDTOs(members []models.OrganizationMember) []MemberDTO {
	items := make([]MemberDTO, len(members))
	for i, m := range members {
		items[i] = MemberDTO{
			User:     ToUserDTO(m.User),
			JoinedAt: m.JoinedAt,
		}
	}
	return items
}
