package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// PivotDTO carries the membership columns of the project_user table
type PivotDTO struct {
	Role              models.ProjectRole `json:"role"`
	ContributionHours int                `json:"contribution_hours"`
	LastActivity      *time.Time         `json:"last_activity"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ProjectWithPivotDTO represents one of the caller's projects
type ProjectWithPivotDTO struct {
	ProjectDTO
	Pivot PivotDTO `json:"pivot"`
}

// MemberDTO represents a user of a project with the membership data
type MemberDTO struct {
	User  UserDTO  `json:"user"`
	Pivot PivotDTO `json:"pivot"`
}

// RoleResponse answers the role lookup
type RoleResponse struct {
	ProjectID uint64             `json:"project_id"`
	UserID    uint64             `json:"user_id"`
	Role      models.ProjectRole `json:"role"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.DeletedAt.Valid {
		deletedAt := project.DeletedAt.Time
		dto.DeletedAt = &deletedAt
	}
	return dto
}

// ToPivotDTO converts the membership columns
func ToPivotDTO(member models.Membership) PivotDTO {
	return PivotDTO{
		Role:              member.Role,
		ContributionHours: member.ContributionHours,
		LastActivity:      member.LastActivity,
		CreatedAt:         member.CreatedAt,
		UpdatedAt:         member.UpdatedAt,
	}
}

// ToProjectWithPivotDTOs converts a user's memberships with preloaded projects
func ToProjectWithPivotDTOs(memberships []models.Membership) []ProjectWithPivotDTO {
	items := make([]ProjectWithPivotDTO, len(memberships))
	for i, member := range memberships {
		items[i] = ProjectWithPivotDTO{
			ProjectDTO: ToProjectDTO(member.Project),
			Pivot:      ToPivotDTO(member),
		}
	}
	return items
}

// ToMemberDTOs converts a project's memberships with preloaded users
func ToMemberDTOs(members []models.Membership) []MemberDTO {
	items := make([]MemberDTO, len(members))
	for i, member := range members {
		items[i] = MemberDTO{
			User:  ToUserDTO(member.User),
			Pivot: ToPivotDTO(member),
		}
	}
	return items
}

// ToProjectListResponse converts a page of projects
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}
	return ProjectListResponse{
		Projects:   items,
		Pagination: utils.PaginationResponse{Page: params.Page, Limit: params.Limit, Total: total},
	}
}
