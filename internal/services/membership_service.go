package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// MembershipService manages the users of a project and their roles.
type MembershipService struct {
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	log            logrus.FieldLogger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(membershipRepo repository.MembershipRepository, userRepo repository.UserRepository, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		log:            log,
	}
}

// GetMembership returns the membership of a user in an active project.
func (s *MembershipService) GetMembership(projectID, userID uint64) (*models.Membership, error) {
	member, err := s.membershipRepo.Find(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectMember
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return member, nil
}

// GetRoleForProject returns the role the user holds in the project.
func (s *MembershipService) GetRoleForProject(userID, projectID uint64) (models.ProjectRole, error) {
	member, err := s.GetMembership(projectID, userID)
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// ListMembers returns the members of a project with their users.
func (s *MembershipService) ListMembers(projectID uint64) ([]models.Membership, error) {
	members, err := s.membershipRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// AddMemberInput represents parameters to add a user to a project.
type AddMemberInput struct {
	UserID uint64
	Role   string
}

// AddMember adds an existing user to a project with a role.
func (s *MembershipService) AddMember(projectID uint64, input AddMemberInput) (*models.Membership, error) {
	role, err := parseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.membershipRepo.Find(projectID, input.UserID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.Membership{
		ProjectID: projectID,
		UserID:    input.UserID,
		Role:      role,
	}
	if err := s.membershipRepo.Add(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "add_member",
		"project_id": projectID,
		"user_id":    input.UserID,
		"role":       role,
	}).Info("member added")

	return member, nil
}

// UpdateRole changes the role of a member.
func (s *MembershipService) UpdateRole(projectID, userID uint64, rawRole string) (*models.Membership, error) {
	role, err := parseRole(rawRole)
	if err != nil {
		return nil, err
	}

	member, err := s.GetMembership(projectID, userID)
	if err != nil {
		return nil, err
	}

	if member.Role == models.RoleManager && role != models.RoleManager {
		if err := s.ensureAnotherManager(projectID, userID); err != nil {
			return nil, err
		}
	}

	member.Role = role
	if err := s.membershipRepo.Update(member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from a project.
func (s *MembershipService) RemoveMember(projectID, userID uint64) error {
	member, err := s.GetMembership(projectID, userID)
	if err != nil {
		return err
	}

	if member.Role == models.RoleManager {
		if err := s.ensureAnotherManager(projectID, userID); err != nil {
			return err
		}
	}

	if err := s.membershipRepo.Remove(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotProjectMember
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "remove_member",
		"project_id": projectID,
		"user_id":    userID,
	}).Info("member removed")

	return nil
}

// RecordActivity adds contribution hours and stamps the member's last activity.
func (s *MembershipService) RecordActivity(projectID, userID uint64, hours int) (*models.Membership, error) {
	if hours < 0 {
		verr := newValidationError()
		verr.Add("hours", "must not be negative")
		return nil, verr
	}

	member, err := s.membershipRepo.AddContribution(projectID, userID, hours)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectMember
		}
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return member, nil
}

func (s *MembershipService) ensureAnotherManager(projectID, userID uint64) error {
	members, err := s.membershipRepo.ListByProject(projectID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	for _, m := range members {
		if m.UserID != userID && m.Role == models.RoleManager {
			return nil
		}
	}
	return ErrLastManager
}

func parseRole(raw string) (models.ProjectRole, error) {
	role := models.ProjectRole(raw)
	if !role.Valid() {
		verr := newValidationError()
		verr.Add("role", "must be one of manager, developer, tester")
		return "", verr
	}
	return role, nil
}
