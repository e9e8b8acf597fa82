package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/abanoub-dev/score-tracker/repositories"
)

type CreateTeamInput struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// UpdateTeamInput carries partial updates; nil fields keep the stored value.
type UpdateTeamInput struct {
	Name     *string `json:"name,omitempty"`
	Emoji    *string `json:"emoji,omitempty"`
	IsPinned *bool   `json:"is_pinned,omitempty"`
}

type TeamService interface {
	Add(ctx context.Context, userID int, input CreateTeamInput) (*models.Team, error)
	List(ctx context.Context, userID int) ([]*models.Team, error)
	Get(ctx context.Context, userID, teamID int) (*models.Team, error)
	UpdateDetails(ctx context.Context, userID, teamID int, input UpdateTeamInput) (*models.Team, error)
	Remove(ctx context.Context, userID, teamID int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
}

func NewTeamService(teamRepo repositories.TeamRepository) TeamService {
	return &teamService{teamRepo: teamRepo}
}

func (s *teamService) Add(ctx context.Context, userID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	emoji := input.Emoji
	if emoji == "" {
		emoji = models.DefaultTeamEmoji
	}

	team := &models.Team{
		Name:   name,
		Emoji:  emoji,
		UserID: userID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamUserInvalid) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context, userID int) ([]*models.Team, error) {
	return s.teamRepo.ListByUser(ctx, userID)
}

func (s *teamService) Get(ctx context.Context, userID, teamID int) (*models.Team, error) {
	return s.ownedTeam(ctx, userID, teamID)
}

func (s *teamService) UpdateDetails(ctx context.Context, userID, teamID int, input UpdateTeamInput) (*models.Team, error) {
	if _, err := s.ownedTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, ErrTeamNameRequired
		}
		input.Name = &trimmed
	}

	team, err := s.teamRepo.UpdateDetails(ctx, teamID, input.Name, input.Emoji, input.IsPinned)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) Remove(ctx context.Context, userID, teamID int) error {
	if _, err := s.ownedTeam(ctx, userID, teamID); err != nil {
		return err
	}
	err := s.teamRepo.Delete(ctx, teamID, userID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

func (s *teamService) ownedTeam(ctx context.Context, userID, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if team.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	return team, nil
}
