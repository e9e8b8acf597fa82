package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/abanoub-dev/score-tracker/repositories"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// UndoResult distinguishes a successful undo from "nothing to undo", which
// is an ordinary outcome and never an error.
type UndoResult struct {
	Undone bool               `json:"undone"`
	Team   *models.Team       `json:"team,omitempty"`
	Action *models.LastAction `json:"action,omitempty"`
}

// LedgerService owns every score mutation. Each operation runs the
// last-action write, the score update and the history append in one
// database transaction, so a partial failure never reaches the mirror.
type LedgerService interface {
	ApplyDelta(ctx context.Context, userID, teamID, delta int, answerType *models.AnswerType) (*models.Team, error)
	ResetScore(ctx context.Context, userID, teamID int) (*models.Team, error)
	Penalize(ctx context.Context, userID, teamID int, card models.CardType) (*models.Team, error)
	// UndoLast reverts the single pending action, team-scoped when teamID is
	// non-nil, otherwise the most recent one across all the user's teams.
	UndoLast(ctx context.Context, userID int, teamID *int) (*UndoResult, error)
	GetHistory(ctx context.Context, userID, teamID, limit int) ([]*models.ScoreHistoryEntry, error)
}

type ledgerService struct {
	txManager      repositories.TxManager
	teamRepo       repositories.TeamRepository
	historyRepo    repositories.ScoreHistoryRepository
	lastActionRepo repositories.LastActionRepository
	cardRepo       repositories.CardPenaltyRepository
}

func NewLedgerService(
	txManager repositories.TxManager,
	teamRepo repositories.TeamRepository,
	historyRepo repositories.ScoreHistoryRepository,
	lastActionRepo repositories.LastActionRepository,
	cardRepo repositories.CardPenaltyRepository,
) LedgerService {
	return &ledgerService{
		txManager:      txManager,
		teamRepo:       teamRepo,
		historyRepo:    historyRepo,
		lastActionRepo: lastActionRepo,
		cardRepo:       cardRepo,
	}
}

func (s *ledgerService) ApplyDelta(ctx context.Context, userID, teamID, delta int, answerType *models.AnswerType) (*models.Team, error) {
	if delta == 0 {
		return nil, ErrInvalidScoreChange
	}
	return s.mutate(ctx, userID, teamID, func(team *models.Team) (int, models.ChangeType, *models.CardType) {
		return delta, models.ChangePoint, nil
	}, answerType)
}

func (s *ledgerService) ResetScore(ctx context.Context, userID, teamID int) (*models.Team, error) {
	return s.mutate(ctx, userID, teamID, func(team *models.Team) (int, models.ChangeType, *models.CardType) {
		return -team.Score, models.ChangeReset, nil
	}, nil)
}

func (s *ledgerService) Penalize(ctx context.Context, userID, teamID int, card models.CardType) (*models.Team, error) {
	if card != models.CardYellow && card != models.CardRed {
		return nil, ErrInvalidCardType
	}
	return s.mutate(ctx, userID, teamID, func(team *models.Team) (int, models.ChangeType, *models.CardType) {
		return -card.PointsDeducted(), card.ChangeType(), &card
	}, nil)
}

// mutate is the single ledger write path. decide computes the delta, change
// kind and optional card once the current team row is known, so reset and
// card penalties share the exact same transaction shape as plain points.
func (s *ledgerService) mutate(
	ctx context.Context,
	userID, teamID int,
	decide func(team *models.Team) (int, models.ChangeType, *models.CardType),
	answerType *models.AnswerType,
) (*models.Team, error) {
	var updated *models.Team

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.getOwnedTeam(ctx, exec, userID, teamID)
		if err != nil {
			return err
		}

		delta, changeType, card := decide(team)
		newScore := team.Score + delta

		action := &models.LastAction{
			UserID:        userID,
			TeamID:        teamID,
			ActionType:    models.ActionScoreChange,
			PreviousScore: team.Score,
			ScoreChange:   delta,
			ChangeType:    changeType,
			AnswerType:    answerType,
		}
		if err := s.lastActionRepo.Replace(ctx, exec, action); err != nil {
			return err
		}

		updated, err = s.teamRepo.UpdateScore(ctx, exec, teamID, newScore, answerType)
		if err != nil {
			return err
		}

		if card != nil {
			penalty := &models.CardPenalty{
				TeamID:         teamID,
				CardType:       *card,
				PointsDeducted: card.PointsDeducted(),
			}
			if err := s.cardRepo.Create(ctx, exec, penalty); err != nil {
				return err
			}
		}

		entry := &models.ScoreHistoryEntry{
			TeamID:        teamID,
			PreviousScore: team.Score,
			NewScore:      newScore,
			ChangeType:    changeType,
			ChangeAmount:  delta,
		}
		return s.historyRepo.Append(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ledgerService) UndoLast(ctx context.Context, userID int, teamID *int) (*UndoResult, error) {
	result := &UndoResult{}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var action *models.LastAction
		var err error
		if teamID != nil {
			action, err = s.lastActionRepo.GetLatestByTeam(ctx, exec, userID, *teamID)
		} else {
			action, err = s.lastActionRepo.GetLatestByUser(ctx, exec, userID)
		}
		if err != nil {
			if errors.Is(err, repositories.ErrLastActionNotFound) {
				// Nothing pending: an explicit no-op, not a failure.
				return nil
			}
			return err
		}

		// Answer counters are deliberately not rolled back here; undo only
		// restores the score. See DESIGN.md.
		if err := s.teamRepo.RestoreScore(ctx, exec, action.TeamID, action.PreviousScore); err != nil {
			return err
		}
		if err := s.lastActionRepo.Delete(ctx, exec, action.ID); err != nil {
			return err
		}

		team, err := s.teamRepo.GetByID(ctx, exec, action.TeamID)
		if err != nil {
			return err
		}

		result.Undone = true
		result.Team = team
		result.Action = action
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ledgerService) GetHistory(ctx context.Context, userID, teamID, limit int) ([]*models.ScoreHistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if _, err := s.getOwnedTeam(ctx, nil, userID, teamID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByTeam(ctx, teamID, limit)
}

func (s *ledgerService) getOwnedTeam(ctx context.Context, exec repositories.SQLExecutor, userID, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, exec, teamID)
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
