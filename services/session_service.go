package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/abanoub-dev/score-tracker/repositories"
	"github.com/abanoub-dev/score-tracker/storage"
)

const gameHistoryLimit = 10

// GameSummary is what ending a game with save produces: the finalized
// session, the ranked results and the winner (rank 1), if any teams played.
type GameSummary struct {
	Session *models.GameSession  `json:"session"`
	Results []*models.TeamResult `json:"results"`
	Winner  *models.TeamResult   `json:"winner,omitempty"`
}

// SessionService drives the game session lifecycle:
// idle -> active -> saved | discarded, then back to idle.
// The active/idle state lives in the store (is_active), so it survives
// reloads and at most one session can be active per operator.
type SessionService interface {
	Start(ctx context.Context, userID int) (*models.GameSession, error)
	EndAndSave(ctx context.Context, userID int, teams []*models.Team) (*GameSummary, error)
	EndAndDiscard(ctx context.Context, userID int) error
	Active(ctx context.Context, userID int) (*models.GameSession, error)
	ListHistory(ctx context.Context, userID int) ([]*models.GameSession, error)
	DeleteSession(ctx context.Context, userID, sessionID int) error
}

type sessionService struct {
	sessionRepo repositories.GameSessionRepository
	resultRepo  repositories.TeamResultRepository
	uploader    storage.FileUploader // optional, nil disables archiving
	logger      *slog.Logger
}

func NewSessionService(
	sessionRepo repositories.GameSessionRepository,
	resultRepo repositories.TeamResultRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *sessionService) Start(ctx context.Context, userID int) (*models.GameSession, error) {
	_, err := s.sessionRepo.GetActiveByUser(ctx, userID)
	if err == nil {
		return nil, ErrGameAlreadyActive
	}
	if !errors.Is(err, repositories.ErrGameSessionNotFound) {
		return nil, fmt.Errorf("failed to check for active session: %w", err)
	}

	session := &models.GameSession{UserID: userID}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) EndAndSave(ctx context.Context, userID int, teams []*models.Team) (*GameSummary, error) {
	session, err := s.requireActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	endedAt := time.Now()
	duration := int(endedAt.Sub(session.StartedAt).Seconds())

	if err := s.sessionRepo.Finalize(ctx, session.ID, endedAt, duration); err != nil {
		return nil, err
	}
	session.EndedAt = &endedAt
	session.TotalDuration = duration
	session.IsActive = false

	results := RankTeams(session.ID, teams)
	if err := s.resultRepo.BatchCreate(ctx, results); err != nil {
		return nil, err
	}

	summary := &GameSummary{Session: session, Results: results}
	if len(results) > 0 {
		summary.Winner = results[0]
	}

	s.archive(ctx, summary)
	return summary, nil
}

func (s *sessionService) EndAndDiscard(ctx context.Context, userID int) error {
	session, err := s.requireActive(ctx, userID)
	if err != nil {
		return err
	}
	return s.sessionRepo.Delete(ctx, session.ID, userID)
}

func (s *sessionService) Active(ctx context.Context, userID int) (*models.GameSession, error) {
	session, err := s.sessionRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionService) ListHistory(ctx context.Context, userID int) ([]*models.GameSession, error) {
	sessions, err := s.sessionRepo.ListFinishedByUser(ctx, userID, gameHistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]int, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	results, err := s.resultRepo.ListBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	bySession := make(map[int][]models.TeamResult, len(sessions))
	for _, result := range results {
		bySession[result.GameSessionID] = append(bySession[result.GameSessionID], *result)
	}
	for _, session := range sessions {
		session.Results = bySession[session.ID]
	}
	return sessions, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, userID, sessionID int) error {
	err := s.sessionRepo.Delete(ctx, sessionID, userID)
	if errors.Is(err, repositories.ErrGameSessionNotFound) {
		return ErrGameSessionNotFound
	}
	return err
}

func (s *sessionService) requireActive(ctx context.Context, userID int) (*models.GameSession, error) {
	session, err := s.sessionRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameSessionNotFound) {
			return nil, ErrNoActiveGame
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return session, nil
}

// archive uploads the final rankings to object storage, best effort: a
// failed upload must not fail the save itself.
func (s *sessionService) archive(ctx context.Context, summary *GameSummary) {
	if s.uploader == nil {
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("failed to marshal game summary for archive", slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("games/%d/session-%d.json", summary.Session.UserID, summary.Session.ID)
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		s.logger.Warn("failed to archive game results",
			slog.Int("session_id", summary.Session.ID),
			slog.Any("error", err))
		return
	}
	s.logger.Info("game results archived", slog.Int("session_id", summary.Session.ID), slog.String("key", key))
}

// RankTeams snapshots the live team set into ranked results. The sort is
// stable and descending on score: ties keep their input order and ranks are
// positional (1..n), never shared.
func RankTeams(sessionID int, teams []*models.Team) []*models.TeamResult {
	sorted := make([]*models.Team, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	results := make([]*models.TeamResult, len(sorted))
	for i, team := range sorted {
		results[i] = &models.TeamResult{
			GameSessionID:  sessionID,
			TeamID:         team.ID,
			TeamName:       team.Name,
			FinalScore:     team.Score,
			CorrectAnswers: team.CorrectAnswers,
			WrongAnswers:   team.WrongAnswers,
			Rank:           i + 1,
		}
	}
	return results
}
