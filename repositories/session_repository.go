package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abanoub-dev/score-tracker/models"
)

var ErrGameSessionNotFound = errors.New("game session not found")

type GameSessionRepository interface {
	Create(ctx context.Context, session *models.GameSession) error
	GetActiveByUser(ctx context.Context, userID int) (*models.GameSession, error)
	Finalize(ctx context.Context, id int, endedAt time.Time, totalDuration int) error
	Delete(ctx context.Context, id int, userID int) error
	ListFinishedByUser(ctx context.Context, userID int, limit int) ([]*models.GameSession, error)
}

type postgresGameSessionRepository struct {
	db *sql.DB
}

func NewPostgresGameSessionRepository(db *sql.DB) GameSessionRepository {
	return &postgresGameSessionRepository{db: db}
}

func (r *postgresGameSessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	query := `
		INSERT INTO game_sessions (user_id, is_active)
		VALUES ($1, TRUE)
		RETURNING id, started_at, is_active`

	err := r.db.QueryRowContext(ctx, query, session.UserID).
		Scan(&session.ID, &session.StartedAt, &session.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create game session: %w", err)
	}
	return nil
}

func (r *postgresGameSessionRepository) GetActiveByUser(ctx context.Context, userID int) (*models.GameSession, error) {
	query := `
		SELECT id, user_id, started_at, ended_at, total_duration, is_active
		FROM game_sessions
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY started_at DESC
		LIMIT 1`
	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresGameSessionRepository) Finalize(ctx context.Context, id int, endedAt time.Time, totalDuration int) error {
	query := `
		UPDATE game_sessions
		SET ended_at = $1, total_duration = $2, is_active = FALSE
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, endedAt, totalDuration, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameSessionNotFound)
}

func (r *postgresGameSessionRepository) Delete(ctx context.Context, id int, userID int) error {
	// Results of a deleted session go with it (ON DELETE CASCADE).
	query := `DELETE FROM game_sessions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameSessionNotFound)
}

func (r *postgresGameSessionRepository) ListFinishedByUser(ctx context.Context, userID int, limit int) ([]*models.GameSession, error) {
	query := `
		SELECT id, user_id, started_at, ended_at, total_duration, is_active
		FROM game_sessions
		WHERE user_id = $1 AND is_active = FALSE
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game sessions for user %d: %w", userID, err)
	}
	defer rows.Close()

	sessions := make([]*models.GameSession, 0)
	for rows.Next() {
		session := &models.GameSession{}
		if scanErr := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.StartedAt,
			&session.EndedAt,
			&session.TotalDuration,
			&session.IsActive,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game session row: %w", scanErr)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game session rows iteration: %w", err)
	}
	return sessions, nil
}

func (r *postgresGameSessionRepository) scanSession(row *sql.Row) (*models.GameSession, error) {
	session := &models.GameSession{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.StartedAt,
		&session.EndedAt,
		&session.TotalDuration,
		&session.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan game session: %w", err)
	}
	return session, nil
}
