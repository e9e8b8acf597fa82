package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
)

var ErrLastActionNotFound = errors.New("last action not found")

type LastActionRepository interface {
	// Replace enforces the single-slot invariant: any prior record for the
	// same (user, team) pair is superseded by the new one.
	Replace(ctx context.Context, exec SQLExecutor, action *models.LastAction) error
	GetLatestByTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) (*models.LastAction, error)
	GetLatestByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.LastAction, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresLastActionRepository struct {
	db *sql.DB
}

func NewPostgresLastActionRepository(db *sql.DB) LastActionRepository {
	return &postgresLastActionRepository{db: db}
}

func (r *postgresLastActionRepository) Replace(ctx context.Context, exec SQLExecutor, action *models.LastAction) error {
	if _, err := exec.ExecContext(ctx,
		`DELETE FROM last_actions WHERE user_id = $1 AND team_id = $2`,
		action.UserID, action.TeamID,
	); err != nil {
		return fmt.Errorf("failed to supersede last action for team %d: %w", action.TeamID, err)
	}

	query := `
		INSERT INTO last_actions (user_id, team_id, action_type, previous_score, score_change, change_type, answer_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		action.UserID,
		action.TeamID,
		action.ActionType,
		action.PreviousScore,
		action.ScoreChange,
		action.ChangeType,
		action.AnswerType,
	).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert last action for team %d: %w", action.TeamID, err)
	}
	return nil
}

func (r *postgresLastActionRepository) GetLatestByTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) (*models.LastAction, error) {
	query := lastActionSelect + ` WHERE user_id = $1 AND team_id = $2 ORDER BY created_at DESC, id DESC LIMIT 1`
	if exec == nil {
		exec = r.db
	}
	return scanLastAction(exec.QueryRowContext(ctx, query, userID, teamID))
}

func (r *postgresLastActionRepository) GetLatestByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.LastAction, error) {
	query := lastActionSelect + ` WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	if exec == nil {
		exec = r.db
	}
	return scanLastAction(exec.QueryRowContext(ctx, query, userID))
}

func (r *postgresLastActionRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM last_actions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLastActionNotFound)
}

const lastActionSelect = `
	SELECT id, user_id, team_id, action_type, previous_score, score_change, change_type, answer_type, created_at
	FROM last_actions`

func scanLastAction(row *sql.Row) (*models.LastAction, error) {
	action := &models.LastAction{}
	err := row.Scan(
		&action.ID,
		&action.UserID,
		&action.TeamID,
		&action.ActionType,
		&action.PreviousScore,
		&action.ScoreChange,
		&action.ChangeType,
		&action.AnswerType,
		&action.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLastActionNotFound
		}
		return nil, fmt.Errorf("failed to scan last action: %w", err)
	}
	return action, nil
}
