package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/lib/pq"
)

var ErrScoreHistoryTeamInvalid = errors.New("score history team conflict or invalid")

type ScoreHistoryRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.ScoreHistoryEntry) error
	ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ScoreHistoryEntry, error)
}

type postgresScoreHistoryRepository struct {
	db *sql.DB
}

func NewPostgresScoreHistoryRepository(db *sql.DB) ScoreHistoryRepository {
	return &postgresScoreHistoryRepository{db: db}
}

func (r *postgresScoreHistoryRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.ScoreHistoryEntry) error {
	query := `
		INSERT INTO score_history (team_id, previous_score, new_score, change_type, change_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.TeamID,
		entry.PreviousScore,
		entry.NewScore,
		entry.ChangeType,
		entry.ChangeAmount,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "score_history_team_id_fkey" {
			return ErrScoreHistoryTeamInvalid
		}
		return err
	}
	return nil
}

// ListByTeam returns the newest entries first. Callers page by re-issuing
// with a larger limit; there is no cursor.
func (r *postgresScoreHistoryRepository) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ScoreHistoryEntry, error) {
	query := `
		SELECT id, team_id, previous_score, new_score, change_type, change_amount, created_at
		FROM score_history
		WHERE team_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history for team %d: %w", teamID, err)
	}
	defer rows.Close()

	entries := make([]*models.ScoreHistoryEntry, 0)
	for rows.Next() {
		entry := &models.ScoreHistoryEntry{}
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.TeamID,
			&entry.PreviousScore,
			&entry.NewScore,
			&entry.ChangeType,
			&entry.ChangeAmount,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score history row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during score history rows iteration: %w", err)
	}
	return entries, nil
}
