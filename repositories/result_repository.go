package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/lib/pq"
)

var ErrTeamResultSessionInvalid = errors.New("team result session conflict or invalid")

type TeamResultRepository interface {
	BatchCreate(ctx context.Context, results []*models.TeamResult) error
	ListBySessions(ctx context.Context, sessionIDs []int) ([]*models.TeamResult, error)
}

type postgresTeamResultRepository struct {
	db *sql.DB
}

func NewPostgresTeamResultRepository(db *sql.DB) TeamResultRepository {
	return &postgresTeamResultRepository{db: db}
}

func (r *postgresTeamResultRepository) BatchCreate(ctx context.Context, results []*models.TeamResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO game_team_results
			(game_session_id, team_id, team_name, final_score, correct_answers, wrong_answers, rank)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	for _, result := range results {
		err := tx.QueryRowContext(ctx, query,
			result.GameSessionID,
			result.TeamID,
			result.TeamName,
			result.FinalScore,
			result.CorrectAnswers,
			result.WrongAnswers,
			result.Rank,
		).Scan(&result.ID, &result.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "game_team_results_game_session_id_fkey" {
				return ErrTeamResultSessionInvalid
			}
			return fmt.Errorf("failed to insert team result for team %d: %w", result.TeamID, err)
		}
	}

	return tx.Commit()
}

func (r *postgresTeamResultRepository) ListBySessions(ctx context.Context, sessionIDs []int) ([]*models.TeamResult, error) {
	if len(sessionIDs) == 0 {
		return []*models.TeamResult{}, nil
	}

	query := `
		SELECT id, game_session_id, team_id, team_name, final_score, correct_answers, wrong_answers, rank, created_at
		FROM game_team_results
		WHERE game_session_id = ANY($1)
		ORDER BY game_session_id DESC, rank ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(sessionIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query team results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.TeamResult, 0)
	for rows.Next() {
		result := &models.TeamResult{}
		if scanErr := rows.Scan(
			&result.ID,
			&result.GameSessionID,
			&result.TeamID,
			&result.TeamName,
			&result.FinalScore,
			&result.CorrectAnswers,
			&result.WrongAnswers,
			&result.Rank,
			&result.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team result row: %w", scanErr)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team result rows iteration: %w", err)
	}
	return results, nil
}
