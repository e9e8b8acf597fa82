package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/lib/pq"
)

var ErrCardPenaltyTeamInvalid = errors.New("card penalty team conflict or invalid")

type CardPenaltyRepository interface {
	Create(ctx context.Context, exec SQLExecutor, penalty *models.CardPenalty) error
	ListByTeam(ctx context.Context, teamID int) ([]*models.CardPenalty, error)
}

type postgresCardPenaltyRepository struct {
	db *sql.DB
}

func NewPostgresCardPenaltyRepository(db *sql.DB) CardPenaltyRepository {
	return &postgresCardPenaltyRepository{db: db}
}

func (r *postgresCardPenaltyRepository) Create(ctx context.Context, exec SQLExecutor, penalty *models.CardPenalty) error {
	query := `
		INSERT INTO card_penalties (team_id, card_type, points_deducted)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		penalty.TeamID,
		penalty.CardType,
		penalty.PointsDeducted,
	).Scan(&penalty.ID, &penalty.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "card_penalties_team_id_fkey" {
			return ErrCardPenaltyTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresCardPenaltyRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.CardPenalty, error) {
	query := `
		SELECT id, team_id, card_type, points_deducted, created_at
		FROM card_penalties
		WHERE team_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query card penalties for team %d: %w", teamID, err)
	}
	defer rows.Close()

	penalties := make([]*models.CardPenalty, 0)
	for rows.Next() {
		penalty := &models.CardPenalty{}
		if scanErr := rows.Scan(
			&penalty.ID,
			&penalty.TeamID,
			&penalty.CardType,
			&penalty.PointsDeducted,
			&penalty.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan card penalty row: %w", scanErr)
		}
		penalties = append(penalties, penalty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during card penalty rows iteration: %w", err)
	}
	return penalties, nil
}
