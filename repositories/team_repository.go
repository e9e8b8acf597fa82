package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrTeamUserInvalid = errors.New("team user conflict or invalid")
)

const teamColumns = `id, name, score, emoji, is_pinned, user_id, correct_answers, wrong_answers, created_at, updated_at`

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Team, error)
	UpdateDetails(ctx context.Context, id int, name *string, emoji *string, isPinned *bool) (*models.Team, error)
	// UpdateScore rewrites the live score (and counters) and must run inside
	// the same transaction as the history and last-action writes.
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, newScore int, answerType *models.AnswerType) (*models.Team, error)
	RestoreScore(ctx context.Context, exec SQLExecutor, id int, score int) error
	Delete(ctx context.Context, id int, userID int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, score, emoji, is_pinned, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, correct_answers, wrong_answers, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Name,
		team.Score,
		team.Emoji,
		team.IsPinned,
		team.UserID,
	).Scan(&team.ID, &team.CorrectAnswers, &team.WrongAnswers, &team.CreatedAt, &team.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "teams_user_id_fkey" {
			return ErrTeamUserInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListByUser(ctx context.Context, userID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE user_id = $1
		ORDER BY is_pinned DESC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for user %d: %w", userID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if scanErr := rows.Scan(
			&team.ID,
			&team.Name,
			&team.Score,
			&team.Emoji,
			&team.IsPinned,
			&team.UserID,
			&team.CorrectAnswers,
			&team.WrongAnswers,
			&team.CreatedAt,
			&team.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateDetails(ctx context.Context, id int, name *string, emoji *string, isPinned *bool) (*models.Team, error) {
	query := `
		UPDATE teams SET
			name = COALESCE($1, name),
			emoji = COALESCE($2, emoji),
			is_pinned = COALESCE($3, is_pinned),
			updated_at = NOW()
		WHERE id = $4
		RETURNING ` + teamColumns

	return scanTeam(r.db.QueryRowContext(ctx, query, name, emoji, isPinned, id))
}

func (r *postgresTeamRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, newScore int, answerType *models.AnswerType) (*models.Team, error) {
	query := `
		UPDATE teams SET
			score = $1,
			correct_answers = correct_answers + CASE WHEN $2 = 'correct' THEN 1 ELSE 0 END,
			wrong_answers = wrong_answers + CASE WHEN $2 = 'wrong' THEN 1 ELSE 0 END,
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + teamColumns

	answer := ""
	if answerType != nil {
		answer = string(*answerType)
	}
	return scanTeam(exec.QueryRowContext(ctx, query, newScore, answer, id))
}

func (r *postgresTeamRepository) RestoreScore(ctx context.Context, exec SQLExecutor, id int, score int) error {
	query := `UPDATE teams SET score = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, score, id)
	if err != nil {
		return fmt.Errorf("RestoreScore: failed to execute query for team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int, userID int) error {
	// score_history, card_penalties and last_actions rows go with the team (ON DELETE CASCADE).
	query := `DELETE FROM teams WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func scanTeam(row *sql.Row) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Score,
		&team.Emoji,
		&team.IsPinned,
		&team.UserID,
		&team.CorrectAnswers,
		&team.WrongAnswers,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return team, nil
}
