package models

import "time"

// GameSession is a timed window over which final rankings are computed.
// EndedAt stays NULL while the session is active; TotalDuration is whole
// seconds, computed once at save time.
type GameSession struct {
	ID            int        `json:"id" db:"id"`
	UserID        int        `json:"user_id" db:"user_id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	TotalDuration int        `json:"total_duration" db:"total_duration"`
	IsActive      bool       `json:"is_active" db:"is_active"`

	// Populated by the service when listing finished games.
	Results []TeamResult `json:"results,omitempty" db:"-"`
}

// TeamResult is the immutable per-team snapshot taken when a session is
// saved. Rank is 1-based and positional: ties keep input order and never
// share a rank.
type TeamResult struct {
	ID             int       `json:"id" db:"id"`
	GameSessionID  int       `json:"game_session_id" db:"game_session_id"`
	TeamID         int       `json:"team_id" db:"team_id"`
	TeamName       string    `json:"team_name" db:"team_name"`
	FinalScore     int       `json:"final_score" db:"final_score"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	WrongAnswers   int       `json:"wrong_answers" db:"wrong_answers"`
	Rank           int       `json:"rank" db:"rank"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
