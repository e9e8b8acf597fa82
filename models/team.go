package models

import "time"

const DefaultTeamEmoji = "⚽"

// Team represents one scored participant on the board. Scores are unbounded
// and may go negative.
type Team struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Score          int       `json:"score" db:"score"`
	Emoji          string    `json:"emoji" db:"emoji"`
	IsPinned       bool      `json:"is_pinned" db:"is_pinned"`
	UserID         int       `json:"user_id" db:"user_id"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	WrongAnswers   int       `json:"wrong_answers" db:"wrong_answers"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
