package models

import "time"

// ChangeType mirrors the change_type ENUM in the database.
type ChangeType string

const (
	ChangePoint      ChangeType = "point"
	ChangeYellowCard ChangeType = "yellow_card"
	ChangeRedCard    ChangeType = "red_card"
	ChangeReset      ChangeType = "reset"
)

// AnswerType marks a score change as a correct or wrong quiz answer,
// bumping the matching team counter.
type AnswerType string

const (
	AnswerCorrect AnswerType = "correct"
	AnswerWrong   AnswerType = "wrong"
)

// CardType mirrors the card_type ENUM in the database.
type CardType string

const (
	CardYellow CardType = "yellow"
	CardRed    CardType = "red"
)

// PointsDeducted returns how many points the card costs.
func (c CardType) PointsDeducted() int {
	if c == CardRed {
		return 2
	}
	return 1
}

// ChangeType maps a card to the change kind recorded in history.
func (c CardType) ChangeType() ChangeType {
	if c == CardRed {
		return ChangeRedCard
	}
	return ChangeYellowCard
}

// ScoreHistoryEntry is the immutable audit record of one score transition.
// Entries are append-only and removed only by cascading team deletion.
type ScoreHistoryEntry struct {
	ID            int        `json:"id" db:"id"`
	TeamID        int        `json:"team_id" db:"team_id"`
	PreviousScore int        `json:"previous_score" db:"previous_score"`
	NewScore      int        `json:"new_score" db:"new_score"`
	ChangeType    ChangeType `json:"change_type" db:"change_type"`
	ChangeAmount  int        `json:"change_amount" db:"change_amount"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// LastAction is the single-slot undo record. At most one row exists per
// (user, team) pair; writing a new one supersedes the old, undo deletes it.
type LastAction struct {
	ID            int         `json:"id" db:"id"`
	UserID        int         `json:"user_id" db:"user_id"`
	TeamID        int         `json:"team_id" db:"team_id"`
	ActionType    string      `json:"action_type" db:"action_type"`
	PreviousScore int         `json:"previous_score" db:"previous_score"`
	ScoreChange   int         `json:"score_change" db:"score_change"`
	ChangeType    ChangeType  `json:"change_type" db:"change_type"`
	AnswerType    *AnswerType `json:"answer_type,omitempty" db:"answer_type"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// ActionScoreChange is the only action_type the ledger writes today.
const ActionScoreChange = "score_change"

// CardPenalty is the auxiliary card log, kept apart from ScoreHistoryEntry
// for card-specific reporting.
type CardPenalty struct {
	ID             int       `json:"id" db:"id"`
	TeamID         int       `json:"team_id" db:"team_id"`
	CardType       CardType  `json:"card_type" db:"card_type"`
	PointsDeducted int       `json:"points_deducted" db:"points_deducted"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
