package live

// Event is the envelope every websocket frame carries.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event types pushed to scoreboard viewers.
const (
	EventScoreUpdated = "score_updated"
	EventScoreUndone  = "score_undone"
	EventTeamAdded    = "team_added"
	EventTeamUpdated  = "team_updated"
	EventTeamRemoved  = "team_removed"
	EventNewLeader    = "new_leader"
	EventGameStarted  = "game_started"
	EventGameEnded    = "game_ended"
	EventTimerUpdated = "timer_updated"
	EventTimesUp      = "times_up"
	EventError        = "error"
)
