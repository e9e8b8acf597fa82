package services

import "github.com/abanoub-dev/score-tracker/models"

// LeaderCelebrationMillis is how long the celebratory visual signal should
// be shown by clients.
const LeaderCelebrationMillis = 3000

type LeaderInfo struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// LeaderChange is emitted when the leadership actually moves from one team
// to another.
type LeaderChange struct {
	LeaderInfo
	DurationMillis int `json:"duration_ms"`
}

// CurrentLeader derives the leading team from the live team set: the team
// with the maximum score among those scoring above zero. On ties the
// first-encountered team wins, so the derivation is stable for a fixed
// input order. Returns nil when no team qualifies.
func CurrentLeader(teams []*models.Team) *LeaderInfo {
	var leader *models.Team
	for _, team := range teams {
		if team.Score <= 0 {
			continue
		}
		if leader == nil || team.Score > leader.Score {
			leader = team
		}
	}
	if leader == nil {
		return nil
	}
	return &LeaderInfo{TeamID: leader.ID, Name: leader.Name, Score: leader.Score}
}

// LeaderTracker memoizes the previous leader so that only genuine
// transitions fire. The zero value is ready to use: the first observation
// after data load primes the state and never fires.
type LeaderTracker struct {
	prev *int
}

// Observe recomputes the leader and reports whether a transition happened.
func (t *LeaderTracker) Observe(teams []*models.Team) (*LeaderChange, bool) {
	current := CurrentLeader(teams)

	var change *LeaderChange
	if current != nil && t.prev != nil && *t.prev != current.TeamID {
		change = &LeaderChange{LeaderInfo: *current, DurationMillis: LeaderCelebrationMillis}
	}

	if current != nil {
		id := current.TeamID
		t.prev = &id
	} else {
		t.prev = nil
	}
	return change, change != nil
}
