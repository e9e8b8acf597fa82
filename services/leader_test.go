package services

import (
	"testing"

	"github.com/abanoub-dev/score-tracker/models"
)

func teamsWithScores(scores ...int) []*models.Team {
	teams := make([]*models.Team, len(scores))
	for i, score := range scores {
		teams[i] = &models.Team{ID: i + 1, Name: "team", Score: score}
	}
	return teams
}

func TestCurrentLeader(t *testing.T) {
	cases := []struct {
		name       string
		scores     []int
		wantTeamID int // 0 means no leader
	}{
		{name: "empty board", scores: nil, wantTeamID: 0},
		{name: "all zero", scores: []int{0, 0, 0}, wantTeamID: 0},
		{name: "all negative", scores: []int{-2, -1}, wantTeamID: 0},
		{name: "single positive", scores: []int{0, 4, 0}, wantTeamID: 2},
		{name: "strict max wins", scores: []int{3, 7, 5}, wantTeamID: 2},
		{name: "tie keeps first encountered", scores: []int{5, 5, 2}, wantTeamID: 1},
		{name: "negative beaten by positive", scores: []int{-3, 1}, wantTeamID: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			leader := CurrentLeader(teamsWithScores(tc.scores...))
			if tc.wantTeamID == 0 {
				if leader != nil {
					t.Fatalf("expected no leader, got team %d", leader.TeamID)
				}
				return
			}
			if leader == nil {
				t.Fatalf("expected team %d to lead, got none", tc.wantTeamID)
			}
			if leader.TeamID != tc.wantTeamID {
				t.Fatalf("expected team %d to lead, got team %d", tc.wantTeamID, leader.TeamID)
			}
		})
	}
}

func TestLeaderTrackerDoesNotFireOnFirstObservation(t *testing.T) {
	tracker := &LeaderTracker{}

	change, fired := tracker.Observe(teamsWithScores(5, 3))
	if fired || change != nil {
		t.Fatalf("first observation must only prime the tracker, got change %+v", change)
	}
}

func TestLeaderTrackerFiresOnTransition(t *testing.T) {
	tracker := &LeaderTracker{}
	teams := teamsWithScores(5, 5, 0)

	if _, fired := tracker.Observe(teams); fired {
		t.Fatal("priming observation fired")
	}

	// Raising the second team past the tie moves the lead.
	teams[1].Score = 6
	change, fired := tracker.Observe(teams)
	if !fired {
		t.Fatal("expected transition to fire")
	}
	if change.TeamID != 2 || change.Score != 6 {
		t.Fatalf("unexpected change: %+v", change)
	}
	if change.DurationMillis != LeaderCelebrationMillis {
		t.Fatalf("expected duration %d, got %d", LeaderCelebrationMillis, change.DurationMillis)
	}

	// Same leader again must stay quiet.
	teams[1].Score = 8
	if _, fired := tracker.Observe(teams); fired {
		t.Fatal("re-observing the same leader fired")
	}
}

func TestLeaderTrackerQuietAfterBoardClears(t *testing.T) {
	tracker := &LeaderTracker{}
	teams := teamsWithScores(4, 2)

	tracker.Observe(teams)

	// Leader drops to zero: no one leads, nothing fires.
	teams[0].Score = 0
	teams[1].Score = 0
	if change, fired := tracker.Observe(teams); fired {
		t.Fatalf("clearing the board fired: %+v", change)
	}

	// First leader after a cleared board is treated like an initial load.
	teams[1].Score = 3
	if change, fired := tracker.Observe(teams); fired {
		t.Fatalf("leader after cleared board fired: %+v", change)
	}

	// But a subsequent handover fires again.
	teams[0].Score = 9
	change, fired := tracker.Observe(teams)
	if !fired || change.TeamID != 1 {
		t.Fatalf("expected handover to team 1, got fired=%v change=%+v", fired, change)
	}
}
