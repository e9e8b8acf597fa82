package services

import (
	"context"
	"errors"
	"testing"

	"github.com/abanoub-dev/score-tracker/clock"
	"github.com/abanoub-dev/score-tracker/live"
	"github.com/abanoub-dev/score-tracker/models"
)

// The tracker is tested through the real team, ledger and session services
// wired over the in-memory repositories, so a whole operator workflow runs
// end to end without a database or websocket clients.
func newTrackerFixture(teams ...*models.Team) (TrackerService, *ledgerFixture) {
	f := newLedgerFixture(teams...)
	sessions := newFakeSessionRepo()
	results := &fakeResultRepo{}

	tracker := NewTrackerService(
		NewTeamService(f.teams),
		f.ledger,
		NewSessionService(sessions, results, nil, testLogger()),
		live.NewHub(testLogger()),
		testLogger(),
	)
	return tracker, f
}

func TestBoardSnapshot(t *testing.T) {
	tracker, _ := newTrackerFixture(
		&models.Team{ID: 1, Name: "Alpha", UserID: 10},
		&models.Team{ID: 2, Name: "Bravo", UserID: 10, IsPinned: true},
		&models.Team{ID: 3, Name: "Other", UserID: 99},
	)

	snapshot, err := tracker.Board(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(snapshot.Teams) != 2 {
		t.Fatalf("expected 2 teams for user 10, got %d", len(snapshot.Teams))
	}
	if snapshot.Teams[0].ID != 2 {
		t.Fatalf("pinned team must come first, got team %d", snapshot.Teams[0].ID)
	}
	if snapshot.Leader != nil {
		t.Fatalf("no team above zero, leader must be nil: %+v", snapshot.Leader)
	}
	if snapshot.ActiveSession != nil {
		t.Fatal("no session started yet")
	}
	if snapshot.Timer.Remaining != clock.DefaultCountdownSeconds {
		t.Fatalf("expected default timer, got %d", snapshot.Timer.Remaining)
	}
}

func TestScoreMutationReflectsInBoard(t *testing.T) {
	tracker, _ := newTrackerFixture(
		&models.Team{ID: 1, Name: "Alpha", UserID: 10},
		&models.Team{ID: 2, Name: "Bravo", UserID: 10},
	)
	ctx := context.Background()

	team, err := tracker.ApplyScoreDelta(ctx, 10, 2, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if team.Score != 5 {
		t.Fatalf("expected score 5, got %d", team.Score)
	}

	snapshot, err := tracker.Board(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Leader == nil || snapshot.Leader.TeamID != 2 {
		t.Fatalf("expected team 2 to lead, got %+v", snapshot.Leader)
	}
}

func TestUndoThroughTracker(t *testing.T) {
	tracker, _ := newTrackerFixture(&models.Team{ID: 1, Name: "Alpha", UserID: 10})
	ctx := context.Background()

	if _, err := tracker.ApplyScoreDelta(ctx, 10, 1, 3, nil); err != nil {
		t.Fatal(err)
	}

	result, err := tracker.Undo(ctx, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Undone || result.Team.Score != 0 {
		t.Fatalf("expected undo to 0, got %+v", result)
	}

	// Nothing left to undo.
	result, err = tracker.Undo(ctx, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Undone {
		t.Fatal("expected no-op undo")
	}
}

func TestGameLifecycleThroughTracker(t *testing.T) {
	tracker, _ := newTrackerFixture(
		&models.Team{ID: 1, Name: "Alpha", UserID: 10},
		&models.Team{ID: 2, Name: "Bravo", UserID: 10},
	)
	ctx := context.Background()

	if _, err := tracker.StartGame(ctx, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.StartGame(ctx, 10); !errors.Is(err, ErrGameAlreadyActive) {
		t.Fatalf("expected ErrGameAlreadyActive, got %v", err)
	}

	if _, err := tracker.ApplyScoreDelta(ctx, 10, 2, 4, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.ApplyScoreDelta(ctx, 10, 1, 2, nil); err != nil {
		t.Fatal(err)
	}

	summary, err := tracker.EndGame(ctx, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Winner == nil || summary.Winner.TeamID != 2 {
		t.Fatalf("expected team 2 to win, got %+v", summary.Winner)
	}

	history, err := tracker.GameHistory(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 saved game, got %d", len(history))
	}
}

func TestRemoveTeamKeepsBoardConsistent(t *testing.T) {
	tracker, f := newTrackerFixture(
		&models.Team{ID: 1, Name: "Alpha", UserID: 10},
		&models.Team{ID: 2, Name: "Bravo", UserID: 10},
	)
	ctx := context.Background()

	if err := tracker.RemoveTeam(ctx, 10, 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.teams.teams[1]; ok {
		t.Fatal("team 1 still in store")
	}

	snapshot, err := tracker.Board(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot.Teams) != 1 || snapshot.Teams[0].ID != 2 {
		t.Fatalf("unexpected board after removal: %+v", snapshot.Teams)
	}
}

func TestTimersAreIsolatedPerOperator(t *testing.T) {
	tracker, _ := newTrackerFixture()

	if _, err := tracker.SetTimer(10, 1, 30); err != nil {
		t.Fatal(err)
	}
	if got := tracker.Timer(10).State().Remaining; got != 90 {
		t.Fatalf("expected 90 seconds, got %d", got)
	}
	if got := tracker.Timer(11).State().Remaining; got != clock.DefaultCountdownSeconds {
		t.Fatalf("operator 11 timer touched: %d", got)
	}

	if _, err := tracker.SetTimer(10, 100, 0); !errors.Is(err, ErrInvalidTimerValue) {
		t.Fatalf("expected ErrInvalidTimerValue, got %v", err)
	}
}
