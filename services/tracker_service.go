package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abanoub-dev/score-tracker/clock"
	"github.com/abanoub-dev/score-tracker/live"
	"github.com/abanoub-dev/score-tracker/models"
)

// BoardSnapshot is the full state a client needs to render the scoreboard.
type BoardSnapshot struct {
	Teams         []*models.Team      `json:"teams"`
	ActiveSession *models.GameSession `json:"active_session,omitempty"`
	Timer         clock.Snapshot      `json:"timer"`
	Leader        *LeaderInfo         `json:"leader,omitempty"`
}

// TrackerService is the scoreboard orchestrator. It owns an in-memory
// mirror of each operator's board, runs every mutation through the ledger
// and session services, and pushes the resulting events to websocket
// viewers. Leader transitions are detected here, against the mirror, so
// the database never needs to know who is leading.
type TrackerService interface {
	Board(ctx context.Context, userID int) (*BoardSnapshot, error)
	ListTeams(ctx context.Context, userID int) ([]*models.Team, error)

	AddTeam(ctx context.Context, userID int, input CreateTeamInput) (*models.Team, error)
	UpdateTeam(ctx context.Context, userID, teamID int, input UpdateTeamInput) (*models.Team, error)
	RemoveTeam(ctx context.Context, userID, teamID int) error

	ApplyScoreDelta(ctx context.Context, userID, teamID, delta int, answerType *models.AnswerType) (*models.Team, error)
	ResetTeamScore(ctx context.Context, userID, teamID int) (*models.Team, error)
	PenalizeTeam(ctx context.Context, userID, teamID int, card models.CardType) (*models.Team, error)
	Undo(ctx context.Context, userID int, teamID *int) (*UndoResult, error)
	TeamHistory(ctx context.Context, userID, teamID, limit int) ([]*models.ScoreHistoryEntry, error)

	StartGame(ctx context.Context, userID int) (*models.GameSession, error)
	EndGame(ctx context.Context, userID int, save bool) (*GameSummary, error)
	GameHistory(ctx context.Context, userID int) ([]*models.GameSession, error)
	DeleteGame(ctx context.Context, userID, sessionID int) error

	Timer(userID int) *clock.Countdown
	SetTimer(userID, minutes, seconds int) (clock.Snapshot, error)
	// RunTimers blocks, ticking every operator timer once per second, until
	// ctx is cancelled.
	RunTimers(ctx context.Context)
}

// board is one operator's in-memory mirror. It is rebuilt from the store on
// first use and then updated only after a store write succeeds.
type board struct {
	teams  map[int]*models.Team
	leader LeaderTracker
}

type trackerService struct {
	teams    TeamService
	ledger   LedgerService
	sessions SessionService
	hub      *live.Hub
	logger   *slog.Logger

	mu     sync.Mutex
	boards map[int]*board

	timersMu sync.Mutex
	timers   map[int]*clock.Countdown
}

func NewTrackerService(
	teams TeamService,
	ledger LedgerService,
	sessions SessionService,
	hub *live.Hub,
	logger *slog.Logger,
) TrackerService {
	return &trackerService{
		teams:    teams,
		ledger:   ledger,
		sessions: sessions,
		hub:      hub,
		logger:   logger,
		boards:   make(map[int]*board),
		timers:   make(map[int]*clock.Countdown),
	}
}

func (s *trackerService) Board(ctx context.Context, userID int) (*BoardSnapshot, error) {
	var (
		teams   []*models.Team
		session *models.GameSession
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teams.List(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		session, err = s.sessions.Active(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	b := s.primeBoard(userID, teams)
	ordered := s.orderedTeams(b)
	// Priming observes once so a later mutation compares against this load,
	// not against nothing.
	b.leader.Observe(ordered)
	s.mu.Unlock()

	return &BoardSnapshot{
		Teams:         ordered,
		ActiveSession: session,
		Timer:         s.Timer(userID).State(),
		Leader:        CurrentLeader(ordered),
	}, nil
}

func (s *trackerService) ListTeams(ctx context.Context, userID int) ([]*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.orderedTeams(b), nil
}

func (s *trackerService) AddTeam(ctx context.Context, userID int, input CreateTeamInput) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.Add(ctx, userID, input)
	if err != nil {
		s.broadcastError(userID, err)
		return nil, err
	}

	b.teams[team.ID] = team
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventTeamAdded, Payload: team})
	s.observeLeader(userID, b)
	return team, nil
}

func (s *trackerService) UpdateTeam(ctx context.Context, userID, teamID int, input UpdateTeamInput) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.UpdateDetails(ctx, userID, teamID, input)
	if err != nil {
		s.broadcastError(userID, err)
		return nil, err
	}

	b.teams[team.ID] = team
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventTeamUpdated, Payload: team})
	return team, nil
}

func (s *trackerService) RemoveTeam(ctx context.Context, userID, teamID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.teams.Remove(ctx, userID, teamID); err != nil {
		s.broadcastError(userID, err)
		return err
	}

	delete(b.teams, teamID)
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventTeamRemoved, Payload: map[string]int{"team_id": teamID}})
	// Removing the leading team can promote another one.
	s.observeLeader(userID, b)
	return nil
}

func (s *trackerService) ApplyScoreDelta(ctx context.Context, userID, teamID, delta int, answerType *models.AnswerType) (*models.Team, error) {
	return s.mutateScore(ctx, userID, func(ctx context.Context) (*models.Team, error) {
		return s.ledger.ApplyDelta(ctx, userID, teamID, delta, answerType)
	})
}

func (s *trackerService) ResetTeamScore(ctx context.Context, userID, teamID int) (*models.Team, error) {
	return s.mutateScore(ctx, userID, func(ctx context.Context) (*models.Team, error) {
		return s.ledger.ResetScore(ctx, userID, teamID)
	})
}

func (s *trackerService) PenalizeTeam(ctx context.Context, userID, teamID int, card models.CardType) (*models.Team, error) {
	return s.mutateScore(ctx, userID, func(ctx context.Context) (*models.Team, error) {
		return s.ledger.Penalize(ctx, userID, teamID, card)
	})
}

// mutateScore funnels every score change through one locked path: store
// write first, then mirror update, then events. Holding the lock across the
// write keeps the mirror and the leader tracker consistent with the store's
// commit order.
func (s *trackerService) mutateScore(ctx context.Context, userID int, write func(ctx context.Context) (*models.Team, error)) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	team, err := write(ctx)
	if err != nil {
		// The mirror is untouched on failure; viewers get a toast-style event.
		s.broadcastError(userID, err)
		return nil, err
	}

	b.teams[team.ID] = team
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventScoreUpdated, Payload: team})
	s.observeLeader(userID, b)
	return team, nil
}

func (s *trackerService) Undo(ctx context.Context, userID int, teamID *int) (*UndoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.boardFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := s.ledger.UndoLast(ctx, userID, teamID)
	if err != nil {
		s.broadcastError(userID, err)
		return nil, err
	}
	if !result.Undone {
		return result, nil
	}

	b.teams[result.Team.ID] = result.Team
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventScoreUndone, Payload: result})
	s.observeLeader(userID, b)
	return result, nil
}

func (s *trackerService) TeamHistory(ctx context.Context, userID, teamID, limit int) ([]*models.ScoreHistoryEntry, error) {
	return s.ledger.GetHistory(ctx, userID, teamID, limit)
}

func (s *trackerService) StartGame(ctx context.Context, userID int) (*models.GameSession, error) {
	session, err := s.sessions.Start(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventGameStarted, Payload: session})
	return session, nil
}

func (s *trackerService) EndGame(ctx context.Context, userID int, save bool) (*GameSummary, error) {
	if !save {
		if err := s.sessions.EndAndDiscard(ctx, userID); err != nil {
			return nil, err
		}
		s.hub.BroadcastToUser(userID, live.Event{Type: live.EventGameEnded})
		return nil, nil
	}

	s.mu.Lock()
	b, err := s.boardFor(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	teams := s.orderedTeams(b)
	s.mu.Unlock()

	summary, err := s.sessions.EndAndSave(ctx, userID, teams)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventGameEnded, Payload: summary})
	return summary, nil
}

func (s *trackerService) GameHistory(ctx context.Context, userID int) ([]*models.GameSession, error) {
	return s.sessions.ListHistory(ctx, userID)
}

func (s *trackerService) DeleteGame(ctx context.Context, userID, sessionID int) error {
	return s.sessions.DeleteSession(ctx, userID, sessionID)
}

// Timer returns the operator's countdown, creating it on first use. Expiry
// is announced to the operator's room exactly once per run-down.
func (s *trackerService) Timer(userID int) *clock.Countdown {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	timer, ok := s.timers[userID]
	if !ok {
		timer = clock.NewCountdown(clock.DefaultCountdownSeconds, func() {
			s.hub.BroadcastToUser(userID, live.Event{Type: live.EventTimesUp})
		})
		s.timers[userID] = timer
	}
	return timer
}

func (s *trackerService) SetTimer(userID, minutes, seconds int) (clock.Snapshot, error) {
	timer := s.Timer(userID)
	if err := timer.SetTime(minutes, seconds); err != nil {
		return clock.Snapshot{}, ErrInvalidTimerValue
	}
	state := timer.State()
	s.hub.BroadcastToUser(userID, live.Event{Type: live.EventTimerUpdated, Payload: state})
	return state, nil
}

// RunTimers drives every operator timer off one shared ticker.
func (s *trackerService) RunTimers(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.timersMu.Lock()
			timers := make([]*clock.Countdown, 0, len(s.timers))
			for _, timer := range s.timers {
				timers = append(timers, timer)
			}
			s.timersMu.Unlock()

			for _, timer := range timers {
				timer.Tick()
			}
		}
	}
}

// boardFor returns the user's mirror, loading it from the store on first
// access. Callers must hold s.mu.
func (s *trackerService) boardFor(ctx context.Context, userID int) (*board, error) {
	if b, ok := s.boards[userID]; ok {
		return b, nil
	}
	teams, err := s.teams.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	b := s.primeBoard(userID, teams)
	b.leader.Observe(s.orderedTeams(b))
	return b, nil
}

func (s *trackerService) primeBoard(userID int, teams []*models.Team) *board {
	b, ok := s.boards[userID]
	if !ok {
		b = &board{teams: make(map[int]*models.Team, len(teams))}
		s.boards[userID] = b
	}
	for _, team := range teams {
		b.teams[team.ID] = team
	}
	return b
}

// orderedTeams rebuilds the display order: pinned teams first, then oldest
// first. The leader derivation depends on this order for tie-breaking.
func (s *trackerService) orderedTeams(b *board) []*models.Team {
	teams := make([]*models.Team, 0, len(b.teams))
	for _, team := range b.teams {
		teams = append(teams, team)
	}
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].IsPinned != teams[j].IsPinned {
			return teams[i].IsPinned
		}
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].ID < teams[j].ID
	})
	return teams
}

func (s *trackerService) broadcastError(userID int, err error) {
	s.hub.BroadcastToUser(userID, live.Event{
		Type:    live.EventError,
		Payload: map[string]string{"message": err.Error()},
	})
}

func (s *trackerService) observeLeader(userID int, b *board) {
	change, fired := b.leader.Observe(s.orderedTeams(b))
	if fired {
		s.logger.Info("leadership changed",
			slog.Int("user_id", userID),
			slog.Int("team_id", change.TeamID),
			slog.Int("score", change.Score))
		s.hub.BroadcastToUser(userID, live.Event{Type: live.EventNewLeader, Payload: change})
	}
}
