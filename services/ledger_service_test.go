package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abanoub-dev/score-tracker/models"
	"github.com/abanoub-dev/score-tracker/repositories"
)

// The fakes below stand in for the postgres repositories so the ledger's
// orchestration can be exercised without a database. The fake transaction
// manager just runs the function; each test asserts on the resulting state.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTeamRepo struct {
	teams map[int]*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{teams: make(map[int]*models.Team)}
	for _, team := range teams {
		repo.teams[team.ID] = team
	}
	return repo
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	team.ID = len(r.teams) + 1
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListByUser(ctx context.Context, userID int) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for _, team := range r.teams {
		if team.UserID == userID {
			copied := *team
			teams = append(teams, &copied)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) UpdateDetails(ctx context.Context, id int, name *string, emoji *string, isPinned *bool) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	if name != nil {
		team.Name = *name
	}
	if emoji != nil {
		team.Emoji = *emoji
	}
	if isPinned != nil {
		team.IsPinned = *isPinned
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id int, newScore int, answerType *models.AnswerType) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	team.Score = newScore
	if answerType != nil {
		switch *answerType {
		case models.AnswerCorrect:
			team.CorrectAnswers++
		case models.AnswerWrong:
			team.WrongAnswers++
		}
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) RestoreScore(ctx context.Context, exec repositories.SQLExecutor, id int, score int) error {
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Score = score
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int, userID int) error {
	team, ok := r.teams[id]
	if !ok || team.UserID != userID {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakeHistoryRepo struct {
	entries []*models.ScoreHistoryEntry
}

func (r *fakeHistoryRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.ScoreHistoryEntry) error {
	entry.ID = len(r.entries) + 1
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ScoreHistoryEntry, error) {
	entries := make([]*models.ScoreHistoryEntry, 0)
	for i := len(r.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if r.entries[i].TeamID == teamID {
			entries = append(entries, r.entries[i])
		}
	}
	return entries, nil
}

type fakeLastActionRepo struct {
	actions map[int]*models.LastAction // keyed by team ID, one slot per team
	nextID  int
}

func newFakeLastActionRepo() *fakeLastActionRepo {
	return &fakeLastActionRepo{actions: make(map[int]*models.LastAction)}
}

func (r *fakeLastActionRepo) Replace(ctx context.Context, exec repositories.SQLExecutor, action *models.LastAction) error {
	r.nextID++
	action.ID = r.nextID
	action.CreatedAt = time.Now()
	r.actions[action.TeamID] = action
	return nil
}

func (r *fakeLastActionRepo) GetLatestByTeam(ctx context.Context, exec repositories.SQLExecutor, userID, teamID int) (*models.LastAction, error) {
	action, ok := r.actions[teamID]
	if !ok || action.UserID != userID {
		return nil, repositories.ErrLastActionNotFound
	}
	copied := *action
	return &copied, nil
}

func (r *fakeLastActionRepo) GetLatestByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.LastAction, error) {
	var latest *models.LastAction
	for _, action := range r.actions {
		if action.UserID != userID {
			continue
		}
		if latest == nil || action.ID > latest.ID {
			latest = action
		}
	}
	if latest == nil {
		return nil, repositories.ErrLastActionNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeLastActionRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	for teamID, action := range r.actions {
		if action.ID == id {
			delete(r.actions, teamID)
			return nil
		}
	}
	return repositories.ErrLastActionNotFound
}

type fakeCardRepo struct {
	penalties []*models.CardPenalty
}

func (r *fakeCardRepo) Create(ctx context.Context, exec repositories.SQLExecutor, penalty *models.CardPenalty) error {
	penalty.ID = len(r.penalties) + 1
	r.penalties = append(r.penalties, penalty)
	return nil
}

func (r *fakeCardRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.CardPenalty, error) {
	penalties := make([]*models.CardPenalty, 0)
	for _, penalty := range r.penalties {
		if penalty.TeamID == teamID {
			penalties = append(penalties, penalty)
		}
	}
	return penalties, nil
}

type ledgerFixture struct {
	ledger      LedgerService
	teams       *fakeTeamRepo
	history     *fakeHistoryRepo
	lastActions *fakeLastActionRepo
	cards       *fakeCardRepo
}

func newLedgerFixture(teams ...*models.Team) *ledgerFixture {
	f := &ledgerFixture{
		teams:       newFakeTeamRepo(teams...),
		history:     &fakeHistoryRepo{},
		lastActions: newFakeLastActionRepo(),
		cards:       &fakeCardRepo{},
	}
	f.ledger = NewLedgerService(fakeTxManager{}, f.teams, f.history, f.lastActions, f.cards)
	return f
}

func answer(a models.AnswerType) *models.AnswerType { return &a }

func TestApplyDeltaAccumulates(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, Name: "Lions", UserID: 10})
	ctx := context.Background()

	deltas := []int{3, -1, 5}
	var team *models.Team
	var err error
	for _, delta := range deltas {
		team, err = f.ledger.ApplyDelta(ctx, 10, 1, delta, nil)
		if err != nil {
			t.Fatalf("ApplyDelta(%d): %v", delta, err)
		}
	}

	if team.Score != 7 {
		t.Fatalf("expected score 7, got %d", team.Score)
	}
	if len(f.history.entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(f.history.entries))
	}
	last := f.history.entries[2]
	if last.PreviousScore != 2 || last.NewScore != 7 || last.ChangeType != models.ChangePoint {
		t.Fatalf("unexpected final history entry: %+v", last)
	}
}

func TestApplyDeltaRejectsZero(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})

	if _, err := f.ledger.ApplyDelta(context.Background(), 10, 1, 0, nil); !errors.Is(err, ErrInvalidScoreChange) {
		t.Fatalf("expected ErrInvalidScoreChange, got %v", err)
	}
	if len(f.history.entries) != 0 {
		t.Fatal("rejected delta must not write history")
	}
}

func TestApplyDeltaBumpsAnswerCounters(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})
	ctx := context.Background()

	if _, err := f.ledger.ApplyDelta(ctx, 10, 1, 2, answer(models.AnswerCorrect)); err != nil {
		t.Fatal(err)
	}
	team, err := f.ledger.ApplyDelta(ctx, 10, 1, -1, answer(models.AnswerWrong))
	if err != nil {
		t.Fatal(err)
	}

	if team.CorrectAnswers != 1 || team.WrongAnswers != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", team.CorrectAnswers, team.WrongAnswers)
	}
}

func TestUndoRestoresScoreAndConsumesSlot(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10, Score: 4})
	ctx := context.Background()

	if _, err := f.ledger.ApplyDelta(ctx, 10, 1, 5, nil); err != nil {
		t.Fatal(err)
	}

	teamID := 1
	result, err := f.ledger.UndoLast(ctx, 10, &teamID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Undone {
		t.Fatal("expected undo to apply")
	}
	if result.Team.Score != 4 {
		t.Fatalf("expected restored score 4, got %d", result.Team.Score)
	}

	// The slot is consumed: a second undo is an explicit no-op.
	result, err = f.ledger.UndoLast(ctx, 10, &teamID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Undone {
		t.Fatal("second undo must be a no-op")
	}
}

func TestUndoDoesNotRollBackCounters(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})
	ctx := context.Background()

	if _, err := f.ledger.ApplyDelta(ctx, 10, 1, 2, answer(models.AnswerCorrect)); err != nil {
		t.Fatal(err)
	}

	teamID := 1
	result, err := f.ledger.UndoLast(ctx, 10, &teamID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Team.Score != 0 {
		t.Fatalf("expected score restored to 0, got %d", result.Team.Score)
	}
	if result.Team.CorrectAnswers != 1 {
		t.Fatalf("answer counter must survive undo, got %d", result.Team.CorrectAnswers)
	}
}

func TestUndoAcrossTeamsPicksMostRecent(t *testing.T) {
	f := newLedgerFixture(
		&models.Team{ID: 1, UserID: 10},
		&models.Team{ID: 2, UserID: 10},
	)
	ctx := context.Background()

	if _, err := f.ledger.ApplyDelta(ctx, 10, 1, 3, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.ApplyDelta(ctx, 10, 2, 4, nil); err != nil {
		t.Fatal(err)
	}

	result, err := f.ledger.UndoLast(ctx, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Undone || result.Team.ID != 2 {
		t.Fatalf("expected team 2 to be undone, got %+v", result)
	}
	if result.Team.Score != 0 {
		t.Fatalf("expected team 2 restored to 0, got %d", result.Team.Score)
	}
}

func TestPenalizeCards(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})
	ctx := context.Background()

	team, err := f.ledger.Penalize(ctx, 10, 1, models.CardYellow)
	if err != nil {
		t.Fatal(err)
	}
	if team.Score != -1 {
		t.Fatalf("yellow card: expected score -1, got %d", team.Score)
	}

	team, err = f.ledger.Penalize(ctx, 10, 1, models.CardRed)
	if err != nil {
		t.Fatal(err)
	}
	if team.Score != -3 {
		t.Fatalf("red card: expected score -3, got %d", team.Score)
	}

	penalties, _ := f.cards.ListByTeam(ctx, 1)
	if len(penalties) != 2 {
		t.Fatalf("expected 2 card penalties, got %d", len(penalties))
	}
	if penalties[1].CardType != models.CardRed || penalties[1].PointsDeducted != 2 {
		t.Fatalf("unexpected red penalty: %+v", penalties[1])
	}

	// Only the red card occupies the undo slot.
	teamID := 1
	result, err := f.ledger.UndoLast(ctx, 10, &teamID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Undone || result.Team.Score != -1 {
		t.Fatalf("expected undo back to -1, got %+v", result)
	}
}

func TestPenalizeRejectsUnknownCard(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})

	if _, err := f.ledger.Penalize(context.Background(), 10, 1, models.CardType("blue")); !errors.Is(err, ErrInvalidCardType) {
		t.Fatalf("expected ErrInvalidCardType, got %v", err)
	}
}

func TestResetScoreZeroesAndRecords(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10, Score: 12})
	ctx := context.Background()

	team, err := f.ledger.ResetScore(ctx, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if team.Score != 0 {
		t.Fatalf("expected score 0 after reset, got %d", team.Score)
	}

	entry := f.history.entries[len(f.history.entries)-1]
	if entry.ChangeType != models.ChangeReset || entry.ChangeAmount != -12 {
		t.Fatalf("unexpected reset entry: %+v", entry)
	}

	// Reset is undoable like any other change.
	teamID := 1
	result, err := f.ledger.UndoLast(ctx, 10, &teamID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Undone || result.Team.Score != 12 {
		t.Fatalf("expected undo back to 12, got %+v", result)
	}
}

func TestLedgerEnforcesOwnership(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 99})

	if _, err := f.ledger.ApplyDelta(context.Background(), 10, 1, 1, nil); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("expected ErrForbiddenOperation, got %v", err)
	}
}

func TestGetHistoryNewestFirstWithLimit(t *testing.T) {
	f := newLedgerFixture(&models.Team{ID: 1, UserID: 10})
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		if _, err := f.ledger.ApplyDelta(ctx, 10, 1, 1, nil); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := f.ledger.GetHistory(ctx, 10, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != defaultHistoryLimit {
		t.Fatalf("expected default limit %d entries, got %d", defaultHistoryLimit, len(entries))
	}
	if entries[0].NewScore != 25 {
		t.Fatalf("expected newest entry first, got %+v", entries[0])
	}
}
