package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/settings"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

type fakeRepository struct {
	slots   map[uuid.UUID]*models.MatchAssignment
	matches map[uuid.UUID]*models.Match
	users   map[uuid.UUID]*models.User
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{
		slots:   map[uuid.UUID]*models.MatchAssignment{},
		matches: map[uuid.UUID]*models.Match{},
		users:   map[uuid.UUID]*models.User{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, assignment *models.MatchAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	f.slots[assignment.ID] = assignment
	return nil
}

func (f *fakeRepository) Save(ctx context.Context, assignment *models.MatchAssignment) error {
	f.slots[assignment.ID] = assignment
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return slot, nil
}

func (f *fakeRepository) FindSlot(ctx context.Context, matchID uuid.UUID, role string, position int) (*models.MatchAssignment, error) {
	for _, slot := range f.slots {
		if slot.MatchID == matchID && string(slot.Role) == role && slot.Position == position &&
			slot.ResponseStatus != enums.ResponseStatusDeclined {
			return slot, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchAssignment, error) {
	var rows []models.MatchAssignment
	for _, slot := range f.slots {
		if slot.MatchID == matchID {
			rows = append(rows, *slot)
		}
	}
	return rows, nil
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]models.MatchAssignment, error) {
	var rows []models.MatchAssignment
	for _, slot := range f.slots {
		if slot.UserID != nil && *slot.UserID == userID {
			rows = append(rows, *slot)
		}
	}
	return rows, nil
}

func (f *fakeRepository) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return match, nil
}

func (f *fakeRepository) SaveMatch(ctx context.Context, match *models.Match) error {
	f.matches[match.ID] = match
	return nil
}

func (f *fakeRepository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeSettings struct {
	snapshot settings.Snapshot
}

func (f *fakeSettings) Snapshot(ctx context.Context) (settings.Snapshot, error) {
	return f.snapshot, nil
}

func (f *fakeSettings) Update(ctx context.Context, actorID uuid.UUID, input settings.UpdateInput) (settings.Snapshot, error) {
	return f.snapshot, nil
}

type fakeDeclarations struct {
	declarations.Service
	ensured  []declarations.EnsurePendingInput
	declined []uuid.UUID
	removed  []uuid.UUID
}

func (f *fakeDeclarations) EnsurePending(ctx context.Context, input declarations.EnsurePendingInput) error {
	f.ensured = append(f.ensured, input)
	return nil
}

func (f *fakeDeclarations) FlagDeclined(ctx context.Context, userID, matchID uuid.UUID) error {
	f.declined = append(f.declined, userID)
	return nil
}

func (f *fakeDeclarations) FlagAssignmentRemoved(ctx context.Context, userID, matchID uuid.UUID) error {
	f.removed = append(f.removed, userID)
	return nil
}

type fakeNotifier struct {
	notifications.Service
	single []notifications.NotifyInput
	bulk   []notifications.NotifyInput
}

func (f *fakeNotifier) Notify(ctx context.Context, input notifications.NotifyInput) error {
	f.single = append(f.single, input)
	return nil
}

func (f *fakeNotifier) NotifyMany(ctx context.Context, userIDs []uuid.UUID, input notifications.NotifyInput) error {
	f.bulk = append(f.bulk, input)
	return nil
}

type fakeCommittee struct{ ids []uuid.UUID }

func (f *fakeCommittee) ListCommittee(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, entry audit.Entry) {}
func (noopAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

type fixture struct {
	repo     *fakeRepository
	decls    *fakeDeclarations
	notifier *fakeNotifier
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T, minCancellationHours int, requireReason bool) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		decls:    &fakeDeclarations{},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(Params{
		Repo:     f.repo,
		Settings: &fakeSettings{snapshot: settings.Snapshot{MinCancellationHours: minCancellationHours, RequireCancellationReason: requireReason}},
		Declarations: f.decls,
		Notify:       f.notifier,
		Committee:    &fakeCommittee{ids: []uuid.UUID{uuid.New()}},
		Audit:        noopAudit{},
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Now:          func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) seedMatch(kickoff time.Time) *models.Match {
	match := &models.Match{ID: uuid.New(), KickoffAt: kickoff, Status: enums.MatchStatusScheduled, VenueID: uuid.New()}
	f.repo.matches[match.ID] = match
	return match
}

func (f *fixture) seedUser() *models.User {
	user := &models.User{ID: uuid.New(), Role: enums.RoleReferee, Email: "ref@example.com"}
	f.repo.users[user.ID] = user
	return user
}

func (f *fixture) seedAssignment(match *models.Match, user *models.User, status enums.ResponseStatus) *models.MatchAssignment {
	userID := user.ID
	slot := &models.MatchAssignment{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Role:            enums.AssignmentRoleReferee,
		UserID:          &userID,
		PlaceholderType: enums.PlaceholderNotNeeded,
		ResponseStatus:  status,
	}
	f.repo.slots[slot.ID] = slot
	return slot
}

func TestAssignCreatesSlotAndDeclaration(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()

	dto, err := f.svc.Assign(context.Background(), uuid.New(), AssignInput{
		MatchID: match.ID,
		UserID:  user.ID,
		Role:    enums.AssignmentRoleReferee,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.UserID == nil || *dto.UserID != user.ID {
		t.Fatal("expected user bound to slot")
	}
	if dto.ResponseStatus != enums.ResponseStatusPending {
		t.Fatalf("expected pending, got %s", dto.ResponseStatus)
	}
	if dto.PlaceholderType != enums.PlaceholderNotNeeded {
		t.Fatalf("expected nincs placeholder, got %s", dto.PlaceholderType)
	}
	if len(f.decls.ensured) != 1 || f.decls.ensured[0].UserID != user.ID {
		t.Fatal("expected pending declaration ensured")
	}
	if len(f.notifier.single) != 1 || f.notifier.single[0].Category != enums.NotificationCategoryAssignments {
		t.Fatal("expected assignee notified")
	}
}

func TestAssignRejectsFilledSlot(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	other := f.seedUser()
	_, err := f.svc.Assign(context.Background(), uuid.New(), AssignInput{
		MatchID: match.ID,
		UserID:  other.ID,
		Role:    enums.AssignmentRoleReferee,
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRespondAccept(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusPending)

	dto, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusAccepted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.ResponseStatus != enums.ResponseStatusAccepted || dto.RespondedAt == nil {
		t.Fatalf("expected accepted with timestamp, got %+v", dto)
	}
	if len(f.notifier.bulk) != 1 {
		t.Fatal("expected committee notified")
	}
}

func TestRespondSecondAttemptRejected(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	_, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusAccepted})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("repeated response must be rejected, got %v", err)
	}
	if len(f.notifier.bulk) != 0 {
		t.Fatal("rejected response must not notify")
	}
	if f.repo.slots[slot.ID].ResponseStatus != enums.ResponseStatusAccepted {
		t.Fatal("slot must keep its original answer")
	}
}

func TestRespondForbiddenForOtherUser(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusPending)

	_, err := f.svc.Respond(context.Background(), uuid.New(), slot.ID, RespondInput{Status: enums.ResponseStatusAccepted})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeclineKeepsUserOnRecordAndOpensReplacement(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusPending)

	reason := "családi okok"
	dto, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{
		Status: enums.ResponseStatusDeclined,
		Reason: &reason,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.UserID == nil || *dto.UserID != user.ID {
		t.Fatal("the user link must stay on record after a decline")
	}
	if dto.ResponseStatus != enums.ResponseStatusDeclined {
		t.Fatalf("expected declined status, got %s", dto.ResponseStatus)
	}
	if dto.PlaceholderType != enums.PlaceholderMissing {
		t.Fatalf("expected hianyzik placeholder, got %s", dto.PlaceholderType)
	}
	if dto.DeclineReason == nil || *dto.DeclineReason != reason {
		t.Fatal("expected decline reason stored")
	}
	if len(f.decls.declined) != 1 || f.decls.declined[0] != user.ID {
		t.Fatal("expected declaration flagged declined")
	}

	replacement := findReplacement(t, f.repo, match.ID, slot.ID)
	if replacement.UserID != nil {
		t.Fatal("replacement slot must be open")
	}
	if replacement.PlaceholderType != enums.PlaceholderMissing || replacement.ResponseStatus != enums.ResponseStatusPending {
		t.Fatalf("replacement slot must be pending and hianyzik, got %+v", replacement)
	}
	if replacement.Role != slot.Role || replacement.Position != slot.Position {
		t.Fatal("replacement slot must cover the same position")
	}
}

func findReplacement(t *testing.T, repo *fakeRepository, matchID, declinedID uuid.UUID) *models.MatchAssignment {
	t.Helper()
	for id, slot := range repo.slots {
		if slot.MatchID == matchID && id != declinedID {
			return slot
		}
	}
	t.Fatal("expected a replacement slot for the declined position")
	return nil
}

func TestDeclineRequiresReasonWhenSettingsDemand(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusPending)

	_, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusDeclined})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeclineAfterAcceptInsideWindowConflicts(t *testing.T) {
	f := newFixture(t, 96, false)
	match := f.seedMatch(f.now.Add(48 * time.Hour)) // inside the 96h window
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	_, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusDeclined})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict inside window, got %v", err)
	}
	if f.repo.slots[slot.ID].UserID == nil {
		t.Fatal("slot must stay bound inside the window")
	}
}

func TestDeclineAfterAcceptOutsideWindowSucceeds(t *testing.T) {
	f := newFixture(t, 96, false)
	match := f.seedMatch(f.now.Add(120 * time.Hour)) // outside the 96h window
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	dto, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusDeclined})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.ResponseStatus != enums.ResponseStatusDeclined || dto.PlaceholderType != enums.PlaceholderMissing {
		t.Fatalf("expected declined row with hianyzik, got %+v", dto)
	}
	if dto.UserID == nil || *dto.UserID != user.ID {
		t.Fatal("the user link must stay on record")
	}
}

func TestRemoveFlagsDeclarationAndNotifiesUser(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	dto, err := f.svc.Remove(context.Background(), uuid.New(), slot.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.UserID != nil || dto.PlaceholderType != enums.PlaceholderMissing {
		t.Fatalf("expected cleared slot with hianyzik, got %+v", dto)
	}
	if len(f.decls.removed) != 1 || f.decls.removed[0] != user.ID {
		t.Fatal("expected declaration flagged assignment_deleted")
	}
	if len(f.notifier.single) != 1 {
		t.Fatal("expected removed user notified")
	}
}

func TestAllConfirmedTruthTable(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))

	// No slots at all: not confirmed.
	ok, err := f.svc.AllConfirmed(context.Background(), match.ID)
	if err != nil || ok {
		t.Fatalf("empty match must not be confirmed (ok=%v err=%v)", ok, err)
	}

	// One accepted referee: confirmed.
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)
	ok, err = f.svc.AllConfirmed(context.Background(), match.ID)
	if err != nil || !ok {
		t.Fatalf("single accepted referee must confirm (ok=%v err=%v)", ok, err)
	}

	// Add an unstaffed needed slot: not confirmed.
	open := &models.MatchAssignment{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Role:            enums.AssignmentRoleReferee,
		Position:        1,
		PlaceholderType: enums.PlaceholderNeeded,
		ResponseStatus:  enums.ResponseStatusPending,
	}
	f.repo.slots[open.ID] = open
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if ok {
		t.Fatal("needed placeholder must block confirmation")
	}

	// Flip the open slot to not-needed: confirmed again.
	open.PlaceholderType = enums.PlaceholderNotNeeded
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if !ok {
		t.Fatal("nincs placeholder counts as satisfied")
	}

	// Pending (not yet accepted) bound referee blocks confirmation.
	slot.ResponseStatus = enums.ResponseStatusPending
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if ok {
		t.Fatal("pending response must block confirmation")
	}

	// Inspector slots never participate.
	slot.ResponseStatus = enums.ResponseStatusAccepted
	inspector := &models.MatchAssignment{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Role:            enums.AssignmentRoleInspector,
		PlaceholderType: enums.PlaceholderNeeded,
		ResponseStatus:  enums.ResponseStatusPending,
	}
	f.repo.slots[inspector.ID] = inspector
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if !ok {
		t.Fatal("inspector slots must not affect confirmation")
	}

	// Neither do reserve referees, even while pending.
	reserveUser := f.seedUser()
	reserveID := reserveUser.ID
	reserve := &models.MatchAssignment{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Role:            enums.AssignmentRoleReserveReferee,
		UserID:          &reserveID,
		PlaceholderType: enums.PlaceholderNotNeeded,
		ResponseStatus:  enums.ResponseStatusPending,
	}
	f.repo.slots[reserve.ID] = reserve
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if !ok {
		t.Fatal("a pending reserve referee must not block confirmation")
	}

	// Declined rows are history, not blockers.
	declinedUser := f.seedUser()
	declinedID := declinedUser.ID
	declined := &models.MatchAssignment{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Role:            enums.AssignmentRoleReferee,
		Position:        2,
		UserID:          &declinedID,
		PlaceholderType: enums.PlaceholderMissing,
		ResponseStatus:  enums.ResponseStatusDeclined,
	}
	f.repo.slots[declined.ID] = declined
	ok, _ = f.svc.AllConfirmed(context.Background(), match.ID)
	if !ok {
		t.Fatal("a declined historical row must not block confirmation")
	}
}

func TestAcceptingLastRefereeConfirmsMatch(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	first := f.seedUser()
	second := f.seedUser()
	firstSlot := f.seedAssignment(match, first, enums.ResponseStatusPending)
	secondSlot := f.seedAssignment(match, second, enums.ResponseStatusPending)
	secondSlot.Position = 1

	if _, err := f.svc.Respond(context.Background(), first.ID, firstSlot.ID, RespondInput{Status: enums.ResponseStatusAccepted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Status != enums.MatchStatusScheduled {
		t.Fatalf("match must stay scheduled while a referee is pending, got %s", match.Status)
	}

	if _, err := f.svc.Respond(context.Background(), second.ID, secondSlot.ID, RespondInput{Status: enums.ResponseStatusAccepted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Status != enums.MatchStatusConfirmed {
		t.Fatalf("match must confirm after the last acceptance, got %s", match.Status)
	}
}

func TestDeclineRevertsConfirmedMatch(t *testing.T) {
	f := newFixture(t, 96, false)
	match := f.seedMatch(f.now.Add(200 * time.Hour)) // outside the window
	match.Status = enums.MatchStatusConfirmed
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	if _, err := f.svc.Respond(context.Background(), user.ID, slot.ID, RespondInput{Status: enums.ResponseStatusDeclined}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Status != enums.MatchStatusScheduled {
		t.Fatalf("match must drop back to scheduled after a decline, got %s", match.Status)
	}
}

func TestRemoveRevertsConfirmedMatch(t *testing.T) {
	f := newFixture(t, 96, true)
	match := f.seedMatch(f.now.Add(200 * time.Hour))
	match.Status = enums.MatchStatusConfirmed
	user := f.seedUser()
	slot := f.seedAssignment(match, user, enums.ResponseStatusAccepted)

	if _, err := f.svc.Remove(context.Background(), uuid.New(), slot.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Status != enums.MatchStatusScheduled {
		t.Fatalf("match must drop back to scheduled after a removal, got %s", match.Status)
	}
}
