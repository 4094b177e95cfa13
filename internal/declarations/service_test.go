package declarations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	dbtypes "github.com/jaradmin/jar-backend/pkg/db/types"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

type fakeRepository struct {
	byID        map[uuid.UUID]*models.TaxDeclaration
	byUserMatch map[string]*models.TaxDeclaration
	facts       *MatchFacts
	venueNames  map[uuid.UUID]string
	saved       []*models.TaxDeclaration
	created     []*models.TaxDeclaration
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{
		byID:        map[uuid.UUID]*models.TaxDeclaration{},
		byUserMatch: map[string]*models.TaxDeclaration{},
		venueNames:  map[uuid.UUID]string{},
	}
}

func umKey(userID, matchID uuid.UUID) string { return userID.String() + "|" + matchID.String() }

func (f *fakeRepository) put(decl *models.TaxDeclaration) {
	if decl.ID == uuid.Nil {
		decl.ID = uuid.New()
	}
	f.byID[decl.ID] = decl
	f.byUserMatch[umKey(decl.UserID, decl.MatchID)] = decl
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, decl *models.TaxDeclaration) error {
	f.put(decl)
	f.created = append(f.created, decl)
	return nil
}

func (f *fakeRepository) Save(ctx context.Context, decl *models.TaxDeclaration) error {
	f.put(decl)
	f.saved = append(f.saved, decl)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.TaxDeclaration, error) {
	decl, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return decl, nil
}

func (f *fakeRepository) FindByUserMatch(ctx context.Context, userID, matchID uuid.UUID) (*models.TaxDeclaration, error) {
	return f.byUserMatch[umKey(userID, matchID)], nil
}

func (f *fakeRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.TaxDeclaration, error) {
	var rows []models.TaxDeclaration
	for _, decl := range f.byID {
		if decl.MatchID == matchID {
			rows = append(rows, *decl)
		}
	}
	return rows, nil
}

func (f *fakeRepository) List(ctx context.Context, params listDeclarationsParams) ([]models.TaxDeclaration, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeRepository) MatchFacts(ctx context.Context, matchID uuid.UUID) (*MatchFacts, error) {
	return f.facts, nil
}

func (f *fakeRepository) VenueName(ctx context.Context, venueID uuid.UUID) (string, error) {
	return f.venueNames[venueID], nil
}

type fakeNotifier struct {
	notifications.Service
	bulk []struct {
		ids   []uuid.UUID
		input notifications.NotifyInput
	}
}

func (f *fakeNotifier) NotifyMany(ctx context.Context, userIDs []uuid.UUID, input notifications.NotifyInput) error {
	f.bulk = append(f.bulk, struct {
		ids   []uuid.UUID
		input notifications.NotifyInput
	}{userIDs, input})
	return nil
}

type fakeDirectory struct {
	ids []uuid.UUID
}

func (f *fakeDirectory) ListAccountants(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, entry audit.Entry) {}
func (noopAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

func newTestService(t *testing.T, repo Repository, notifier notifications.Service, dir AccountantDirectory) Service {
	t.Helper()
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	if dir == nil {
		dir = &fakeDirectory{}
	}
	svc, err := NewService(Params{
		Repo:        repo,
		Notify:      notifier,
		Accountants: dir,
		Audit:       noopAudit{},
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func liveFacts(venueID uuid.UUID) *MatchFacts {
	return &MatchFacts{
		Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Kickoff:   "18:00",
		VenueID:   venueID,
		VenueName: "Városi Stadion",
		Referees:  []string{"Bíró János"},
	}
}

func TestMarkDeclaredSnapshotsLiveFacts(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	decl := &models.TaxDeclaration{
		UserID:      uuid.New(),
		MatchID:     uuid.New(),
		Status:      enums.DeclarationStatusPending,
		BillingType: enums.BillingTypeEKHO,
	}
	repo.put(decl)

	svc := newTestService(t, repo, nil, nil)
	dto, err := svc.MarkDeclared(context.Background(), uuid.New(), decl.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != enums.DeclarationStatusDeclared {
		t.Fatalf("expected declared, got %s", dto.Status)
	}
	if decl.DeclaredTime == nil || *decl.DeclaredTime != "18:00" {
		t.Fatalf("expected kickoff snapshot, got %v", decl.DeclaredTime)
	}
	if decl.DeclaredVenueID == nil || *decl.DeclaredVenueID != venueID {
		t.Fatal("expected venue snapshot")
	}
	if len(decl.DeclaredReferees) != 1 || decl.DeclaredReferees[0] != "Bíró János" {
		t.Fatalf("expected referee snapshot, got %v", decl.DeclaredReferees)
	}
	if dto.EKHODeadline == nil || !dto.EKHODeadline.Equal(time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected EKHO deadline April 7, got %v", dto.EKHODeadline)
	}
}

func TestMarkDeclaredIdempotent(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	decl := &models.TaxDeclaration{
		UserID:      uuid.New(),
		MatchID:     uuid.New(),
		Status:      enums.DeclarationStatusDeclared,
		BillingType: enums.BillingTypeEFO,
	}
	repo.put(decl)

	svc := newTestService(t, repo, nil, nil)
	if _, err := svc.MarkDeclared(context.Background(), uuid.New(), decl.ID); err != nil {
		t.Fatalf("re-declaring a declared row must be a no-op: %v", err)
	}
	if len(repo.saved) != 0 {
		t.Fatal("no save expected for idempotent declare")
	}
}

func TestReconcileFlipsDeclaredToModifiedAndNotifiesOnce(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	matchID := uuid.New()
	oldDate := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	kickoff := "18:00"
	decl := &models.TaxDeclaration{
		UserID:           uuid.New(),
		MatchID:          matchID,
		Status:           enums.DeclarationStatusDeclared,
		BillingType:      enums.BillingTypeEFO,
		DeclaredDate:     &oldDate,
		DeclaredTime:     &kickoff,
		DeclaredVenueID:  &venueID,
		DeclaredReferees: dbtypes.StringList{"Bíró János"},
	}
	repo.put(decl)

	accountant := uuid.New()
	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, notifier, &fakeDirectory{ids: []uuid.UUID{accountant}})

	if err := svc.Reconcile(context.Background(), matchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.byID[decl.ID].Status != enums.DeclarationStatusModified {
		t.Fatalf("expected modified, got %s", repo.byID[decl.ID].Status)
	}
	if len(notifier.bulk) != 1 {
		t.Fatalf("expected one fan-out, got %d", len(notifier.bulk))
	}
	if notifier.bulk[0].input.Category != enums.NotificationCategoryTaxDeclarations {
		t.Fatalf("unexpected category %s", notifier.bulk[0].input.Category)
	}

	// Second reconcile: already modified, no new notification.
	if err := svc.Reconcile(context.Background(), matchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.bulk) != 1 {
		t.Fatalf("drift must notify once per transition, got %d fan-outs", len(notifier.bulk))
	}
}

func TestReconcileLeavesPendingAlone(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	matchID := uuid.New()
	decl := &models.TaxDeclaration{
		UserID:      uuid.New(),
		MatchID:     matchID,
		Status:      enums.DeclarationStatusPending,
		BillingType: enums.BillingTypeEFO,
	}
	repo.put(decl)

	svc := newTestService(t, repo, nil, nil)
	if err := svc.Reconcile(context.Background(), matchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.byID[decl.ID].Status != enums.DeclarationStatusPending {
		t.Fatalf("pending declarations must not drift, got %s", repo.byID[decl.ID].Status)
	}
}

func TestEnsurePendingCreatesRow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, nil, nil)

	input := EnsurePendingInput{
		UserID:       uuid.New(),
		MatchID:      uuid.New(),
		AssignmentID: uuid.New(),
		BillingType:  enums.BillingTypeEFO,
	}
	if err := svc.EnsurePending(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created declaration, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Status != enums.DeclarationStatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if created.AssignmentID == nil || *created.AssignmentID != input.AssignmentID {
		t.Fatal("expected assignment link")
	}
}

func TestEnsurePendingRelinksOrphanAndReverts(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	userID := uuid.New()
	matchID := uuid.New()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	kickoff := "18:00"
	orphan := &models.TaxDeclaration{
		UserID:            userID,
		MatchID:           matchID,
		Status:            enums.DeclarationStatusModified,
		BillingType:       enums.BillingTypeEFO,
		DeclaredDate:      &date,
		DeclaredTime:      &kickoff,
		DeclaredVenueID:   &venueID,
		DeclaredReferees:  dbtypes.StringList{"Bíró János"},
		AssignmentDeleted: true,
	}
	repo.put(orphan)

	svc := newTestService(t, repo, nil, nil)
	newAssignment := uuid.New()
	err := svc.EnsurePending(context.Background(), EnsurePendingInput{
		UserID:       userID,
		MatchID:      matchID,
		AssignmentID: newAssignment,
		BillingType:  enums.BillingTypeEFO,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	relinked := repo.byUserMatch[umKey(userID, matchID)]
	if relinked.AssignmentID == nil || *relinked.AssignmentID != newAssignment {
		t.Fatal("expected orphan re-linked to new assignment")
	}
	if relinked.AssignmentDeleted {
		t.Fatal("removal flag must clear on re-link")
	}
	if relinked.Status != enums.DeclarationStatusDeclared {
		t.Fatalf("removal-only drift must revert to declared, got %s", relinked.Status)
	}
}

func TestEnsurePendingRelinkKeepsModifiedWhenOtherDrift(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	userID := uuid.New()
	matchID := uuid.New()
	date := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC) // differs from live facts
	kickoff := "18:00"
	orphan := &models.TaxDeclaration{
		UserID:            userID,
		MatchID:           matchID,
		Status:            enums.DeclarationStatusModified,
		BillingType:       enums.BillingTypeEFO,
		DeclaredDate:      &date,
		DeclaredTime:      &kickoff,
		DeclaredVenueID:   &venueID,
		DeclaredReferees:  dbtypes.StringList{"Bíró János"},
		AssignmentDeleted: true,
	}
	repo.put(orphan)

	svc := newTestService(t, repo, nil, nil)
	err := svc.EnsurePending(context.Background(), EnsurePendingInput{
		UserID:       userID,
		MatchID:      matchID,
		AssignmentID: uuid.New(),
		BillingType:  enums.BillingTypeEFO,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.byUserMatch[umKey(userID, matchID)].Status != enums.DeclarationStatusModified {
		t.Fatal("date drift must keep the declaration modified")
	}
}

func TestFlagDeclinedNotifiesWhenDeclared(t *testing.T) {
	repo := newFakeRepo()
	venueID := uuid.New()
	repo.facts = liveFacts(venueID)

	userID := uuid.New()
	matchID := uuid.New()
	assignmentID := uuid.New()
	decl := &models.TaxDeclaration{
		UserID:       userID,
		MatchID:      matchID,
		AssignmentID: &assignmentID,
		Status:       enums.DeclarationStatusDeclared,
		BillingType:  enums.BillingTypeEFO,
	}
	repo.put(decl)

	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, notifier, &fakeDirectory{ids: []uuid.UUID{uuid.New()}})

	if err := svc.FlagDeclined(context.Background(), userID, matchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := repo.byUserMatch[umKey(userID, matchID)]
	if !updated.Declined || updated.Status != enums.DeclarationStatusModified {
		t.Fatalf("expected declined+modified, got %+v", updated)
	}
	if updated.AssignmentID != nil {
		t.Fatal("decline must detach the assignment")
	}
	if len(notifier.bulk) != 1 {
		t.Fatalf("expected accountant notification, got %d", len(notifier.bulk))
	}
	if notifier.bulk[0].input.Message != "A játékvezető lemondta a mérkőzést" {
		t.Fatalf("unexpected message %q", notifier.bulk[0].input.Message)
	}
}

func TestFlagAssignmentRemovedOnPendingStaysQuiet(t *testing.T) {
	repo := newFakeRepo()
	userID := uuid.New()
	matchID := uuid.New()
	assignmentID := uuid.New()
	decl := &models.TaxDeclaration{
		UserID:       userID,
		MatchID:      matchID,
		AssignmentID: &assignmentID,
		Status:       enums.DeclarationStatusPending,
		BillingType:  enums.BillingTypeEFO,
	}
	repo.put(decl)

	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, notifier, &fakeDirectory{ids: []uuid.UUID{uuid.New()}})

	if err := svc.FlagAssignmentRemoved(context.Background(), userID, matchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := repo.byUserMatch[umKey(userID, matchID)]
	if !updated.AssignmentDeleted || updated.Status != enums.DeclarationStatusPending {
		t.Fatalf("pending declaration keeps status, got %+v", updated)
	}
	if len(notifier.bulk) != 0 {
		t.Fatal("pending declarations do not alert accountants")
	}
}

func TestMarkDeclaredNotFound(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil, nil)
	_, err := svc.MarkDeclared(context.Background(), uuid.New(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
