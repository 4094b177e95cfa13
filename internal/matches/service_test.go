package matches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/assignments"
	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

type fakeRepository struct {
	matches      map[uuid.UUID]*models.Match
	applications map[uuid.UUID]*models.MatchApplication
	feedback     []models.MatchFeedback
	assignedIDs  []uuid.UUID

	createApplicationErr error
	createFeedbackErr    error
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{
		matches:      map[uuid.UUID]*models.Match{},
		applications: map[uuid.UUID]*models.MatchApplication{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, match *models.Match) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	f.matches[match.ID] = match
	return nil
}

func (f *fakeRepository) Save(ctx context.Context, match *models.Match) error {
	f.matches[match.ID] = match
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return match, nil
}

func (f *fakeRepository) List(ctx context.Context, params listMatchesParams) ([]models.Match, *pagination.Cursor, error) {
	var rows []models.Match
	for _, match := range f.matches {
		if params.Status != nil && match.Status != *params.Status {
			continue
		}
		rows = append(rows, *match)
	}
	return rows, nil, nil
}

func (f *fakeRepository) ListByAssignee(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Match, error) {
	return nil, nil
}

func (f *fakeRepository) AssignedUserIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error) {
	return f.assignedIDs, nil
}

func (f *fakeRepository) ListWithOpenSlotsOn(ctx context.Context, day time.Time) ([]models.Match, error) {
	return nil, nil
}

func (f *fakeRepository) CreateApplication(ctx context.Context, app *models.MatchApplication) error {
	if f.createApplicationErr != nil {
		return f.createApplicationErr
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	f.applications[app.ID] = app
	return nil
}

func (f *fakeRepository) SaveApplication(ctx context.Context, app *models.MatchApplication) error {
	f.applications[app.ID] = app
	return nil
}

func (f *fakeRepository) FindApplication(ctx context.Context, id uuid.UUID) (*models.MatchApplication, error) {
	app, ok := f.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func (f *fakeRepository) ListApplications(ctx context.Context, matchID uuid.UUID) ([]models.MatchApplication, error) {
	var rows []models.MatchApplication
	for _, app := range f.applications {
		if app.MatchID == matchID {
			rows = append(rows, *app)
		}
	}
	return rows, nil
}

func (f *fakeRepository) CreateFeedback(ctx context.Context, feedback *models.MatchFeedback) error {
	if f.createFeedbackErr != nil {
		return f.createFeedbackErr
	}
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	f.feedback = append(f.feedback, *feedback)
	return nil
}

func (f *fakeRepository) ListFeedback(ctx context.Context, matchID uuid.UUID) ([]models.MatchFeedback, error) {
	return f.feedback, nil
}

type fakeAssignments struct {
	assignments.Service
	allConfirmed bool
	assigned     []assignments.AssignInput
	assignErr    error
}

func (f *fakeAssignments) AllConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error) {
	return f.allConfirmed, nil
}

func (f *fakeAssignments) Assign(ctx context.Context, actorID uuid.UUID, input assignments.AssignInput) (*assignments.AssignmentDTO, error) {
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	f.assigned = append(f.assigned, input)
	return &assignments.AssignmentDTO{ID: uuid.New(), MatchID: input.MatchID}, nil
}

type fakeDeclarations struct {
	declarations.Service
	reconciled []uuid.UUID
}

func (f *fakeDeclarations) Reconcile(ctx context.Context, matchID uuid.UUID) error {
	f.reconciled = append(f.reconciled, matchID)
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

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, entry audit.Entry) {}
func (noopAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

type fixture struct {
	repo     *fakeRepository
	assigner *fakeAssignments
	decls    *fakeDeclarations
	notifier *fakeNotifier
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		assigner: &fakeAssignments{allConfirmed: true},
		decls:    &fakeDeclarations{},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(Params{
		Repo:         f.repo,
		Assignments:  f.assigner,
		Declarations: f.decls,
		Notify:       f.notifier,
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

func (f *fixture) seedMatch(status enums.MatchStatus) *models.Match {
	match := &models.Match{
		ID:            uuid.New(),
		CompetitionID: uuid.New(),
		SeasonID:      uuid.New(),
		HomeTeamID:    uuid.New(),
		AwayTeamID:    uuid.New(),
		VenueID:       uuid.New(),
		KickoffAt:     f.now.Add(7 * 24 * time.Hour),
		Status:        status,
	}
	f.repo.matches[match.ID] = match
	return match
}

func TestCreateStartsInDraft(t *testing.T) {
	f := newFixture(t)
	dto, err := f.svc.Create(context.Background(), uuid.New(), CreateMatchInput{
		CompetitionID: uuid.New(),
		SeasonID:      uuid.New(),
		HomeTeamID:    uuid.New(),
		AwayTeamID:    uuid.New(),
		VenueID:       uuid.New(),
		KickoffAt:     f.now.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != enums.MatchStatusDraft {
		t.Fatalf("expected draft, got %s", dto.Status)
	}
}

func TestCreateRejectsSameTeams(t *testing.T) {
	f := newFixture(t)
	team := uuid.New()
	_, err := f.svc.Create(context.Background(), uuid.New(), CreateMatchInput{
		CompetitionID: uuid.New(),
		SeasonID:      uuid.New(),
		HomeTeamID:    team,
		AwayTeamID:    team,
		VenueID:       uuid.New(),
		KickoffAt:     f.now.Add(48 * time.Hour),
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusDraft)

	_, err := f.svc.Transition(context.Background(), uuid.New(), match.ID, enums.MatchStatusConfirmed)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransitionConfirmRequiresEveryAssignmentAccepted(t *testing.T) {
	f := newFixture(t)
	f.assigner.allConfirmed = false
	match := f.seedMatch(enums.MatchStatusScheduled)

	_, err := f.svc.Transition(context.Background(), uuid.New(), match.ID, enums.MatchStatusConfirmed)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	f.assigner.allConfirmed = true
	dto, err := f.svc.Transition(context.Background(), uuid.New(), match.ID, enums.MatchStatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != enums.MatchStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", dto.Status)
	}
}

func TestTransitionPostponeFansOutAndReconciles(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	f.repo.assignedIDs = []uuid.UUID{uuid.New(), uuid.New()}

	_, err := f.svc.Transition(context.Background(), uuid.New(), match.ID, enums.MatchStatusPostponed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.bulk) != 1 || f.notifier.bulk[0].Category != enums.NotificationCategoryMatchChanges {
		t.Fatalf("expected match_changes fan-out, got %+v", f.notifier.bulk)
	}
	if len(f.decls.reconciled) != 1 || f.decls.reconciled[0] != match.ID {
		t.Fatal("expected declarations reconciled")
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)

	dto, err := f.svc.Transition(context.Background(), uuid.New(), match.ID, enums.MatchStatusScheduled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != enums.MatchStatusScheduled {
		t.Fatalf("unexpected status %s", dto.Status)
	}
	if len(f.notifier.bulk) != 0 || len(f.decls.reconciled) != 0 {
		t.Fatal("no-op transition must not fan out")
	}
}

func TestUpdateRescheduleNotifiesAndReconciles(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	f.repo.assignedIDs = []uuid.UUID{uuid.New()}

	kickoff := match.KickoffAt.Add(24 * time.Hour)
	_, err := f.svc.Update(context.Background(), uuid.New(), match.ID, UpdateMatchInput{KickoffAt: &kickoff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.bulk) != 1 {
		t.Fatal("expected assigned users notified about reschedule")
	}
	if len(f.decls.reconciled) != 1 {
		t.Fatal("expected declarations reconciled after reschedule")
	}
}

func TestUpdateWithoutScheduleChangeStaysQuiet(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	f.repo.assignedIDs = []uuid.UUID{uuid.New()}

	round := 5
	_, err := f.svc.Update(context.Background(), uuid.New(), match.ID, UpdateMatchInput{Round: &round})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.notifier.bulk) != 0 || len(f.decls.reconciled) != 0 {
		t.Fatal("round change must not fan out")
	}
}

func TestApplyRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	f.repo.createApplicationErr = errors.New(`duplicate key value violates unique constraint "idx_application_user_match"`)

	_, err := f.svc.Apply(context.Background(), uuid.New(), match.ID, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyRejectsPastKickoff(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	match.KickoffAt = f.now.Add(-time.Hour)

	_, err := f.svc.Apply(context.Background(), uuid.New(), match.ID, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApproveApplicationCreatesAssignmentAndNotifies(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	applicant := uuid.New()

	app, err := f.svc.Apply(context.Background(), applicant, match.ID, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decided, err := f.svc.ApproveApplication(context.Background(), uuid.New(), app.ID, enums.AssignmentRoleReferee, 0)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != enums.ApplicationStatusApproved || decided.DecidedAt == nil {
		t.Fatalf("expected approved with timestamp, got %+v", decided)
	}
	if len(f.assigner.assigned) != 1 || f.assigner.assigned[0].UserID != applicant {
		t.Fatal("expected assignment created for applicant")
	}
	if len(f.notifier.single) != 1 || f.notifier.single[0].Title != "Jelentkezés elfogadva" {
		t.Fatalf("expected applicant notified, got %+v", f.notifier.single)
	}
}

func TestApproveApplicationAlreadyDecided(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusScheduled)
	applicant := uuid.New()

	app, err := f.svc.Apply(context.Background(), applicant, match.ID, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.RejectApplication(context.Background(), uuid.New(), app.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err = f.svc.ApproveApplication(context.Background(), uuid.New(), app.ID, enums.AssignmentRoleReferee, 0)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitFeedbackOncePerMatch(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusConfirmed)
	inspector := uuid.New()

	_, err := f.svc.SubmitFeedback(context.Background(), inspector, match.ID, SubmitFeedbackInput{
		RefereeScore:   8,
		OrganizerScore: 7,
		Comments:       "rendben",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.repo.createFeedbackErr = errors.New(`duplicate key value violates unique constraint "idx_feedback_match_inspector"`)
	_, err = f.svc.SubmitFeedback(context.Background(), inspector, match.ID, SubmitFeedbackInput{
		RefereeScore:   8,
		OrganizerScore: 7,
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on second submit, got %v", err)
	}
}

func TestSubmitFeedbackValidatesScores(t *testing.T) {
	f := newFixture(t)
	match := f.seedMatch(enums.MatchStatusConfirmed)

	_, err := f.svc.SubmitFeedback(context.Background(), uuid.New(), match.ID, SubmitFeedbackInput{
		RefereeScore:   11,
		OrganizerScore: 5,
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
