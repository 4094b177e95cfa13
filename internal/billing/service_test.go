package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

type fakeRepository struct {
	structures  map[uuid.UUID]*models.FeeStructure
	fees        map[uuid.UUID]*models.MatchFee
	travel      map[uuid.UUID]*models.TravelCost
	statements  map[uuid.UUID]*models.MonthlyStatement
	lines       map[uuid.UUID][]models.StatementLine
	assignments map[uuid.UUID]*models.MatchAssignment
	matches     map[uuid.UUID]*models.Match
	users       map[uuid.UUID]*models.User

	monthFees   []models.MatchFee
	monthTravel []models.TravelCost
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{
		structures:  map[uuid.UUID]*models.FeeStructure{},
		fees:        map[uuid.UUID]*models.MatchFee{},
		travel:      map[uuid.UUID]*models.TravelCost{},
		statements:  map[uuid.UUID]*models.MonthlyStatement{},
		lines:       map[uuid.UUID][]models.StatementLine{},
		assignments: map[uuid.UUID]*models.MatchAssignment{},
		matches:     map[uuid.UUID]*models.Match{},
		users:       map[uuid.UUID]*models.User{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) SaveFeeStructure(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == uuid.Nil {
		structure.ID = uuid.New()
	}
	f.structures[structure.CompetitionID] = structure
	return nil
}

func (f *fakeRepository) FindFeeStructureByCompetition(ctx context.Context, competitionID uuid.UUID) (*models.FeeStructure, error) {
	structure, ok := f.structures[competitionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return structure, nil
}

func (f *fakeRepository) ListFeeStructures(ctx context.Context) ([]models.FeeStructure, error) {
	var rows []models.FeeStructure
	for _, s := range f.structures {
		rows = append(rows, *s)
	}
	return rows, nil
}

func (f *fakeRepository) DeleteFeeStructure(ctx context.Context, structure *models.FeeStructure) error {
	delete(f.structures, structure.CompetitionID)
	return nil
}

func (f *fakeRepository) CreateFee(ctx context.Context, fee *models.MatchFee) error {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	f.fees[fee.AssignmentID] = fee
	return nil
}

func (f *fakeRepository) FindFeeByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.MatchFee, error) {
	return f.fees[assignmentID], nil
}

func (f *fakeRepository) ListFeesForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MatchFee, error) {
	return f.monthFees, nil
}

func (f *fakeRepository) CreateTravelCost(ctx context.Context, cost *models.TravelCost) error {
	if cost.ID == uuid.Nil {
		cost.ID = uuid.New()
	}
	f.travel[cost.ID] = cost
	return nil
}

func (f *fakeRepository) SaveTravelCost(ctx context.Context, cost *models.TravelCost) error {
	f.travel[cost.ID] = cost
	return nil
}

func (f *fakeRepository) FindTravelCost(ctx context.Context, id uuid.UUID) (*models.TravelCost, error) {
	cost, ok := f.travel[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cost, nil
}

func (f *fakeRepository) ListTravelCosts(ctx context.Context, userID *uuid.UUID, status *enums.TravelCostStatus) ([]models.TravelCost, error) {
	var rows []models.TravelCost
	for _, c := range f.travel {
		rows = append(rows, *c)
	}
	return rows, nil
}

func (f *fakeRepository) ListApprovedTravelForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TravelCost, error) {
	return f.monthTravel, nil
}

func (f *fakeRepository) FindStatement(ctx context.Context, userID uuid.UUID, year, month int) (*models.MonthlyStatement, error) {
	for _, s := range f.statements {
		if s.UserID == userID && s.Year == year && s.Month == month {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) CreateStatement(ctx context.Context, statement *models.MonthlyStatement) error {
	if statement.ID == uuid.Nil {
		statement.ID = uuid.New()
	}
	f.statements[statement.ID] = statement
	return nil
}

func (f *fakeRepository) SaveStatement(ctx context.Context, statement *models.MonthlyStatement) error {
	f.statements[statement.ID] = statement
	return nil
}

func (f *fakeRepository) ReplaceLines(ctx context.Context, statementID uuid.UUID, lines []models.StatementLine) error {
	f.lines[statementID] = lines
	return nil
}

func (f *fakeRepository) ListLines(ctx context.Context, statementID uuid.UUID) ([]models.StatementLine, error) {
	return f.lines[statementID], nil
}

func (f *fakeRepository) ListStatements(ctx context.Context, userID *uuid.UUID, year *int) ([]models.MonthlyStatement, error) {
	var rows []models.MonthlyStatement
	for _, s := range f.statements {
		rows = append(rows, *s)
	}
	return rows, nil
}

func (f *fakeRepository) GetAssignment(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeRepository) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return match, nil
}

func (f *fakeRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeNotifier struct {
	notifications.Service
	sent []notifications.NotifyInput
}

func (f *fakeNotifier) Notify(ctx context.Context, input notifications.NotifyInput) error {
	f.sent = append(f.sent, input)
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, entry audit.Entry) {}
func (noopAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

type fixture struct {
	repo     *fakeRepository
	notifier *fakeNotifier
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: newFakeRepo(), notifier: &fakeNotifier{}}
	svc, err := NewService(Params{
		Repo:   f.repo,
		Notify: f.notifier,
		Audit:  noopAudit{},
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func (f *fixture) seedAssignment(role enums.AssignmentRole, billing *enums.BillingType, override *decimal.Decimal) *models.MatchAssignment {
	user := &models.User{ID: uuid.New(), BillingType: billing}
	f.repo.users[user.ID] = user

	competitionID := uuid.New()
	f.repo.structures[competitionID] = &models.FeeStructure{
		ID:            uuid.New(),
		CompetitionID: competitionID,
		RefereeFee:    dec("15000"),
		ReserveFee:    dec("9000"),
		InspectorFee:  dec("12000"),
	}

	match := &models.Match{
		ID:                 uuid.New(),
		CompetitionID:      competitionID,
		KickoffAt:          time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC),
		RefereeFeeOverride: override,
	}
	f.repo.matches[match.ID] = match

	userID := user.ID
	assignment := &models.MatchAssignment{
		ID:      uuid.New(),
		MatchID: match.ID,
		Role:    role,
		UserID:  &userID,
	}
	f.repo.assignments[assignment.ID] = assignment
	return assignment
}

func TestComputeMatchFeeEFO(t *testing.T) {
	f := newFixture(t)
	assignment := f.seedAssignment(enums.AssignmentRoleReferee, nil, nil)

	fee, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.BillingType != enums.BillingTypeEFO {
		t.Fatalf("expected default EFO, got %s", fee.BillingType)
	}
	if !fee.NetAmount.Equal(dec("15000")) || !fee.GrossAmount.Equal(dec("15000")) {
		t.Fatalf("EFO gross must equal net, got net=%s gross=%s", fee.NetAmount, fee.GrossAmount)
	}
}

func TestComputeMatchFeeEKHOGrossUp(t *testing.T) {
	f := newFixture(t)
	ekho := enums.BillingTypeEKHO
	assignment := f.seedAssignment(enums.AssignmentRoleReferee, &ekho, nil)

	fee, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 15000 / 0.85 = 17647.05... -> 17647 whole forints.
	if !fee.GrossAmount.Equal(dec("17647")) {
		t.Fatalf("expected gross 17647, got %s", fee.GrossAmount)
	}
}

func TestComputeMatchFeeOverrideWins(t *testing.T) {
	f := newFixture(t)
	override := dec("20000")
	assignment := f.seedAssignment(enums.AssignmentRoleReferee, nil, &override)

	fee, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fee.NetAmount.Equal(override) {
		t.Fatalf("expected override amount, got %s", fee.NetAmount)
	}
}

func TestComputeMatchFeeRoleAware(t *testing.T) {
	f := newFixture(t)
	assignment := f.seedAssignment(enums.AssignmentRoleInspector, nil, nil)

	fee, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fee.NetAmount.Equal(dec("12000")) {
		t.Fatalf("expected inspector fee, got %s", fee.NetAmount)
	}
}

func TestComputeMatchFeeIdempotent(t *testing.T) {
	f := newFixture(t)
	assignment := f.seedAssignment(enums.AssignmentRoleReferee, nil, nil)

	first, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := f.svc.ComputeMatchFee(context.Background(), assignment.ID)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("second compute must return the stored fee")
	}
}

func TestSubmitTravelCostComputesAmount(t *testing.T) {
	f := newFixture(t)
	match := &models.Match{ID: uuid.New()}
	f.repo.matches[match.ID] = match

	cost, err := f.svc.SubmitTravelCost(context.Background(), uuid.New(), SubmitTravelCostInput{
		MatchID:    match.ID,
		DistanceKM: dec("120.5"),
		RatePerKM:  dec("45"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cost.Amount.Equal(dec("5422.5")) {
		t.Fatalf("expected 5422.5, got %s", cost.Amount)
	}
	if cost.Status != enums.TravelCostStatusSubmitted {
		t.Fatalf("expected submitted, got %s", cost.Status)
	}
}

func TestReviewTravelCostApproveNotifies(t *testing.T) {
	f := newFixture(t)
	claimant := uuid.New()
	cost := &models.TravelCost{
		ID:     uuid.New(),
		UserID: claimant,
		Amount: dec("5000"),
		Status: enums.TravelCostStatusSubmitted,
	}
	f.repo.travel[cost.ID] = cost

	dto, err := f.svc.ReviewTravelCost(context.Background(), uuid.New(), cost.ID, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != enums.TravelCostStatusApproved || dto.ReviewedAt == nil {
		t.Fatalf("expected approved with timestamp, got %+v", dto)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != claimant {
		t.Fatal("expected claimant notified")
	}
	if f.notifier.sent[0].Category != enums.NotificationCategoryBilling {
		t.Fatalf("expected billing category, got %s", f.notifier.sent[0].Category)
	}
}

func TestReviewTravelCostTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	cost := &models.TravelCost{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: dec("5000"),
		Status: enums.TravelCostStatusSubmitted,
	}
	f.repo.travel[cost.ID] = cost

	if _, err := f.svc.ReviewTravelCost(context.Background(), uuid.New(), cost.ID, false, nil); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := f.svc.ReviewTravelCost(context.Background(), uuid.New(), cost.ID, true, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestBuildStatementTotalsFeesAndTravel(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.repo.monthFees = []models.MatchFee{
		{ID: uuid.New(), MatchID: uuid.New(), UserID: userID, BillingType: enums.BillingTypeEFO, GrossAmount: dec("15000")},
		{ID: uuid.New(), MatchID: uuid.New(), UserID: userID, BillingType: enums.BillingTypeEKHO, GrossAmount: dec("17647")},
	}
	f.repo.monthTravel = []models.TravelCost{
		{ID: uuid.New(), MatchID: uuid.New(), UserID: userID, DistanceKM: dec("100"), Amount: dec("4500")},
	}

	statement, err := f.svc.BuildStatement(context.Background(), uuid.New(), userID, 2026, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !statement.Total.Equal(dec("37147")) {
		t.Fatalf("expected total 37147, got %s", statement.Total)
	}
	if len(statement.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(statement.Lines))
	}
}

func TestBuildStatementRefusesFinalized(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	if _, err := f.svc.BuildStatement(context.Background(), uuid.New(), userID, 2026, 3); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := f.svc.FinalizeStatement(context.Background(), uuid.New(), userID, 2026, 3); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	_, err := f.svc.BuildStatement(context.Background(), uuid.New(), userID, 2026, 3)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestFinalizeStatementNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	if _, err := f.svc.BuildStatement(context.Background(), uuid.New(), userID, 2026, 3); err != nil {
		t.Fatalf("build: %v", err)
	}

	statement, err := f.svc.FinalizeStatement(context.Background(), uuid.New(), userID, 2026, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if statement.Status != enums.StatementStatusFinal || statement.FinalizedAt == nil {
		t.Fatalf("expected finalized, got %+v", statement)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].UserID != userID {
		t.Fatal("expected owner notified")
	}
}

func TestGrossAmountRounding(t *testing.T) {
	cases := []struct {
		net   string
		gross string
	}{
		{"15000", "17647"},
		{"9000", "10588"},
		{"85", "100"},
	}
	for _, tc := range cases {
		got := GrossAmount(dec(tc.net), enums.BillingTypeEKHO)
		if !got.Equal(dec(tc.gross)) {
			t.Errorf("net %s: expected gross %s, got %s", tc.net, tc.gross, got)
		}
	}
}
