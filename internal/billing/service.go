package billing

import (
	"context"
	"errors"
	"fmt"
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

// ekhoNetRatio is the net share of an EKHO gross amount; gross = net / 0.85.
var ekhoNetRatio = decimal.RequireFromString("0.85")

// Service owns fee structures, per-assignment fees, travel claims and monthly
// statements.
type Service interface {
	UpsertFeeStructure(ctx context.Context, actorID uuid.UUID, input FeeStructureInput) (*models.FeeStructure, error)
	ListFeeStructures(ctx context.Context) ([]models.FeeStructure, error)
	DeleteFeeStructure(ctx context.Context, actorID, competitionID uuid.UUID) error

	ComputeMatchFee(ctx context.Context, assignmentID uuid.UUID) (*MatchFeeDTO, error)

	SubmitTravelCost(ctx context.Context, actorID uuid.UUID, input SubmitTravelCostInput) (*TravelCostDTO, error)
	ReviewTravelCost(ctx context.Context, reviewerID, costID uuid.UUID, approve bool, note *string) (*TravelCostDTO, error)
	ListTravelCosts(ctx context.Context, userID *uuid.UUID, status *enums.TravelCostStatus) ([]TravelCostDTO, error)

	BuildStatement(ctx context.Context, actorID, userID uuid.UUID, year, month int) (*StatementDTO, error)
	FinalizeStatement(ctx context.Context, actorID, userID uuid.UUID, year, month int) (*StatementDTO, error)
	GetStatement(ctx context.Context, userID uuid.UUID, year, month int) (*StatementDTO, error)
	ListStatements(ctx context.Context, userID *uuid.UUID, year *int) ([]StatementDTO, error)
}

type service struct {
	repo   Repository
	notify notifications.Service
	audit  audit.Service
	logg   *logger.Logger
}

type Params struct {
	Repo   Repository
	Notify notifications.Service
	Audit  audit.Service
	Logger *logger.Logger
}

// NewService wires billing dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billing repository required")
	}
	if p.Notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification service required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: p.Repo, notify: p.Notify, audit: p.Audit, logg: p.Logger}, nil
}

// UpsertFeeStructure creates or replaces the amounts for a competition.
func (s *service) UpsertFeeStructure(ctx context.Context, actorID uuid.UUID, input FeeStructureInput) (*models.FeeStructure, error) {
	if input.CompetitionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "competition id required")
	}
	if input.RefereeFee.IsNegative() || input.ReserveFee.IsNegative() || input.InspectorFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}

	structure, err := s.repo.FindFeeStructureByCompetition(ctx, input.CompetitionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee structure")
		}
		structure = &models.FeeStructure{CompetitionID: input.CompetitionID}
	}
	structure.RefereeFee = input.RefereeFee
	structure.ReserveFee = input.ReserveFee
	structure.InspectorFee = input.InspectorFee
	if err := s.repo.SaveFeeStructure(ctx, structure); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save fee structure")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "fee_structure.upsert",
		EntityType: "fee_structure",
		EntityID:   &structure.ID,
		Summary:    fmt.Sprintf("competition %s", input.CompetitionID),
	})
	return structure, nil
}

func (s *service) ListFeeStructures(ctx context.Context) ([]models.FeeStructure, error) {
	rows, err := s.repo.ListFeeStructures(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fee structures")
	}
	return rows, nil
}

func (s *service) DeleteFeeStructure(ctx context.Context, actorID, competitionID uuid.UUID) error {
	structure, err := s.repo.FindFeeStructureByCompetition(ctx, competitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "fee structure not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee structure")
	}
	if err := s.repo.DeleteFeeStructure(ctx, structure); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete fee structure")
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "fee_structure.delete",
		EntityType: "fee_structure",
		EntityID:   &structure.ID,
	})
	return nil
}

// ComputeMatchFee resolves the payout for one assignment. The amount comes
// from the competition's fee structure by role; a match-level referee override
// wins. Computing twice returns the stored fee.
func (s *service) ComputeMatchFee(ctx context.Context, assignmentID uuid.UUID) (*MatchFeeDTO, error) {
	existing, err := s.repo.FindFeeByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee")
	}
	if existing != nil {
		return feeFromModel(existing), nil
	}

	assignment, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment")
	}
	if assignment.UserID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment has no user")
	}

	match, err := s.repo.GetMatch(ctx, assignment.MatchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
	}
	structure, err := s.repo.FindFeeStructureByCompetition(ctx, match.CompetitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no fee structure for competition")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup fee structure")
	}

	net, err := netAmount(assignment.Role, structure, match.RefereeFeeOverride)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, *assignment.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	billing := enums.BillingTypeEFO
	if user.BillingType != nil {
		billing = *user.BillingType
	}

	fee := &models.MatchFee{
		AssignmentID: assignment.ID,
		MatchID:      assignment.MatchID,
		UserID:       *assignment.UserID,
		BillingType:  billing,
		NetAmount:    net,
		GrossAmount:  GrossAmount(net, billing),
	}
	if err := s.repo.CreateFee(ctx, fee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fee")
	}
	return feeFromModel(fee), nil
}

// GrossAmount converts a net fee to gross for the given tax regime. EFO fees
// are paid out as-is; EKHO gross = net / 0.85 rounded to whole forints.
func GrossAmount(net decimal.Decimal, billing enums.BillingType) decimal.Decimal {
	if billing == enums.BillingTypeEKHO {
		return net.Div(ekhoNetRatio).Round(0)
	}
	return net
}

func netAmount(role enums.AssignmentRole, structure *models.FeeStructure, override *decimal.Decimal) (decimal.Decimal, error) {
	switch role {
	case enums.AssignmentRoleReferee:
		if override != nil {
			return *override, nil
		}
		return structure.RefereeFee, nil
	case enums.AssignmentRoleReserveReferee:
		return structure.ReserveFee, nil
	case enums.AssignmentRoleInspector:
		return structure.InspectorFee, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "role has no fee")
	}
}

// SubmitTravelCost records a referee's claim; amount = distance * rate.
func (s *service) SubmitTravelCost(ctx context.Context, actorID uuid.UUID, input SubmitTravelCostInput) (*TravelCostDTO, error) {
	if input.MatchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match id required")
	}
	if !input.DistanceKM.IsPositive() || !input.RatePerKM.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distance and rate must be positive")
	}
	if _, err := s.repo.GetMatch(ctx, input.MatchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "match not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
	}

	cost := &models.TravelCost{
		UserID:     actorID,
		MatchID:    input.MatchID,
		DistanceKM: input.DistanceKM,
		RatePerKM:  input.RatePerKM,
		Amount:     input.DistanceKM.Mul(input.RatePerKM).Round(2),
		Status:     enums.TravelCostStatusSubmitted,
		ReceiptID:  input.ReceiptID,
	}
	if err := s.repo.CreateTravelCost(ctx, cost); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create travel cost")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "travel_cost.submit",
		EntityType: "travel_cost",
		EntityID:   &cost.ID,
		Summary:    cost.Amount.String(),
	})
	return travelCostFromModel(cost), nil
}

// ReviewTravelCost approves or rejects a submitted claim and tells the
// claimant.
func (s *service) ReviewTravelCost(ctx context.Context, reviewerID, costID uuid.UUID, approve bool, note *string) (*TravelCostDTO, error) {
	cost, err := s.repo.FindTravelCost(ctx, costID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "travel cost not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup travel cost")
	}
	if cost.Status != enums.TravelCostStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "travel cost already reviewed")
	}

	now := time.Now().UTC()
	if approve {
		cost.Status = enums.TravelCostStatusApproved
	} else {
		cost.Status = enums.TravelCostStatusRejected
	}
	cost.ReviewedBy = &reviewerID
	cost.ReviewedAt = &now
	cost.ReviewNote = note
	if err := s.repo.SaveTravelCost(ctx, cost); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save travel cost")
	}

	title := "Útiköltség elutasítva"
	message := "Az útiköltség-igényét elutasították."
	action := "travel_cost.reject"
	if approve {
		title = "Útiköltség jóváhagyva"
		message = fmt.Sprintf("Az útiköltség-igényét jóváhagyták (%s Ft).", cost.Amount.String())
		action = "travel_cost.approve"
	}
	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   cost.UserID,
		Category: enums.NotificationCategoryBilling,
		Title:    title,
		Message:  message,
	}); err != nil {
		s.logg.Error(ctx, "notify claimant", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &reviewerID,
		Action:     action,
		EntityType: "travel_cost",
		EntityID:   &cost.ID,
	})
	return travelCostFromModel(cost), nil
}

func (s *service) ListTravelCosts(ctx context.Context, userID *uuid.UUID, status *enums.TravelCostStatus) ([]TravelCostDTO, error) {
	rows, err := s.repo.ListTravelCosts(ctx, userID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list travel costs")
	}
	return travelCostsFromModels(rows), nil
}

// BuildStatement rolls up one user's fees and approved travel costs for a
// month. Rebuilding a draft replaces its lines; a finalized statement cannot
// change.
func (s *service) BuildStatement(ctx context.Context, actorID, userID uuid.UUID, year, month int) (*StatementDTO, error) {
	if month < 1 || month > 12 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be 1-12")
	}
	if year < 2000 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid year")
	}

	statement, err := s.repo.FindStatement(ctx, userID, year, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup statement")
	}
	if statement != nil && statement.Status == enums.StatementStatusFinal {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "statement already finalized")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	fees, err := s.repo.ListFeesForUserMonth(ctx, userID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fees")
	}
	travel, err := s.repo.ListApprovedTravelForUserMonth(ctx, userID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list travel costs")
	}

	if statement == nil {
		statement = &models.MonthlyStatement{
			UserID: userID,
			Year:   year,
			Month:  month,
			Status: enums.StatementStatusDraft,
		}
		if err := s.repo.CreateStatement(ctx, statement); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create statement")
		}
	}

	total := decimal.Zero
	var lines []models.StatementLine
	for _, fee := range fees {
		matchID := fee.MatchID
		lines = append(lines, models.StatementLine{
			StatementID: statement.ID,
			MatchID:     &matchID,
			Kind:        "match_fee",
			Label:       fmt.Sprintf("Mérkőzésdíj (%s)", fee.BillingType),
			Amount:      fee.GrossAmount,
		})
		total = total.Add(fee.GrossAmount)
	}
	for _, cost := range travel {
		matchID := cost.MatchID
		lines = append(lines, models.StatementLine{
			StatementID: statement.ID,
			MatchID:     &matchID,
			Kind:        "travel_cost",
			Label:       fmt.Sprintf("Útiköltség (%s km)", cost.DistanceKM.String()),
			Amount:      cost.Amount,
		})
		total = total.Add(cost.Amount)
	}

	if err := s.repo.ReplaceLines(ctx, statement.ID, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace statement lines")
	}
	statement.Total = total
	if err := s.repo.SaveStatement(ctx, statement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save statement")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "statement.build",
		EntityType: "monthly_statement",
		EntityID:   &statement.ID,
		Summary:    fmt.Sprintf("%d-%02d total %s", year, month, total.String()),
	})
	return statementFromModel(statement, lines), nil
}

// FinalizeStatement locks a draft statement.
func (s *service) FinalizeStatement(ctx context.Context, actorID, userID uuid.UUID, year, month int) (*StatementDTO, error) {
	statement, err := s.repo.FindStatement(ctx, userID, year, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup statement")
	}
	if statement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "statement not found")
	}
	if statement.Status == enums.StatementStatusFinal {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "statement already finalized")
	}

	now := time.Now().UTC()
	statement.Status = enums.StatementStatusFinal
	statement.FinalizedAt = &now
	if err := s.repo.SaveStatement(ctx, statement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save statement")
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   userID,
		Category: enums.NotificationCategoryBilling,
		Title:    "Havi elszámolás véglegesítve",
		Message:  fmt.Sprintf("A %d. év %d. havi elszámolása elkészült (%s Ft).", year, month, statement.Total.String()),
	}); err != nil {
		s.logg.Error(ctx, "notify statement owner", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "statement.finalize",
		EntityType: "monthly_statement",
		EntityID:   &statement.ID,
	})

	lines, err := s.repo.ListLines(ctx, statement.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list statement lines")
	}
	return statementFromModel(statement, lines), nil
}

func (s *service) GetStatement(ctx context.Context, userID uuid.UUID, year, month int) (*StatementDTO, error) {
	statement, err := s.repo.FindStatement(ctx, userID, year, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup statement")
	}
	if statement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "statement not found")
	}
	lines, err := s.repo.ListLines(ctx, statement.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list statement lines")
	}
	return statementFromModel(statement, lines), nil
}

func (s *service) ListStatements(ctx context.Context, userID *uuid.UUID, year *int) ([]StatementDTO, error) {
	rows, err := s.repo.ListStatements(ctx, userID, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list statements")
	}
	out := make([]StatementDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *statementFromModel(&rows[i], nil))
	}
	return out, nil
}
