package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/condition"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

// View is the assembled dashboard payload. Tab visibility depends on the
// data source: an externally verified loan has no local financials or
// pre-approval data to show.
type View struct {
	Source          string  `json:"source"`
	LoanID          string  `json:"loanId,omitempty"`
	LoanNumber      string  `json:"loanNumber,omitempty"`
	BorrowerName    string  `json:"borrowerName,omitempty"`
	Submitted       bool    `json:"submitted"`
	Stage           int     `json:"stage"`
	StageLabel      string  `json:"stageLabel"`
	StageCount      int     `json:"stageCount"`
	LoanAmount      float64 `json:"loanAmount,omitempty"`
	LoanType        string  `json:"loanType,omitempty"`
	PropertyAddress string  `json:"propertyAddress,omitempty"`
	ShowFinancials  bool    `json:"showFinancials"`
	ShowPreApproval bool    `json:"showPreApproval"`
	Figures         Figures `json:"figures"`
}

type DashboardService interface {
	// Resolve locates the loan backing the dashboard: the local record when
	// one exists, else the session's external snapshot, else none.
	Resolve(ctx context.Context, loanID string, external *vesta.LoanSnapshot) (LoanSource, error)

	// BuildView assembles the dashboard for a resolved source. SourceNone
	// yields apperrors.ErrUnauthorized: the caller should redirect to login.
	BuildView(ctx context.Context, src LoanSource) (*View, error)

	// Conditions returns the grouped condition tabs for a resolved source,
	// optionally narrowed to borrower-owned items.
	Conditions(ctx context.Context, src LoanSource, borrowerOnly bool) (condition.Tabs, error)
}

type dashboardServiceImpl struct {
	loans      application.Repository
	conditions condition.Repository
	vesta      vesta.Client
	logger     *slog.Logger
}

func NewDashboardService(
	loans application.Repository,
	conditions condition.Repository,
	vestaClient vesta.Client,
	logger *slog.Logger,
) DashboardService {
	return &dashboardServiceImpl{
		loans:      loans,
		conditions: conditions,
		vesta:      vestaClient,
		logger:     logger.With("component", "DashboardService"),
	}
}

func (s *dashboardServiceImpl) Resolve(ctx context.Context, loanID string, external *vesta.LoanSnapshot) (LoanSource, error) {
	if loanID != "" {
		loan, err := s.loans.GetByID(ctx, loanID)
		if err == nil {
			return LocalSource(loan), nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return NoSource(), fmt.Errorf("%w: failed to resolve loan %s: %v", apperrors.ErrInternalServer, loanID, err)
		}
	}
	if external != nil {
		return ExternalSource(external), nil
	}
	return NoSource(), nil
}

func (s *dashboardServiceImpl) BuildView(ctx context.Context, src LoanSource) (*View, error) {
	switch src.Kind() {
	case SourceLocal:
		loan, _ := src.Local()
		return s.localView(loan), nil
	case SourceExternal:
		snap, _ := src.External()
		return s.externalView(snap), nil
	case SourceNone:
		return nil, fmt.Errorf("%w: no loan available for dashboard", apperrors.ErrUnauthorized)
	default:
		return nil, fmt.Errorf("%w: unknown loan source", apperrors.ErrInternalServer)
	}
}

func (s *dashboardServiceImpl) localView(loan *application.Loan) *View {
	stage := StageSubmitted

	figures := ComputeFigures(
		loan.Data.Number(application.SectionLoanDetails, "loanAmount"),
		loan.Data.Number(application.SectionProperty, "propertyValue"),
		loan.Data.Number(application.SectionLiabilities, "monthlyDebtPayments"),
		loan.Data.Number(application.SectionEmployment, "totalMonthlyIncome"),
	)

	name := loan.Data.String(application.SectionPersonalInfo, "firstName")
	if last := loan.Data.String(application.SectionPersonalInfo, "lastName"); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}

	return &View{
		Source:          "local",
		LoanID:          loan.ID,
		BorrowerName:    name,
		Submitted:       loan.Submitted,
		Stage:           int(stage),
		StageLabel:      stage.String(),
		StageCount:      StageCount,
		LoanAmount:      loan.LoanAmount,
		LoanType:        loan.LoanType,
		PropertyAddress: loan.PropertyAddress,
		ShowFinancials:  true,
		ShowPreApproval: true,
		Figures:         figures,
	}
}

func (s *dashboardServiceImpl) externalView(snap *vesta.LoanSnapshot) *View {
	stage := ResolveStage(snap.Status)

	return &View{
		Source:          "external",
		LoanID:          snap.LoanID,
		LoanNumber:      snap.LoanNumber,
		BorrowerName:    snap.BorrowerName,
		Submitted:       true,
		Stage:           int(stage),
		StageLabel:      stage.String(),
		StageCount:      StageCount,
		LoanAmount:      snap.LoanAmount,
		LoanType:        snap.LoanType,
		PropertyAddress: snap.PropertyAddress,
		// External-only sessions lack the local financial records these
		// tabs are built from.
		ShowFinancials:  false,
		ShowPreApproval: false,
	}
}

func (s *dashboardServiceImpl) Conditions(ctx context.Context, src LoanSource, borrowerOnly bool) (condition.Tabs, error) {
	var (
		list []condition.Condition
		err  error
	)
	switch src.Kind() {
	case SourceLocal:
		loan, _ := src.Local()
		list, err = s.conditions.ListByLoan(ctx, loan.ID)
	case SourceExternal:
		snap, _ := src.External()
		list, err = s.vesta.FetchConditions(ctx, snap.LoanID,
			[]condition.Status{condition.StatusOpen, condition.StatusSubmitted, condition.StatusCleared})
	case SourceNone:
		return condition.Tabs{}, fmt.Errorf("%w: no loan available for conditions", apperrors.ErrUnauthorized)
	}
	if err != nil {
		s.logger.Error("Failed to load conditions", "error", err)
		return condition.Tabs{}, fmt.Errorf("%w: failed to load conditions: %v", apperrors.ErrInternalServer, err)
	}

	if borrowerOnly {
		list = condition.FilterBorrower(list)
	}
	return condition.GroupIntoTabs(list), nil
}
