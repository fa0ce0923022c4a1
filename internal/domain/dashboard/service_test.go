package dashboard

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/condition"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) CreateDraft(ctx context.Context, borrowerID string, initial application.FormData) (*application.Loan, error) {
	args := m.Called(ctx, borrowerID, initial)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepo) FindDraftByBorrower(ctx context.Context, borrowerID string) (*application.Loan, error) {
	args := m.Called(ctx, borrowerID)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepo) GetByID(ctx context.Context, loanID string) (*application.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepo) GetByViewToken(ctx context.Context, viewToken string) (*application.Loan, error) {
	args := m.Called(ctx, viewToken)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepo) SaveSnapshot(ctx context.Context, loan *application.Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockLoanRepo) MarkSubmitted(ctx context.Context, loanID string) error {
	return m.Called(ctx, loanID).Error(0)
}

func (m *MockLoanRepo) FindFunnelCapture(ctx context.Context, borrowerID string) (application.FormData, error) {
	args := m.Called(ctx, borrowerID)
	if d, ok := args.Get(0).(application.FormData); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockConditionRepo struct {
	mock.Mock
}

func (m *MockConditionRepo) ListByLoan(ctx context.Context, loanID string) ([]condition.Condition, error) {
	args := m.Called(ctx, loanID)
	if c, ok := args.Get(0).([]condition.Condition); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConditionRepo) GetByID(ctx context.Context, conditionID string) (*condition.Condition, error) {
	args := m.Called(ctx, conditionID)
	if c, ok := args.Get(0).(*condition.Condition); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConditionRepo) UpdateStatus(ctx context.Context, conditionID string, from, to condition.Status) error {
	return m.Called(ctx, conditionID, from, to).Error(0)
}

type MockVestaClient struct {
	mock.Mock
}

func (m *MockVestaClient) BorrowerLogin(ctx context.Context, loanNumber, zipCode, phoneLast4 string) (*vesta.LoanSnapshot, error) {
	args := m.Called(ctx, loanNumber, zipCode, phoneLast4)
	if s, ok := args.Get(0).(*vesta.LoanSnapshot); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVestaClient) CreateLoan(ctx context.Context, loanNumber string, data map[string]any) (string, error) {
	args := m.Called(ctx, loanNumber, data)
	return args.String(0), args.Error(1)
}

func (m *MockVestaClient) UpdateLoan(ctx context.Context, loanID string, data map[string]any) error {
	return m.Called(ctx, loanID, data).Error(0)
}

func (m *MockVestaClient) FetchConditions(ctx context.Context, loanID string, statuses []condition.Status) ([]condition.Condition, error) {
	args := m.Called(ctx, loanID, statuses)
	if c, ok := args.Get(0).([]condition.Condition); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVestaClient) UploadDocument(ctx context.Context, loanID, conditionID, fileName, contentType string, content []byte) (string, error) {
	args := m.Called(ctx, loanID, conditionID, fileName, contentType, content)
	return args.String(0), args.Error(1)
}

func (m *MockVestaClient) SubmitQuestion(ctx context.Context, loanNumber, name, email, question string) error {
	return m.Called(ctx, loanNumber, name, email, question).Error(0)
}

func newService(loans *MockLoanRepo, conds *MockConditionRepo, vc *MockVestaClient) DashboardService {
	return NewDashboardService(loans, conds, vc, testLogger)
}

func TestResolve_PrefersLocalRecord(t *testing.T) {
	loans := new(MockLoanRepo)
	svc := newService(loans, new(MockConditionRepo), new(MockVestaClient))
	ctx := context.Background()

	local := &application.Loan{ID: "loan-1", Data: application.NewFormData()}
	loans.On("GetByID", ctx, "loan-1").Return(local, nil)

	src, err := svc.Resolve(ctx, "loan-1", &vesta.LoanSnapshot{LoanID: "ext-1"})
	assert.NoError(t, err)
	assert.Equal(t, SourceLocal, src.Kind())
}

func TestResolve_FallsBackToExternalSnapshot(t *testing.T) {
	loans := new(MockLoanRepo)
	svc := newService(loans, new(MockConditionRepo), new(MockVestaClient))
	ctx := context.Background()

	loans.On("GetByID", ctx, "loan-1").Return(nil, apperrors.ErrNotFound)

	src, err := svc.Resolve(ctx, "loan-1", &vesta.LoanSnapshot{LoanID: "ext-1", Status: "In Underwriting"})
	assert.NoError(t, err)
	assert.Equal(t, SourceExternal, src.Kind())

	snap, ok := src.External()
	assert.True(t, ok)
	assert.Equal(t, "ext-1", snap.LoanID)
}

func TestResolve_NeitherSourcePresent(t *testing.T) {
	svc := newService(new(MockLoanRepo), new(MockConditionRepo), new(MockVestaClient))

	src, err := svc.Resolve(context.Background(), "", nil)
	assert.NoError(t, err)
	assert.Equal(t, SourceNone, src.Kind())

	_, err = svc.BuildView(context.Background(), src)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "no source means redirect to login")
}

func TestBuildView_ExternalHidesFinancialTabs(t *testing.T) {
	svc := newService(new(MockLoanRepo), new(MockConditionRepo), new(MockVestaClient))

	view, err := svc.BuildView(context.Background(), ExternalSource(&vesta.LoanSnapshot{
		LoanID:     "ext-1",
		LoanNumber: "1000123",
		Status:     "with underwriting",
	}))
	assert.NoError(t, err)
	assert.Equal(t, "external", view.Source)
	assert.False(t, view.ShowFinancials)
	assert.False(t, view.ShowPreApproval)
	assert.Equal(t, int(StageUnderwriting), view.Stage)
	assert.Equal(t, "Underwriting", view.StageLabel)
}

func TestBuildView_LocalShowsAllTabsAndFigures(t *testing.T) {
	svc := newService(new(MockLoanRepo), new(MockConditionRepo), new(MockVestaClient))

	data := application.NewFormData()
	data.SetField(application.SectionLoanDetails, "loanAmount", 240000.0)
	data.SetField(application.SectionProperty, "propertyValue", 300000.0)
	loan := &application.Loan{ID: "loan-1", Data: data, Submitted: true}
	loan.DeriveSummary()

	view, err := svc.BuildView(context.Background(), LocalSource(loan))
	assert.NoError(t, err)
	assert.True(t, view.ShowFinancials)
	assert.True(t, view.ShowPreApproval)
	assert.Equal(t, PMINotRequired, view.Figures.PMIGuidance)
	assert.Equal(t, "80", view.Figures.LTV.String())
}

func TestConditions_ExternalSourceUsesVesta(t *testing.T) {
	vc := new(MockVestaClient)
	svc := newService(new(MockLoanRepo), new(MockConditionRepo), vc)
	ctx := context.Background()

	vc.On("FetchConditions", ctx, "ext-1", mock.Anything).Return([]condition.Condition{
		{ID: "c1", Status: condition.StatusOpen, AtFaultUsers: condition.Parties{condition.PartyBorrower}},
		{ID: "c2", Status: condition.StatusOpen, AtFaultUsers: condition.Parties{condition.PartyLender}},
		{ID: "c3", Status: condition.StatusCleared, AtFaultUsers: condition.Parties{condition.PartyBorrower}},
	}, nil)

	tabs, err := svc.Conditions(ctx, ExternalSource(&vesta.LoanSnapshot{LoanID: "ext-1"}), true)
	assert.NoError(t, err)
	assert.Len(t, tabs.ActionNeeded, 1, "lender-owned conditions filtered out")
	assert.Len(t, tabs.Approved, 1)
	assert.Empty(t, tabs.UnderReview)
}

func TestConditions_LocalSourceUsesRepository(t *testing.T) {
	conds := new(MockConditionRepo)
	svc := newService(new(MockLoanRepo), conds, new(MockVestaClient))
	ctx := context.Background()

	conds.On("ListByLoan", ctx, "loan-1").Return([]condition.Condition{
		{ID: "c1", Status: condition.StatusSubmitted, AtFaultUsers: condition.Parties{condition.PartyBorrower}},
	}, nil)

	tabs, err := svc.Conditions(ctx, LocalSource(&application.Loan{ID: "loan-1", Data: application.NewFormData()}), false)
	assert.NoError(t, err)
	assert.Len(t, tabs.UnderReview, 1)
}
