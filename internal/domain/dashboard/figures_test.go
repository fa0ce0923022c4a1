package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoanToValue(t *testing.T) {
	ltv := LoanToValue(240000, 300000)
	assert.True(t, ltv.Equal(decimal.NewFromInt(80)), "240k/300k is 80%%, got %s", ltv)

	assert.True(t, LoanToValue(0, 300000).IsZero())
	assert.True(t, LoanToValue(240000, 0).IsZero())
}

func TestPMIGuidance_FlipsAtEightyPercent(t *testing.T) {
	// 240k on a 300k home: exactly 80, no PMI.
	ltv := LoanToValue(240000, 300000)
	assert.Equal(t, PMINotRequired, PMIGuidance(ltv))

	// Raising the loan to 270k pushes LTV to 90 and flips the band.
	ltv = LoanToValue(270000, 300000)
	assert.Equal(t, PMIRequired, PMIGuidance(ltv))
}

func TestDebtToIncome(t *testing.T) {
	dti := DebtToIncome(2500, 7850)
	assert.Equal(t, "31.8", dti.String())

	assert.True(t, DebtToIncome(2500, 0).IsZero())
}

func TestComputeFigures(t *testing.T) {
	f := ComputeFigures(240000, 300000, 1500, 6000)
	assert.Equal(t, PMINotRequired, f.PMIGuidance)
	assert.Equal(t, "25", f.DTI.String())
	assert.Equal(t, "80", f.LTV.String())
}
