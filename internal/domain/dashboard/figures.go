package dashboard

import "github.com/shopspring/decimal"

// PMI guidance bands keyed off loan-to-value.
const (
	PMINotRequired = "no-pmi"
	PMIRequired    = "pmi-required"
)

var pmiThreshold = decimal.NewFromInt(80)

// Figures are the derived affordability numbers shown on the dashboard.
// Percentages are rounded to one decimal place for display.
type Figures struct {
	LTV         decimal.Decimal `json:"ltv"`
	PMIGuidance string          `json:"pmiGuidance"`
	DTI         decimal.Decimal `json:"dti,omitempty"`
}

// LoanToValue returns loanAmount/propertyValue as a percentage. Zero when
// either input is missing.
func LoanToValue(loanAmount, propertyValue float64) decimal.Decimal {
	if loanAmount <= 0 || propertyValue <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(loanAmount).
		Div(decimal.NewFromFloat(propertyValue)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

// PMIGuidance maps an LTV percentage onto the guidance band: at or below
// 80% conventional loans avoid PMI.
func PMIGuidance(ltv decimal.Decimal) string {
	if ltv.IsZero() || ltv.LessThanOrEqual(pmiThreshold) {
		return PMINotRequired
	}
	return PMIRequired
}

// DebtToIncome returns monthlyDebt/monthlyIncome as a percentage. Zero when
// income is missing.
func DebtToIncome(monthlyDebt, monthlyIncome float64) decimal.Decimal {
	if monthlyIncome <= 0 || monthlyDebt < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(monthlyDebt).
		Div(decimal.NewFromFloat(monthlyIncome)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

// ComputeFigures derives the full set from raw form numbers.
func ComputeFigures(loanAmount, propertyValue, monthlyDebt, monthlyIncome float64) Figures {
	ltv := LoanToValue(loanAmount, propertyValue)
	return Figures{
		LTV:         ltv,
		PMIGuidance: PMIGuidance(ltv),
		DTI:         DebtToIncome(monthlyDebt, monthlyIncome),
	}
}
