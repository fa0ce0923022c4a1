package application

import "strings"

// requiredFields lists the fields a section must carry before it counts as
// complete. Declarations intentionally has none.
var requiredFields = map[Section][]string{
	SectionPersonalInfo: {"firstName", "lastName", "email", "phone", "street", "city", "state", "zipCode"},
	SectionEmployment:   {"employmentStatus", "employerName", "jobTitle", "yearsEmployed"},
	SectionAssets:       {"checkingBalance", "savingsBalance"},
	SectionLiabilities:  {"monthlyDebtPayments"},
	SectionProperty:     {"propertyType", "occupancy", "propertyValue"},
	SectionLoanDetails:  {"loanPurpose", "loanAmount"},
	SectionDeclarations: {},
}

// numericFields must be present and non-zero rather than merely non-empty.
var numericFields = map[string]bool{
	"propertyValue":          true,
	"loanAmount":             true,
	"currentMortgageBalance": true,
}

// ValidateSection maps one section of the form to field-level error
// messages. Pure: no state is consulted beyond the passed data, and the
// same input always yields the same output. An empty map means valid.
func ValidateSection(section Section, data FormData) map[string]string {
	errs := map[string]string{}

	for _, field := range requiredFields[section] {
		if numericFields[field] {
			if data.Number(section, field) == 0 {
				errs[field] = "This field is required"
			}
			continue
		}
		if strings.TrimSpace(data.String(section, field)) == "" {
			errs[field] = "This field is required"
		}
	}

	if section == SectionLoanDetails && isRefinancePurpose(data.String(SectionLoanDetails, "loanPurpose")) {
		if data.Number(SectionLoanDetails, "currentMortgageBalance") == 0 {
			errs["currentMortgageBalance"] = "Current mortgage balance is required for a refinance"
		}
	}

	return errs
}

// SectionValid reports whether a section has no validation errors.
func SectionValid(section Section, data FormData) bool {
	return len(ValidateSection(section, data)) == 0
}

// AllSectionsValid reports whether every section of the form validates.
func AllSectionsValid(data FormData) bool {
	for _, s := range SectionOrder {
		if !SectionValid(s, data) {
			return false
		}
	}
	return true
}

func isRefinancePurpose(purpose string) bool {
	return strings.Contains(strings.ToLower(purpose), "refinance")
}
