package application

import (
	"strconv"
	"strings"
)

// Section identifies one of the fixed application form sections.
type Section string

const (
	SectionPersonalInfo Section = "personalInfo"
	SectionEmployment   Section = "employment"
	SectionAssets       Section = "assets"
	SectionLiabilities  Section = "liabilities"
	SectionProperty     Section = "property"
	SectionLoanDetails  Section = "loanDetails"
	SectionDeclarations Section = "declarations"
)

// SectionOrder is the canonical traversal order of the application wizard.
// Step indexes map 1:1 onto this slice.
var SectionOrder = []Section{
	SectionPersonalInfo,
	SectionEmployment,
	SectionAssets,
	SectionLiabilities,
	SectionProperty,
	SectionLoanDetails,
	SectionDeclarations,
}

const SectionCount = 7

// FormData is the full multi-section application payload. Each section is an
// open-ended map of scalar fields; unknown fields are carried through but
// never validated.
type FormData map[Section]map[string]any

// Income constituents on the employment section. Any change to one of these
// recomputes the derived total.
var incomeFields = []string{"baseIncome", "overtime", "bonus", "commission", "otherIncome"}

const totalIncomeField = "totalMonthlyIncome"

func NewFormData() FormData {
	data := make(FormData, SectionCount)
	for _, s := range SectionOrder {
		data[s] = map[string]any{}
	}
	return data
}

func ValidSection(s Section) bool {
	for _, known := range SectionOrder {
		if s == known {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that snapshots handed to the persistence
// layer are not aliased by later mutations.
func (d FormData) Clone() FormData {
	out := make(FormData, len(d))
	for section, fields := range d {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out[section] = copied
	}
	return out
}

// SetField merges a single field into a section and maintains the derived
// employment income total when one of its constituents changes.
func (d FormData) SetField(section Section, field string, value any) {
	fields, ok := d[section]
	if !ok {
		fields = map[string]any{}
		d[section] = fields
	}
	fields[field] = value

	if section == SectionEmployment && isIncomeField(field) {
		fields[totalIncomeField] = d.totalIncome()
	}
}

func (d FormData) Field(section Section, field string) (any, bool) {
	fields, ok := d[section]
	if !ok {
		return nil, false
	}
	v, ok := fields[field]
	return v, ok
}

func (d FormData) String(section Section, field string) string {
	v, ok := d.Field(section, field)
	if !ok {
		return ""
	}
	return stringValue(v)
}

func (d FormData) Number(section Section, field string) float64 {
	v, ok := d.Field(section, field)
	if !ok {
		return 0
	}
	return numberValue(v)
}

func isIncomeField(field string) bool {
	for _, f := range incomeFields {
		if f == field {
			return true
		}
	}
	return false
}

func (d FormData) totalIncome() float64 {
	var total float64
	for _, f := range incomeFields {
		total += d.Number(SectionEmployment, f)
	}
	return total
}

// stringValue renders a scalar form value as a string. Numbers lose no
// precision that matters for display fields.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}

// numberValue coerces a scalar form value to a float64. JSON decoding hands
// numbers over as float64; users occasionally type them into text inputs, so
// numeric strings are parsed too.
func numberValue(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(val, ",", ""), "$", ""))
		if cleaned == "" {
			return 0
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
