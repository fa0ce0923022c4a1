package condition

import "sort"

// Tabs is the three-bucket dashboard view of a condition list.
type Tabs struct {
	ActionNeeded []Condition `json:"actionNeeded"`
	UnderReview  []Condition `json:"underReview"`
	Approved     []Condition `json:"approved"`
}

// FilterBorrower keeps only conditions the borrower is responsible for.
func FilterBorrower(conditions []Condition) []Condition {
	out := make([]Condition, 0, len(conditions))
	for _, c := range conditions {
		if c.BorrowerOwned() {
			out = append(out, c)
		}
	}
	return out
}

// GroupIntoTabs buckets conditions by status and orders each bucket by
// timing rank, so PriorToApproval items surface before PostFunding ones and
// unrecognized timings trail.
func GroupIntoTabs(conditions []Condition) Tabs {
	tabs := Tabs{
		ActionNeeded: []Condition{},
		UnderReview:  []Condition{},
		Approved:     []Condition{},
	}
	for _, c := range conditions {
		switch c.Status {
		case StatusOpen:
			tabs.ActionNeeded = append(tabs.ActionNeeded, c)
		case StatusSubmitted:
			tabs.UnderReview = append(tabs.UnderReview, c)
		case StatusCleared:
			tabs.Approved = append(tabs.Approved, c)
		}
	}
	sortByTiming(tabs.ActionNeeded)
	sortByTiming(tabs.UnderReview)
	sortByTiming(tabs.Approved)
	return tabs
}

func sortByTiming(conditions []Condition) {
	sort.SliceStable(conditions, func(i, j int) bool {
		return conditions[i].Timing.Rank() < conditions[j].Timing.Rank()
	})
}
