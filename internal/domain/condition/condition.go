package condition

import (
	"encoding/json"
	"strings"
	"time"
)

// Status of a checklist condition. Open means the borrower still owes
// something; Submitted means an upload is awaiting staff review; Cleared is
// terminal. This service only ever moves Open to Submitted - clearing
// happens in loan-officer tooling.
type Status string

const (
	StatusOpen      Status = "Open"
	StatusSubmitted Status = "Submitted"
	StatusCleared   Status = "Cleared"
)

// Party responsible for satisfying a condition.
type Party string

const (
	PartyBorrower Party = "Borrower"
	PartyLender   Party = "Lender"
)

// Timing buckets a condition into the closing pipeline. The zero-based rank
// below fixes the display order; unrecognized values sort last.
type Timing string

const (
	TimingPriorToApproval Timing = "PriorToApproval"
	TimingPriorToDocs     Timing = "PriorToDocs"
	TimingPriorToClosing  Timing = "PriorToClosing"
	TimingPriorToFunding  Timing = "PriorToFunding"
	TimingPostFunding     Timing = "PostFunding"
)

var timingRank = map[Timing]int{
	TimingPriorToApproval: 0,
	TimingPriorToDocs:     1,
	TimingPriorToClosing:  2,
	TimingPriorToFunding:  3,
	TimingPostFunding:     4,
}

const unknownTimingRank = 5

// Rank returns the display position of a timing value. Unknown values rank
// after every known stage.
func (t Timing) Rank() int {
	if rank, ok := timingRank[t]; ok {
		return rank
	}
	return unknownTimingRank
}

// Parties is the at-fault field of a condition. Upstream systems send it
// either as a single string or as a list; both decode into the same slice so
// membership tests behave identically.
type Parties []Party

func (p *Parties) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = Parties{Party(single)}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(Parties, 0, len(many))
	for _, v := range many {
		out = append(out, Party(v))
	}
	*p = out
	return nil
}

func (p Parties) Contains(party Party) bool {
	for _, v := range p {
		if strings.EqualFold(string(v), string(party)) {
			return true
		}
	}
	return false
}

// Condition is one checklist item a loan must satisfy before closing.
type Condition struct {
	ID           string    `json:"id"`
	LoanID       string    `json:"loanId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Status       Status    `json:"status"`
	Timing       Timing    `json:"timing"`
	AtFaultUsers Parties   `json:"conditionAtFaultUsers"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// BorrowerOwned reports whether the borrower is among the at-fault parties.
func (c Condition) BorrowerOwned() bool {
	return c.AtFaultUsers.Contains(PartyBorrower)
}
