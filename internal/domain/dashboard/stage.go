package dashboard

import "strings"

// Stage is the borrower-facing pipeline position. The authoritative state
// lives in the servicing system; this is a best-effort classifier over its
// free-form status text, not a state machine.
type Stage int

const (
	StageSubmitted Stage = iota
	StageInitialReview
	StageProcessing
	StageUnderwriting
	StageConditionalApproval
	StageClearToClose
)

var stageLabels = [...]string{
	"Submitted",
	"Initial Review",
	"Processing",
	"Underwriting",
	"Conditional Approval",
	"Clear to Close",
}

func (s Stage) String() string {
	if s < StageSubmitted || int(s) >= len(stageLabels) {
		return "Submitted"
	}
	return stageLabels[s]
}

// StageCount is the number of pipeline stages rendered on the dashboard.
const StageCount = len(stageLabels)

// stagePatterns are checked top-down: the most advanced stage's keywords
// first, so a status like "conditional approval - underwriting complete"
// resolves to the furthest stage it mentions.
var stagePatterns = []struct {
	stage    Stage
	keywords []string
}{
	{StageClearToClose, []string{"funded", "clear to close", "closing"}},
	{StageConditionalApproval, []string{"conditional"}},
	{StageUnderwriting, []string{"underwrit"}},
	{StageProcessing, []string{"processing", "in process"}},
	{StageInitialReview, []string{"review"}},
	{StageSubmitted, []string{"submitted", "received", "started"}},
}

// ResolveStage classifies an external status string by case-insensitive
// substring match, first match wins in fixed priority order. Unmatched text
// falls back to Submitted.
func ResolveStage(status string) Stage {
	lowered := strings.ToLower(status)
	for _, p := range stagePatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lowered, kw) {
				return p.stage
			}
		}
	}
	return StageSubmitted
}
