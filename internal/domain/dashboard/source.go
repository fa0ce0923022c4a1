package dashboard

import (
	"origination-engine/internal/domain/application"
	"origination-engine/internal/integration/vesta"
)

// SourceKind tags which of the two possible loan data sources backs the
// dashboard, or that neither does.
type SourceKind int

const (
	// SourceNone means no loan could be located; callers should redirect
	// to login.
	SourceNone SourceKind = iota
	// SourceLocal is a draft or submitted record owned by this service.
	SourceLocal
	// SourceExternal is a snapshot fetched from the servicing system via
	// loan-number verification; several tabs are unavailable in this mode.
	SourceExternal
)

// LoanSource is the tagged union over the two differently-shaped loan
// records. Consumers switch on Kind rather than null-coalescing fields.
type LoanSource struct {
	kind     SourceKind
	local    *application.Loan
	external *vesta.LoanSnapshot
}

func NoSource() LoanSource {
	return LoanSource{kind: SourceNone}
}

func LocalSource(loan *application.Loan) LoanSource {
	if loan == nil {
		return NoSource()
	}
	return LoanSource{kind: SourceLocal, local: loan}
}

func ExternalSource(snap *vesta.LoanSnapshot) LoanSource {
	if snap == nil {
		return NoSource()
	}
	return LoanSource{kind: SourceExternal, external: snap}
}

func (s LoanSource) Kind() SourceKind { return s.kind }

// Local returns the local record; the bool is false unless Kind is
// SourceLocal.
func (s LoanSource) Local() (*application.Loan, bool) {
	return s.local, s.kind == SourceLocal
}

// External returns the servicing-system snapshot; the bool is false unless
// Kind is SourceExternal.
func (s LoanSource) External() (*vesta.LoanSnapshot, bool) {
	return s.external, s.kind == SourceExternal
}
