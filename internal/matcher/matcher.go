// Package matcher decides, for each bank transaction, which donor
// declaration(s) it could belong to.
//
// A declaration matches a transaction when its identifier, reduced to a
// normalized key (see NormalizeKey), appears verbatim as a contiguous
// substring of the transaction reference's normalized key. There is no fuzzy
// matching and no tie-breaking: zero candidates means the transaction is not
// gift-aidable, exactly one candidate is resolved automatically (subject to
// the declaration's validity windows), and two or more candidates is an
// ambiguity that must be surfaced for manual resolution, never guessed at.
package matcher

import (
	"strings"

	"giftaid-schedule-builder/internal/models"
)

// OutcomeKind classifies the result of matching one transaction.
type OutcomeKind int

const (
	// OutcomeUnmatched means no declaration identifier appears in the
	// transaction reference. Not an error: the transaction simply is not
	// gift-aidable.
	OutcomeUnmatched OutcomeKind = iota

	// OutcomeResolved means exactly one declaration matched and its
	// validity windows cover the transaction date.
	OutcomeResolved

	// OutcomeIneligible means exactly one declaration matched but the
	// transaction date falls outside the windows the declaration covers.
	OutcomeIneligible

	// OutcomeAmbiguous means two or more declarations matched. The donor
	// must be assigned manually.
	OutcomeAmbiguous
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeResolved:
		return "resolved"
	case OutcomeIneligible:
		return "ineligible"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Outcome is the result of matching one transaction against the full
// declaration list.
type Outcome struct {
	Kind OutcomeKind

	// Declaration is set for Resolved and Ineligible outcomes.
	Declaration *models.Declaration

	// Candidates carries the full candidate list for Ambiguous outcomes,
	// in original declaration order, for diagnostic display.
	Candidates []*models.Declaration

	// Ineligibility is set for Ineligible outcomes.
	Ineligibility Ineligibility
}

// Engine matches transactions against a fixed declaration list. The
// normalized identifier keys are computed once at construction; matching
// itself is a pure function with no shared state, so an Engine is safe for
// concurrent use.
type Engine struct {
	declarations []*models.Declaration
	keys         []string
}

// NewEngine creates a matching engine over the given declarations. Order is
// preserved: ambiguous candidate lists come back in declaration-list order.
func NewEngine(declarations []*models.Declaration) *Engine {
	keys := make([]string, len(declarations))
	for i, d := range declarations {
		keys[i] = NormalizeKey(d.Identifier)
	}

	return &Engine{
		declarations: declarations,
		keys:         keys,
	}
}

// Match determines the outcome for a single transaction.
func (e *Engine) Match(tx *models.Transaction) Outcome {
	reference := NormalizeKey(tx.Reference)

	var candidates []*models.Declaration
	for i, key := range e.keys {
		// an empty identifier key would match every reference
		if key == "" {
			continue
		}
		if strings.Contains(reference, key) {
			candidates = append(candidates, e.declarations[i])
		}
	}

	switch len(candidates) {
	case 0:
		return Outcome{Kind: OutcomeUnmatched}
	case 1:
		declaration := candidates[0]
		if ineligibility := CheckEligibility(tx.Date, declaration); ineligibility != Eligible {
			return Outcome{
				Kind:          OutcomeIneligible,
				Declaration:   declaration,
				Ineligibility: ineligibility,
			}
		}
		return Outcome{Kind: OutcomeResolved, Declaration: declaration}
	default:
		return Outcome{Kind: OutcomeAmbiguous, Candidates: candidates}
	}
}

// Declarations returns the declaration list the engine was built over.
func (e *Engine) Declarations() []*models.Declaration {
	return e.declarations
}
