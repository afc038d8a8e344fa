// internal/policy/policy.go
// Package policy maps a recovered confidence score onto a final compliance
// state. The thresholds are the single source of truth for classification;
// whatever label the model reported is discarded.
package policy

// Threshold boundaries for confidence classification. Confidence below
// ThresholdPartial is Non-Compliant, below ThresholdFull is Partially
// Compliant, and everything at or above ThresholdFull is Fully Compliant.
const (
	ThresholdPartial = 40
	ThresholdFull    = 85
)

// State is a final compliance classification.
type State string

const (
	NonCompliant       State = "Non-Compliant"
	PartiallyCompliant State = "Partially Compliant"
	FullyCompliant     State = "Fully Compliant"
)

// Classify maps a confidence score to its compliance state. It is pure and
// total: every integer input maps to exactly one state.
func Classify(confidence int) State {
	if confidence < ThresholdPartial {
		return NonCompliant
	}
	if confidence < ThresholdFull {
		return PartiallyCompliant
	}
	return FullyCompliant
}
