package models

// ParseFailureSignal is the reserved signal name reported when the input
// could not be decomposed into URL components.
const ParseFailureSignal = "ParseFailure"

// ScoreResult contains the complete output of a URL risk evaluation.
//
// The engine does NOT make a block/allow decision. It returns a bounded
// score, a derived phishing probability and a verdict band so that the
// integrating application applies its own policy.
type ScoreResult struct {
	// Score is the clamped sum of all triggered signal weights (0-100).
	Score int

	// Probability is floor(Score * 0.93), clamped to 100.
	Probability int

	// Verdict is the band the score falls in.
	Verdict Verdict

	// TriggeredSignals lists signal names in catalog evaluation order.
	TriggeredSignals []string

	// Violations carries the weight and reason of each triggered signal,
	// in the same order as TriggeredSignals.
	Violations []Violation

	// Unparsable is set when the input could not be parsed. The score is
	// then the fixed sentinel and TriggeredSignals holds ParseFailureSignal.
	Unparsable bool

	// ParseError describes why parsing failed. Empty otherwise.
	ParseError string
}

// Violation represents a single signal that was triggered during analysis.
type Violation struct {
	// RuleName is the triggered signal name.
	RuleName string

	// RiskScore is the weight added by this signal.
	RiskScore int

	// Reason is a human-readable explanation of the signal.
	Reason string
}
