package rules

import "github.com/gokaycavdar/go-urlguard/pkg/models"

// Input is what every rule sees: the raw string as submitted and the
// components parsed from it.
type Input struct {
	Raw string
	URL models.ParsedURL
}

// Rule is the contract every URL signal satisfies.
//
// Rules are stateless predicates with a fixed weight. Whether a rule
// triggers is independent of its weight: a rule tuned to weight 0 still
// reports its signal. Triggered must never panic on empty hosts, paths or
// queries.
type Rule interface {
	// Name is the signal name reported in ScoreResult.TriggeredSignals.
	Name() string

	// Description is a short human-readable explanation.
	Description() string

	// Weight is the score added when the rule triggers.
	Weight() int

	// Triggered reports whether the signal fires for in.
	Triggered(in Input) bool
}

// Band is one tier of a TieredRule.
type Band struct {
	Name  string
	Score int
}

// TieredRule is a rule with mutually exclusive severity bands, such as
// hostname entropy or URL length. At most one band triggers per input and
// the band's own name is reported instead of Rule.Name.
type TieredRule interface {
	Rule

	// Bands lists the tiers from most to least severe.
	Bands() []Band

	// ValidateTier returns the matching band, if any.
	ValidateTier(in Input) (Band, bool)
}
