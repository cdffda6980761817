package rules

import "strings"

// InsecureSchemeRule flags URLs submitted over plain HTTP. The prefix is
// matched exactly as written: "HTTP://" does not trigger.
type InsecureSchemeRule struct {
	RiskScore int
}

func NewInsecureSchemeRule(score int) *InsecureSchemeRule {
	return &InsecureSchemeRule{RiskScore: score}
}

func (r *InsecureSchemeRule) Name() string { return SignalInsecureScheme }

func (r *InsecureSchemeRule) Description() string {
	return "URL uses the unencrypted http:// scheme."
}

func (r *InsecureSchemeRule) Weight() int { return r.RiskScore }

func (r *InsecureSchemeRule) Triggered(in Input) bool {
	return strings.HasPrefix(in.Raw, "http://")
}
