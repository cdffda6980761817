package rules

import "unicode/utf8"

// URLLengthRule flags overly long URLs in two exclusive bands: longer than
// Severe code points, or longer than Moderate up to Severe.
type URLLengthRule struct {
	Severe        int
	Moderate      int
	SevereScore   int
	ModerateScore int
}

func NewURLLengthRule(severe, moderate, severeScore, moderateScore int) *URLLengthRule {
	return &URLLengthRule{
		Severe:        severe,
		Moderate:      moderate,
		SevereScore:   severeScore,
		ModerateScore: moderateScore,
	}
}

func (r *URLLengthRule) Name() string { return "ExcessiveLength" }

func (r *URLLengthRule) Description() string {
	return "URL is long enough to hide its real destination."
}

func (r *URLLengthRule) Weight() int { return max(r.SevereScore, r.ModerateScore) }

func (r *URLLengthRule) Bands() []Band {
	return []Band{
		{Name: SignalExcessiveLengthSevere, Score: r.SevereScore},
		{Name: SignalExcessiveLengthModerate, Score: r.ModerateScore},
	}
}

func (r *URLLengthRule) ValidateTier(in Input) (Band, bool) {
	n := utf8.RuneCountInString(in.Raw)
	switch {
	case n > r.Severe:
		return Band{Name: SignalExcessiveLengthSevere, Score: r.SevereScore}, true
	case n > r.Moderate:
		return Band{Name: SignalExcessiveLengthModerate, Score: r.ModerateScore}, true
	}
	return Band{}, false
}

func (r *URLLengthRule) Triggered(in Input) bool {
	_, hit := r.ValidateTier(in)
	return hit
}
