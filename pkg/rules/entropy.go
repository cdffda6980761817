package rules

import "math"

// Shannon returns the Shannon entropy, in bits, of the character
// distribution of s. Characters are Unicode code points. An empty string
// has entropy 0.
func Shannon(s string) float64 {
	if s == "" {
		return 0
	}

	freq := make(map[rune]int)
	n := 0
	for _, c := range s {
		freq[c]++
		n++
	}

	var h float64
	for _, count := range freq {
		p := float64(count) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

// HostEntropyRule flags algorithmically generated looking hostnames.
//
// Two bands: entropy above Strong yields the strong band, entropy in
// (Moderate, Strong] the moderate one.
type HostEntropyRule struct {
	Strong        float64
	Moderate      float64
	StrongScore   int
	ModerateScore int
}

func NewHostEntropyRule(strong, moderate float64, strongScore, moderateScore int) *HostEntropyRule {
	return &HostEntropyRule{
		Strong:        strong,
		Moderate:      moderate,
		StrongScore:   strongScore,
		ModerateScore: moderateScore,
	}
}

func (r *HostEntropyRule) Name() string { return "HighEntropyHost" }

func (r *HostEntropyRule) Description() string {
	return "Hostname character distribution looks randomly generated."
}

func (r *HostEntropyRule) Weight() int { return max(r.StrongScore, r.ModerateScore) }

func (r *HostEntropyRule) Bands() []Band {
	return []Band{
		{Name: SignalHighEntropyStrong, Score: r.StrongScore},
		{Name: SignalHighEntropyModerate, Score: r.ModerateScore},
	}
}

func (r *HostEntropyRule) ValidateTier(in Input) (Band, bool) {
	e := Shannon(in.URL.Host)
	switch {
	case e > r.Strong:
		return Band{Name: SignalHighEntropyStrong, Score: r.StrongScore}, true
	case e > r.Moderate:
		return Band{Name: SignalHighEntropyModerate, Score: r.ModerateScore}, true
	}
	return Band{}, false
}

func (r *HostEntropyRule) Triggered(in Input) bool {
	_, hit := r.ValidateTier(in)
	return hit
}
