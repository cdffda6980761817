package models

import "fmt"

// Verdict is the categorical risk label derived from a bounded score.
type Verdict int

const (
	Safe Verdict = iota
	LowRisk
	Suspicious
	Risky
	HighDanger
)

var verdictNames = [...]string{"safe", "low_risk", "suspicious", "risky", "high_danger"}

var verdictLabels = [...]string{"Safe", "Low Risk", "Suspicious", "Risky", "High Danger"}

// VerdictFromScore maps a score to its band. Upper bounds are inclusive:
// 0-20 Safe, 21-40 LowRisk, 41-60 Suspicious, 61-80 Risky, 81+ HighDanger.
func VerdictFromScore(score int) Verdict {
	switch {
	case score <= 20:
		return Safe
	case score <= 40:
		return LowRisk
	case score <= 60:
		return Suspicious
	case score <= 80:
		return Risky
	default:
		return HighDanger
	}
}

// ParseVerdict reconstructs a Verdict from its machine name.
func ParseVerdict(s string) (Verdict, error) {
	for i, name := range verdictNames {
		if name == s {
			return Verdict(i), nil
		}
	}
	return Safe, fmt.Errorf("invalid verdict: %q", s)
}

// String returns the stable machine name (e.g. "low_risk").
func (v Verdict) String() string {
	if v < Safe || v > HighDanger {
		return fmt.Sprintf("verdict(%d)", int(v))
	}
	return verdictNames[v]
}

// Label returns the display label (e.g. "Low Risk").
func (v Verdict) Label() string {
	if v < Safe || v > HighDanger {
		return v.String()
	}
	return verdictLabels[v]
}

// Class groups verdicts into the three presentation classes:
// "safe", "suspicious" and "danger".
func (v Verdict) Class() string {
	switch v {
	case Safe, LowRisk:
		return "safe"
	case Suspicious:
		return "suspicious"
	default:
		return "danger"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
