package rules

import (
	"regexp"
	"strings"
)

var (
	percentEscape       = regexp.MustCompile(`%[0-9a-fA-F]{2}`)
	doublePercentEscape = regexp.MustCompile(`%25[0-9a-fA-F]{2}`)
	scriptInjection     = regexp.MustCompile(`(javascript:|<script|onerror=|alert\()`)
)

// AtSignRule flags "@" anywhere in the URL. Browsers treat everything
// before an "@" in the authority as credentials, which hides the real host.
type AtSignRule struct {
	RiskScore int
}

func NewAtSignRule(score int) *AtSignRule {
	return &AtSignRule{RiskScore: score}
}

func (r *AtSignRule) Name() string { return SignalAtSignInURL }

func (r *AtSignRule) Description() string {
	return "URL contains '@', which can disguise the real host."
}

func (r *AtSignRule) Weight() int { return r.RiskScore }

func (r *AtSignRule) Triggered(in Input) bool {
	return strings.Contains(in.Raw, "@")
}

// QueryKeywordRule matches the query string, case-insensitively, against
// parameter names and words used by credential-harvesting links.
type QueryKeywordRule struct {
	Keywords  []string
	RiskScore int
}

func NewQueryKeywordRule(keywords []string, score int) *QueryKeywordRule {
	return &QueryKeywordRule{Keywords: lowerAll(keywords), RiskScore: score}
}

func (r *QueryKeywordRule) Name() string { return SignalSuspiciousQueryParam }

func (r *QueryKeywordRule) Description() string {
	return "Query string carries identity, token or redirect parameters."
}

func (r *QueryKeywordRule) Weight() int { return r.RiskScore }

func (r *QueryKeywordRule) Triggered(in Input) bool {
	return containsAny(strings.ToLower(in.URL.Query), r.Keywords)
}

// PathKeywordRule matches the path, case-insensitively, against malware
// vocabulary.
type PathKeywordRule struct {
	Keywords  []string
	RiskScore int
}

func NewPathKeywordRule(keywords []string, score int) *PathKeywordRule {
	return &PathKeywordRule{Keywords: lowerAll(keywords), RiskScore: score}
}

func (r *PathKeywordRule) Name() string { return SignalMaliciousPathKeyword }

func (r *PathKeywordRule) Description() string {
	return "Path mentions malware, payloads or downloads."
}

func (r *PathKeywordRule) Weight() int { return r.RiskScore }

func (r *PathKeywordRule) Triggered(in Input) bool {
	return containsAny(strings.ToLower(in.URL.Path), r.Keywords)
}

// PercentEncodingRule flags any %XX escape in the raw URL.
type PercentEncodingRule struct {
	RiskScore int
}

func NewPercentEncodingRule(score int) *PercentEncodingRule {
	return &PercentEncodingRule{RiskScore: score}
}

func (r *PercentEncodingRule) Name() string { return SignalPercentEncoding }

func (r *PercentEncodingRule) Description() string {
	return "URL contains percent-encoded characters."
}

func (r *PercentEncodingRule) Weight() int { return r.RiskScore }

func (r *PercentEncodingRule) Triggered(in Input) bool {
	return percentEscape.MatchString(in.Raw)
}

// DoubleEncodingRule flags %25XX, an escape that decodes to another escape.
type DoubleEncodingRule struct {
	RiskScore int
}

func NewDoubleEncodingRule(score int) *DoubleEncodingRule {
	return &DoubleEncodingRule{RiskScore: score}
}

func (r *DoubleEncodingRule) Name() string { return SignalDoublePercentEncoding }

func (r *DoubleEncodingRule) Description() string {
	return "URL contains double percent-encoding (%25XX)."
}

func (r *DoubleEncodingRule) Weight() int { return r.RiskScore }

func (r *DoubleEncodingRule) Triggered(in Input) bool {
	return doublePercentEscape.MatchString(in.Raw)
}

// EmbeddedScriptRule detects script-injection fragments in the URL. The
// markers are case-sensitive.
type EmbeddedScriptRule struct {
	RiskScore int
}

func NewEmbeddedScriptRule(score int) *EmbeddedScriptRule {
	return &EmbeddedScriptRule{RiskScore: score}
}

func (r *EmbeddedScriptRule) Name() string { return SignalEmbeddedScript }

func (r *EmbeddedScriptRule) Description() string {
	return "URL embeds JavaScript or an HTML event handler."
}

func (r *EmbeddedScriptRule) Weight() int { return r.RiskScore }

func (r *EmbeddedScriptRule) Triggered(in Input) bool {
	return scriptInjection.MatchString(in.Raw)
}

// BadExtensionRule flags URLs ending in an executable or archive extension.
//
// Extensions are checked in order and the rule contributes its weight at
// most once, even if more than one configured suffix matches.
type BadExtensionRule struct {
	Extensions []string
	RiskScore  int
}

func NewBadExtensionRule(extensions []string, score int) *BadExtensionRule {
	return &BadExtensionRule{Extensions: lowerAll(extensions), RiskScore: score}
}

func (r *BadExtensionRule) Name() string { return SignalBadFileExtension }

func (r *BadExtensionRule) Description() string {
	return "URL points to an executable or archive file."
}

func (r *BadExtensionRule) Weight() int { return r.RiskScore }

func (r *BadExtensionRule) Triggered(in Input) bool {
	_, ok := r.Match(in.Raw)
	return ok
}

// Match returns the first configured extension raw ends with.
func (r *BadExtensionRule) Match(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	for _, ext := range r.Extensions {
		if ext != "" && strings.HasSuffix(lower, ext) {
			return ext, true
		}
	}
	return "", false
}

// PoorFormattingRule flags structural anomalies: a second "//" after the
// authority marker, "..", backslashes, "??" and "///".
type PoorFormattingRule struct {
	RiskScore int
}

func NewPoorFormattingRule(score int) *PoorFormattingRule {
	return &PoorFormattingRule{RiskScore: score}
}

var formatMarkers = []string{"..", `\`, "??", "///"}

func (r *PoorFormattingRule) Name() string { return SignalPoorFormatting }

func (r *PoorFormattingRule) Description() string {
	return "URL has malformed structure (stray slashes, backslashes, '..', '??')."
}

func (r *PoorFormattingRule) Weight() int { return r.RiskScore }

func (r *PoorFormattingRule) Triggered(in Input) bool {
	return containsAny(in.Raw, formatMarkers) ||
		strings.Contains(afterAuthorityMarker(in.Raw, in.URL.Scheme), "//")
}

// afterAuthorityMarker strips everything up to and including the "//" that
// introduces the authority, either "scheme://" or a leading "//".
func afterAuthorityMarker(raw, scheme string) string {
	if scheme != "" {
		if i := strings.Index(raw, "://"); i >= 0 {
			return raw[i+3:]
		}
		return raw
	}
	trimmed := strings.TrimLeft(raw, " ")
	if strings.HasPrefix(trimmed, "//") {
		return trimmed[2:]
	}
	return raw
}
