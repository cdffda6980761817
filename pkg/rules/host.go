package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

var dottedQuad = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// RawIPHostRule detects hosts written as a dotted-quad IPv4 literal.
//
// Octets are not range-checked: "999.1.1.1" is still something no
// legitimate link would carry.
type RawIPHostRule struct {
	RiskScore int
}

func NewRawIPHostRule(score int) *RawIPHostRule {
	return &RawIPHostRule{RiskScore: score}
}

func (r *RawIPHostRule) Name() string { return SignalRawIPHost }

func (r *RawIPHostRule) Description() string {
	return "Host is a raw IPv4 address instead of a domain name."
}

func (r *RawIPHostRule) Weight() int { return r.RiskScore }

func (r *RawIPHostRule) Triggered(in Input) bool {
	return dottedQuad.MatchString(in.URL.Host)
}

// TestTokenRule detects hosts carrying a known anti-malware test marker
// (EICAR, AMTSO and similar test domains).
type TestTokenRule struct {
	Tokens    []string
	RiskScore int
}

func NewTestTokenRule(tokens []string, score int) *TestTokenRule {
	return &TestTokenRule{Tokens: lowerAll(tokens), RiskScore: score}
}

func (r *TestTokenRule) Name() string { return SignalTestMalwareToken }

func (r *TestTokenRule) Description() string {
	return "Host contains a known malware/phishing test marker."
}

func (r *TestTokenRule) Weight() int { return r.RiskScore }

func (r *TestTokenRule) Triggered(in Input) bool {
	return containsAny(in.URL.Host, r.Tokens)
}

// RareTLDRule checks the public suffix of the host against a set of
// rarely used or frequently abused top-level domains.
type RareTLDRule struct {
	Suffixes  map[string]bool
	RiskScore int
}

func NewRareTLDRule(suffixes []string, score int) *RareTLDRule {
	return &RareTLDRule{Suffixes: toSet(suffixes), RiskScore: score}
}

func (r *RareTLDRule) Name() string { return SignalRareTLD }

func (r *RareTLDRule) Description() string {
	return "Public suffix belongs to a rarely used or frequently abused TLD."
}

func (r *RareTLDRule) Weight() int { return r.RiskScore }

func (r *RareTLDRule) Triggered(in Input) bool {
	host := strings.TrimSuffix(in.URL.Host, ".")
	if host == "" || dottedQuad.MatchString(host) {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	return r.Suffixes[suffix]
}

// DeepSubdomainRule flags hosts with many dot-separated labels.
type DeepSubdomainRule struct {
	MinLabels int
	RiskScore int
}

func NewDeepSubdomainRule(minLabels, score int) *DeepSubdomainRule {
	return &DeepSubdomainRule{MinLabels: minLabels, RiskScore: score}
}

func (r *DeepSubdomainRule) Name() string { return SignalDeepSubdomain }

func (r *DeepSubdomainRule) Description() string {
	return fmt.Sprintf("Host has %d or more dot-separated labels.", r.MinLabels)
}

func (r *DeepSubdomainRule) Weight() int { return r.RiskScore }

func (r *DeepSubdomainRule) Triggered(in Input) bool {
	return strings.Count(in.URL.Host, ".")+1 >= r.MinLabels
}

// PunycodeRule detects IDNA-encoded labels ("xn--").
type PunycodeRule struct {
	RiskScore int
}

func NewPunycodeRule(score int) *PunycodeRule {
	return &PunycodeRule{RiskScore: score}
}

func (r *PunycodeRule) Name() string { return SignalPunycode }

func (r *PunycodeRule) Description() string {
	return "Host contains a punycode (xn--) label."
}

func (r *PunycodeRule) Weight() int { return r.RiskScore }

func (r *PunycodeRule) Triggered(in Input) bool {
	return strings.Contains(in.URL.Host, "xn--")
}

// SuspiciousPortRule checks an explicit port against a configured set.
// URLs without an explicit port never trigger.
type SuspiciousPortRule struct {
	Ports     map[int]bool
	RiskScore int
}

func NewSuspiciousPortRule(ports []int, score int) *SuspiciousPortRule {
	set := make(map[int]bool, len(ports))
	for _, p := range ports {
		set[p] = true
	}
	return &SuspiciousPortRule{Ports: set, RiskScore: score}
}

func (r *SuspiciousPortRule) Name() string { return SignalSuspiciousPort }

func (r *SuspiciousPortRule) Description() string {
	return "Explicit port is commonly used by admin panels or throwaway servers."
}

func (r *SuspiciousPortRule) Weight() int { return r.RiskScore }

func (r *SuspiciousPortRule) Triggered(in Input) bool {
	return in.URL.HasPort && r.Ports[in.URL.Port]
}

// LongHostnameRule flags hostnames longer than MaxLength code points.
type LongHostnameRule struct {
	MaxLength int
	RiskScore int
}

func NewLongHostnameRule(maxLength, score int) *LongHostnameRule {
	return &LongHostnameRule{MaxLength: maxLength, RiskScore: score}
}

func (r *LongHostnameRule) Name() string { return SignalLongHostname }

func (r *LongHostnameRule) Description() string {
	return fmt.Sprintf("Hostname is longer than %d characters.", r.MaxLength)
}

func (r *LongHostnameRule) Weight() int { return r.RiskScore }

func (r *LongHostnameRule) Triggered(in Input) bool {
	return utf8.RuneCountInString(in.URL.Host) > r.MaxLength
}

// ShortenerRule matches hosts of known URL-shortening services exactly.
type ShortenerRule struct {
	Domains   map[string]bool
	RiskScore int
}

func NewShortenerRule(domains []string, score int) *ShortenerRule {
	return &ShortenerRule{Domains: toSet(domains), RiskScore: score}
}

func (r *ShortenerRule) Name() string { return SignalKnownShortener }

func (r *ShortenerRule) Description() string {
	return "Host is a known URL shortener hiding the real destination."
}

func (r *ShortenerRule) Weight() int { return r.RiskScore }

func (r *ShortenerRule) Triggered(in Input) bool {
	return r.Domains[in.URL.Host]
}

// MixedScriptRule flags any non-ASCII code point in the host.
type MixedScriptRule struct {
	RiskScore int
}

func NewMixedScriptRule(score int) *MixedScriptRule {
	return &MixedScriptRule{RiskScore: score}
}

func (r *MixedScriptRule) Name() string { return SignalMixedScript }

func (r *MixedScriptRule) Description() string {
	return "Host contains non-ASCII characters."
}

func (r *MixedScriptRule) Weight() int { return r.RiskScore }

func (r *MixedScriptRule) Triggered(in Input) bool {
	for _, c := range in.URL.Host {
		if c > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// HomoglyphRule detects characters that render like Latin letters.
//
// Glyphs maps each lookalike rune to the Latin letter it imitates; only
// the keys are used for detection.
type HomoglyphRule struct {
	Glyphs    map[rune]rune
	RiskScore int
}

func NewHomoglyphRule(glyphs map[rune]rune, score int) *HomoglyphRule {
	return &HomoglyphRule{Glyphs: glyphs, RiskScore: score}
}

func (r *HomoglyphRule) Name() string { return SignalHomoglyphChars }

func (r *HomoglyphRule) Description() string {
	return "Host contains Cyrillic or other lookalike characters."
}

func (r *HomoglyphRule) Weight() int { return r.RiskScore }

func (r *HomoglyphRule) Triggered(in Input) bool {
	for _, c := range in.URL.Host {
		if _, ok := r.Glyphs[c]; ok {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}
