package rules

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Signal names reported in ScoreResult.TriggeredSignals.
const (
	SignalInsecureScheme          = "InsecureScheme"
	SignalRawIPHost               = "RawIpHost"
	SignalTestMalwareToken        = "TestMalwareToken"
	SignalRareTLD                 = "RareTld"
	SignalDeepSubdomain           = "DeepSubdomain"
	SignalAtSignInURL             = "AtSignInUrl"
	SignalPunycode                = "Punycode"
	SignalSuspiciousPort          = "SuspiciousPort"
	SignalLongHostname            = "LongHostname"
	SignalKnownShortener          = "KnownShortener"
	SignalHighEntropyStrong       = "HighEntropyHostStrong"
	SignalHighEntropyModerate     = "HighEntropyHostModerate"
	SignalMixedScript             = "MixedScript"
	SignalHomoglyphChars          = "HomoglyphChars"
	SignalSuspiciousQueryParam    = "SuspiciousQueryParam"
	SignalMaliciousPathKeyword    = "MaliciousPathKeyword"
	SignalPercentEncoding         = "PercentEncoding"
	SignalDoublePercentEncoding   = "DoublePercentEncoding"
	SignalEmbeddedScript          = "EmbeddedScript"
	SignalBadFileExtension        = "BadFileExtension"
	SignalPoorFormatting          = "PoorFormatting"
	SignalExcessiveLengthSevere   = "ExcessiveLengthSevere"
	SignalExcessiveLengthModerate = "ExcessiveLengthModerate"
)

// DefaultVersion identifies the built-in weight table. Bump it whenever a
// weight, threshold or set below changes.
const DefaultVersion = "2026.10"

// signalTable is the built-in weight table, in evaluation order.
var signalTable = []struct {
	Name   string
	Weight int
}{
	{SignalInsecureScheme, 15},
	{SignalRawIPHost, 25},
	{SignalTestMalwareToken, 40},
	{SignalRareTLD, 14},
	{SignalDeepSubdomain, 12},
	{SignalAtSignInURL, 20},
	{SignalPunycode, 20},
	{SignalSuspiciousPort, 15},
	{SignalLongHostname, 12},
	{SignalKnownShortener, 20},
	{SignalHighEntropyStrong, 20},
	{SignalHighEntropyModerate, 12},
	{SignalMixedScript, 20},
	{SignalHomoglyphChars, 22},
	{SignalSuspiciousQueryParam, 18},
	{SignalMaliciousPathKeyword, 25},
	{SignalPercentEncoding, 10},
	{SignalDoublePercentEncoding, 18},
	{SignalEmbeddedScript, 16},
	{SignalBadFileExtension, 30},
	{SignalPoorFormatting, 15},
	{SignalExcessiveLengthSevere, 12},
	{SignalExcessiveLengthModerate, 7},
}

// ErrInvalidCatalog is returned (wrapped) by Catalog.Validate.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Thresholds holds the numeric cut-offs used by the rules.
type Thresholds struct {
	MinLabels       int     `yaml:"min_labels"`
	MaxHostLength   int     `yaml:"max_host_length"`
	EntropyStrong   float64 `yaml:"entropy_strong"`
	EntropyModerate float64 `yaml:"entropy_moderate"`
	LengthSevere    int     `yaml:"length_severe"`
	LengthModerate  int     `yaml:"length_moderate"`
}

// Catalog is the static configuration of the signal battery: weights,
// thresholds and the sets the rules match against.
//
// A Catalog is plain data. Rules() turns it into the ordered rule list the
// engine evaluates.
type Catalog struct {
	Version         string            `yaml:"version"`
	Weights         map[string]int    `yaml:"weights"`
	Thresholds      Thresholds        `yaml:"thresholds"`
	TestTokens      []string          `yaml:"test_tokens"`
	RareTLDs        []string          `yaml:"rare_tlds"`
	Shorteners      []string          `yaml:"shorteners"`
	SuspiciousPorts []int             `yaml:"suspicious_ports"`
	QueryKeywords   []string          `yaml:"query_keywords"`
	PathKeywords    []string          `yaml:"path_keywords"`
	BadExtensions   []string          `yaml:"bad_extensions"`
	Homoglyphs      map[string]string `yaml:"homoglyphs"`
}

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	weights := make(map[string]int, len(signalTable))
	for _, s := range signalTable {
		weights[s.Name] = s.Weight
	}

	return &Catalog{
		Version: DefaultVersion,
		Weights: weights,
		Thresholds: Thresholds{
			MinLabels:       5,
			MaxHostLength:   60,
			EntropyStrong:   4.3,
			EntropyModerate: 3.7,
			LengthSevere:    180,
			LengthModerate:  120,
		},
		TestTokens: []string{"amtso", "eicar", "testmalware", "malware-test", "phishing-test"},
		RareTLDs:   []string{"zip", "kim", "country", "gq", "tk", "ml", "cricket", "review"},
		Shorteners: []string{
			"bit.ly", "tinyurl.com", "goo.gl", "is.gd", "t.co",
			"shorte.st", "adf.ly", "cutt.ly", "rb.gy",
		},
		SuspiciousPorts: []int{8080, 8888, 2087, 2096, 21, 22},
		QueryKeywords:   []string{"id=", "token=", "redirect", "auth", "session=", "email="},
		PathKeywords:    []string{"malware", "virus", "payload", "download"},
		BadExtensions:   []string{".exe", ".scr", ".zip", ".rar", ".msi", ".apk"},
		// Cyrillic lookalikes of Latin letters.
		Homoglyphs: map[string]string{
			"\u0430": "a",
			"\u043e": "o",
			"\u0435": "e",
			"\u0441": "c",
			"\u0440": "p",
			"\u0445": "x",
			"\u0456": "i",
			"\u0501": "d",
			"\u0503": "d",
			"\u050d": "g",
		},
	}
}

// SignalNames returns every signal name in evaluation order.
func SignalNames() []string {
	names := make([]string, 0, len(signalTable))
	for _, s := range signalTable {
		names = append(names, s.Name)
	}
	return names
}

// Validate checks weights, thresholds and table entries.
func (c *Catalog) Validate() error {
	known := make(map[string]bool, len(signalTable))
	for _, s := range signalTable {
		known[s.Name] = true
	}
	for name, w := range c.Weights {
		if !known[name] {
			return fmt.Errorf("%w: unknown signal %q", ErrInvalidCatalog, name)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative weight %d for %s", ErrInvalidCatalog, w, name)
		}
	}

	t := c.Thresholds
	if t.EntropyModerate < 0 || t.EntropyModerate >= t.EntropyStrong {
		return fmt.Errorf("%w: entropy bands must satisfy 0 <= moderate < strong", ErrInvalidCatalog)
	}
	if t.LengthModerate < 0 || t.LengthModerate >= t.LengthSevere {
		return fmt.Errorf("%w: length bands must satisfy 0 <= moderate < severe", ErrInvalidCatalog)
	}
	if t.MinLabels < 1 || t.MaxHostLength < 1 {
		return fmt.Errorf("%w: min_labels and max_host_length must be positive", ErrInvalidCatalog)
	}

	for glyph := range c.Homoglyphs {
		if utf8.RuneCountInString(glyph) != 1 {
			return fmt.Errorf("%w: homoglyph key %q must be a single character", ErrInvalidCatalog, glyph)
		}
	}
	return nil
}

// Rules builds the ordered rule list. The order is the evaluation order
// and therefore the order of ScoreResult.TriggeredSignals.
func (c *Catalog) Rules() []Rule {
	w := c.Weights
	t := c.Thresholds

	glyphs := make(map[rune]rune, len(c.Homoglyphs))
	for k, v := range c.Homoglyphs {
		key, _ := utf8.DecodeRuneInString(k)
		val, _ := utf8.DecodeRuneInString(v)
		glyphs[key] = val
	}

	return []Rule{
		NewInsecureSchemeRule(w[SignalInsecureScheme]),
		NewRawIPHostRule(w[SignalRawIPHost]),
		NewTestTokenRule(c.TestTokens, w[SignalTestMalwareToken]),
		NewRareTLDRule(c.RareTLDs, w[SignalRareTLD]),
		NewDeepSubdomainRule(t.MinLabels, w[SignalDeepSubdomain]),
		NewAtSignRule(w[SignalAtSignInURL]),
		NewPunycodeRule(w[SignalPunycode]),
		NewSuspiciousPortRule(c.SuspiciousPorts, w[SignalSuspiciousPort]),
		NewLongHostnameRule(t.MaxHostLength, w[SignalLongHostname]),
		NewShortenerRule(c.Shorteners, w[SignalKnownShortener]),
		NewHostEntropyRule(t.EntropyStrong, t.EntropyModerate,
			w[SignalHighEntropyStrong], w[SignalHighEntropyModerate]),
		NewMixedScriptRule(w[SignalMixedScript]),
		NewHomoglyphRule(glyphs, w[SignalHomoglyphChars]),
		NewQueryKeywordRule(c.QueryKeywords, w[SignalSuspiciousQueryParam]),
		NewPathKeywordRule(c.PathKeywords, w[SignalMaliciousPathKeyword]),
		NewPercentEncodingRule(w[SignalPercentEncoding]),
		NewDoubleEncodingRule(w[SignalDoublePercentEncoding]),
		NewEmbeddedScriptRule(w[SignalEmbeddedScript]),
		NewBadExtensionRule(c.BadExtensions, w[SignalBadFileExtension]),
		NewPoorFormattingRule(w[SignalPoorFormatting]),
		NewURLLengthRule(t.LengthSevere, t.LengthModerate,
			w[SignalExcessiveLengthSevere], w[SignalExcessiveLengthModerate]),
	}
}

// Row is one line of the human-readable signal table.
type Row struct {
	Name        string `json:"name"`
	Weight      int    `json:"weight"`
	Description string `json:"description"`
}

// Describe flattens rules into table rows. Tiered rules yield one row per
// band.
func Describe(rules []Rule) []Row {
	rows := make([]Row, 0, len(rules)+2)
	for _, r := range rules {
		if tr, ok := r.(TieredRule); ok {
			for _, b := range tr.Bands() {
				rows = append(rows, Row{Name: b.Name, Weight: b.Score, Description: r.Description()})
			}
			continue
		}
		rows = append(rows, Row{Name: r.Name(), Weight: r.Weight(), Description: r.Description()})
	}
	return rows
}
