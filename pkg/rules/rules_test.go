package rules_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokaycavdar/go-urlguard/pkg/parser"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
)

func input(t *testing.T, raw string) rules.Input {
	t.Helper()
	u, err := parser.Parse(raw)
	require.NoError(t, err, "parse %q", raw)
	return rules.Input{Raw: raw, URL: u}
}

type ruleCase struct {
	name string
	url  string
	want int
}

// scored returns the rule's weight when it triggers on in and 0 otherwise.
func scored(rule rules.Rule, in rules.Input) int {
	if rule.Triggered(in) {
		return rule.Weight()
	}
	return 0
}

func runRuleCases(t *testing.T, rule rules.Rule, cases []ruleCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scored(rule, input(t, tt.url)))
		})
	}
}

func TestTriggered_IndependentOfWeight(t *testing.T) {
	in := input(t, "https://bit.ly/x")
	rule := rules.NewShortenerRule([]string{"bit.ly"}, 0)
	assert.True(t, rule.Triggered(in))
	assert.Equal(t, 0, rule.Weight())
}

func TestInsecureSchemeRule(t *testing.T) {
	runRuleCases(t, rules.NewInsecureSchemeRule(15), []ruleCase{
		{"http", "http://example.com", 15},
		{"upper-case http", "HTTP://example.com", 0},
		{"https", "https://example.com", 0},
		{"single slash", "http:/example.com", 0},
		{"no scheme", "example.com", 0},
	})
}

func TestRawIPHostRule(t *testing.T) {
	runRuleCases(t, rules.NewRawIPHostRule(25), []ruleCase{
		{"dotted quad", "http://10.0.0.1/", 25},
		{"octets not range checked", "http://999.1.1.1/", 25},
		{"ip prefix of domain", "http://10.0.0.1.example.com/", 0},
		{"three octets", "http://1.2.3/", 0},
		{"domain", "https://example.com/", 0},
	})
}

func TestTestTokenRule(t *testing.T) {
	runRuleCases(t, rules.NewTestTokenRule([]string{"eicar", "amtso"}, 40), []ruleCase{
		{"token in host", "http://www.eicar.org/", 40},
		{"upper-case host", "http://WWW.AMTSO.ORG/", 40},
		{"token only in path", "https://example.com/eicar", 0},
	})
}

func TestRareTLDRule(t *testing.T) {
	runRuleCases(t, rules.NewRareTLDRule([]string{"zip", "tk", "ml"}, 14), []ruleCase{
		{"tk", "http://example.tk/", 14},
		{"zip gtld", "https://files.zip/", 14},
		{"trailing dot", "http://example.ml./", 14},
		{"common tld", "https://example.com/", 0},
		{"ip host", "http://10.0.0.1/", 0},
		{"no host", "example.tk", 0},
	})
}

func TestDeepSubdomainRule(t *testing.T) {
	runRuleCases(t, rules.NewDeepSubdomainRule(5, 12), []ruleCase{
		{"five labels", "http://a.b.c.d.e/", 12},
		{"four labels", "http://a.b.c.d/", 0},
		{"ip has four labels", "http://192.168.1.1/", 0},
	})
}

func TestAtSignRule(t *testing.T) {
	runRuleCases(t, rules.NewAtSignRule(20), []ruleCase{
		{"userinfo", "https://user@example.com", 20},
		{"in path", "https://example.com/@me", 20},
		{"absent", "https://example.com", 0},
	})
}

func TestPunycodeRule(t *testing.T) {
	runRuleCases(t, rules.NewPunycodeRule(20), []ruleCase{
		{"idna label", "https://xn--bcher-kva.example/", 20},
		{"only in path", "https://example.com/xn--", 0},
	})
}

func TestSuspiciousPortRule(t *testing.T) {
	runRuleCases(t, rules.NewSuspiciousPortRule([]int{8080, 22}, 15), []ruleCase{
		{"listed port", "http://example.com:8080/", 15},
		{"ssh port", "http://example.com:22", 15},
		{"standard port", "https://example.com:443/", 0},
		{"no port", "http://example.com/", 0},
	})
}

func TestLongHostnameRule(t *testing.T) {
	long := strings.Repeat("a", 57) + ".com"
	runRuleCases(t, rules.NewLongHostnameRule(60, 12), []ruleCase{
		{"61 characters", "https://" + long + "/", 12},
		{"60 characters", "https://" + long[1:] + "/", 0},
	})
}

func TestShortenerRule(t *testing.T) {
	runRuleCases(t, rules.NewShortenerRule([]string{"bit.ly", "t.co"}, 20), []ruleCase{
		{"exact host", "https://bit.ly/x", 20},
		{"case folded host", "https://BIT.LY/x", 20},
		{"subdomain", "https://sub.bit.ly/x", 0},
		{"suffix of another host", "https://microsoft.co/", 0},
	})
}

func TestMixedScriptAndHomoglyphRules(t *testing.T) {
	mixed := rules.NewMixedScriptRule(20)
	homoglyph := rules.NewHomoglyphRule(map[rune]rune{'а': 'a'}, 22)

	tests := []struct {
		name          string
		url           string
		wantMixed     int
		wantHomoglyph int
	}{
		{"cyrillic a", "https://pаypal.com/", 20, 22},
		{"latin diacritic", "https://exämple.com/", 20, 0},
		{"ascii", "https://paypal.com/", 0, 0},
		{"non-ascii only in path", "https://example.com/pаth", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, tt.url)
			assert.Equal(t, tt.wantMixed, scored(mixed, in))
			assert.Equal(t, tt.wantHomoglyph, scored(homoglyph, in))
		})
	}
}

func TestQueryKeywordRule(t *testing.T) {
	runRuleCases(t, rules.NewQueryKeywordRule([]string{"id=", "redirect", "auth"}, 18), []ruleCase{
		{"id param", "https://example.com/?id=5", 18},
		{"case folded", "https://example.com/?ID=5", 18},
		{"redirect", "https://example.com/?next=1&redirect=x", 18},
		{"benign query", "https://example.com/?q=1", 0},
		{"keyword only in path", "https://example.com/auth?x=1", 0},
	})
}

func TestPathKeywordRule(t *testing.T) {
	runRuleCases(t, rules.NewPathKeywordRule([]string{"malware", "download"}, 25), []ruleCase{
		{"malware", "http://example.com/malware/x", 25},
		{"case folded substring", "https://example.com/Downloads/file", 25},
		{"keyword only in host", "https://download.example.com/", 0},
	})
}

func TestPercentEncodingRules(t *testing.T) {
	single := rules.NewPercentEncodingRule(10)
	double := rules.NewDoubleEncodingRule(18)

	tests := []struct {
		name       string
		url        string
		wantSingle int
		wantDouble int
	}{
		{"space escape", "https://example.com/a%20b", 10, 0},
		{"double escape", "https://example.com/a%2520b", 10, 18},
		{"lone percent", "https://example.com/100%", 0, 0},
		{"not hex", "https://example.com/%zz", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, tt.url)
			assert.Equal(t, tt.wantSingle, scored(single, in))
			assert.Equal(t, tt.wantDouble, scored(double, in))
		})
	}
}

func TestEmbeddedScriptRule(t *testing.T) {
	runRuleCases(t, rules.NewEmbeddedScriptRule(16), []ruleCase{
		{"script tag", "https://example.com/?q=<script>", 16},
		{"upper-case script tag", "https://example.com/?q=<SCRIPT>", 0},
		{"upper-case javascript scheme", "JAVASCRIPT:alert(1)", 0},
		{"javascript scheme", "javascript:alert(1)", 16},
		{"event handler", "https://example.com/?img=x onerror=y", 16},
		{"benign", "https://example.com/scripts/app.js", 0},
	})
}

func TestBadExtensionRule(t *testing.T) {
	rule := rules.NewBadExtensionRule([]string{".exe", ".zip", ".tar.zip"}, 30)

	runRuleCases(t, rule, []ruleCase{
		{"exe", "http://example.com/setup.exe", 30},
		{"upper-case extension", "http://example.com/setup.EXE", 30},
		{"two matching suffixes count once", "http://example.com/a.tar.zip", 30},
		{"extension followed by query", "http://example.com/setup.exe?x=1", 0},
		{"extension mid-path", "http://example.com/setup.exe/readme", 0},
	})

	ext, ok := rule.Match("http://example.com/a.tar.zip")
	assert.True(t, ok)
	assert.Equal(t, ".zip", ext)

	_, ok = rule.Match("http://example.com/")
	assert.False(t, ok)
}

func TestPoorFormattingRule(t *testing.T) {
	runRuleCases(t, rules.NewPoorFormattingRule(15), []ruleCase{
		{"clean", "https://example.com/a/b", 0},
		{"network-path reference", "//cdn.example.com/x", 0},
		{"double slash in path", "https://example.com//x", 15},
		{"dot dot", "https://example.com/../etc", 15},
		{"backslash", "https://example.com\\evil", 15},
		{"double question mark", "https://example.com/??a", 15},
		{"triple slash", "https:///example.com", 15},
		{"double slash after network-path reference", "//cdn.example.com//x", 15},
		{"url embedded in query", "https://example.com/?u=https://evil.com", 15},
	})
}

func TestHostEntropyRule(t *testing.T) {
	rule := rules.NewHostEntropyRule(4.3, 3.7, 20, 12)

	tests := []struct {
		name     string
		url      string
		wantHit  bool
		wantBand string
		want     int
	}{
		{"twenty distinct characters", "https://abcdefghijklmnopqrst/", true, rules.SignalHighEntropyStrong, 20},
		{"fourteen distinct characters", "https://abcdefghijklmn/", true, rules.SignalHighEntropyModerate, 12},
		{"ordinary domain", "https://example.com/", false, "", 0},
		{"no host", "example", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, tt.url)
			band, hit := rule.ValidateTier(in)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.wantBand, band.Name)
			assert.Equal(t, tt.want, band.Score)
			assert.Equal(t, tt.wantHit, rule.Triggered(in))
		})
	}
}

func TestURLLengthRule(t *testing.T) {
	rule := rules.NewURLLengthRule(180, 120, 12, 7)
	prefix := "https://example.com/"
	pad := func(n int) string { return prefix + strings.Repeat("a", n-len(prefix)) }

	tests := []struct {
		name     string
		url      string
		wantBand string
		want     int
	}{
		{"181 characters", pad(181), rules.SignalExcessiveLengthSevere, 12},
		{"180 characters", pad(180), rules.SignalExcessiveLengthModerate, 7},
		{"121 characters", pad(121), rules.SignalExcessiveLengthModerate, 7},
		{"120 characters", pad(120), "", 0},
		{"code points not bytes", prefix + strings.Repeat("ä", 90), "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, tt.url)
			band, hit := rule.ValidateTier(in)
			assert.Equal(t, tt.wantBand, band.Name)
			assert.Equal(t, tt.want, band.Score)
			assert.Equal(t, hit, rule.Triggered(in))
			assert.Equal(t, tt.want > 0, hit)
		})
	}
}

func TestShannon(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"aaaa", 0},
		{"ab", 1},
		{"abcd", 2},
		{"aabb", 1},
		{"аб", 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, rules.Shannon(tt.in), 1e-9, "Shannon(%q)", tt.in)
	}
}
